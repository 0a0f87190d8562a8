package sim

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/nstehr/dominion/dominion-core/combat"
	"github.com/nstehr/dominion/dominion-core/memory"
	"github.com/nstehr/dominion/dominion-core/model"
	"github.com/nstehr/dominion/dominion-core/relation"
	"github.com/nstehr/dominion/dominion-core/rules"
)

// Observation is one interaction an empire will remember: Holder's memory
// about Target.
type Observation struct {
	Holder model.EmpireID
	Target model.EmpireID
	Event  memory.EventType
	Detail string
}

// battle is a resolved attack plus the circumstances it was launched under.
type battle struct {
	outcome combat.Outcome
	warned  bool
	treaty  bool          // an active treaty bound the two sides at launch
	tier    relation.Tier // defender's standing toward the attacker at turn start
}

type pairKey struct{ from, to model.EmpireID }

// proposals indexes treaty proposals by sender and recipient.
func proposals(actions []rules.Action) map[pairKey]bool {
	p := make(map[pairKey]bool)
	for _, a := range actions {
		if a.Kind == rules.KindMessage && a.Message != nil && a.Message.Proposal == rules.ProposalTreaty {
			p[pairKey{a.Empire, a.Message.Target}] = true
		}
	}
	return p
}

// signedTreaties returns pairs where both sides proposed to each other this
// turn, each pair once with the lower ID first.
func signedTreaties(actions []rules.Action) [][2]model.EmpireID {
	p := proposals(actions)
	var signed [][2]model.EmpireID
	for k := range p {
		if k.from < k.to && p[pairKey{k.to, k.from}] {
			signed = append(signed, [2]model.EmpireID{k.from, k.to})
		}
	}
	slices.SortFunc(signed, func(a, b [2]model.EmpireID) int {
		if a[0] != b[0] {
			return cmp.Compare(a[0], b[0])
		}
		return cmp.Compare(a[1], b[1])
	})
	return signed
}

// detectOrderEvents derives observations from this turn's decisions, in
// action order.
func detectOrderEvents(actions []rules.Action) []Observation {
	var obs []Observation
	p := proposals(actions)

	for _, a := range actions {
		switch a.Kind {
		// 1. warning_received: an honest tell reaches the target when the order is issued
		case rules.KindAttack:
			if a.Attack == nil || !a.Attack.Warned {
				continue
			}
			obs = append(obs, Observation{
				Holder: a.Attack.Target,
				Target: a.Empire,
				Event:  memory.EventWarningReceived,
				Detail: fmt.Sprintf("%s warned of an attack in %d turns", a.Empire, a.Attack.TurnsAhead),
			})

		// 2. treaty_signed when proposals cross, otherwise treaty_proposed
		case rules.KindMessage:
			if a.Message == nil || a.Message.Proposal != rules.ProposalTreaty {
				continue
			}
			event := memory.EventTreatyProposed
			detail := fmt.Sprintf("%s proposed a treaty", a.Empire)
			if p[pairKey{a.Message.Target, a.Empire}] {
				event = memory.EventTreatySigned
				detail = fmt.Sprintf("treaty signed with %s", a.Empire)
			}
			obs = append(obs, Observation{
				Holder: a.Message.Target,
				Target: a.Empire,
				Event:  event,
				Detail: detail,
			})
		}
	}
	return obs
}

// detectBattleEvents derives observations from resolved attacks, in
// resolution order.
func detectBattleEvents(battles []battle) []Observation {
	var obs []Observation
	for _, b := range battles {
		o := b.outcome
		add := func(holder, target model.EmpireID, e memory.EventType, detail string) {
			obs = append(obs, Observation{Holder: holder, Target: target, Event: e, Detail: detail})
		}

		// 1. the attack itself, from the defender's side
		switch {
		case o.Type == combat.GuerillaRaid:
			add(o.Defender, o.Attacker, memory.EventGuerillaRaid, fmt.Sprintf("%s raided us", o.Attacker))
		case o.TerritoryTransferred:
			add(o.Defender, o.Attacker, memory.EventSectorCaptured, fmt.Sprintf("%s captured a sector", o.Attacker))
		default:
			add(o.Defender, o.Attacker, memory.EventInvasionAttempted, fmt.Sprintf("%s invaded and was held off", o.Attacker))
			// 2. invasion_repelled: the attacker remembers the failure
			add(o.Attacker, o.Defender, memory.EventInvasionRepelled, fmt.Sprintf("%s repelled our invasion", o.Defender))
		}

		// 3. surprise_attack: no warning was given
		if !b.warned {
			add(o.Defender, o.Attacker, memory.EventSurpriseAttack, fmt.Sprintf("%s attacked without warning", o.Attacker))
		}

		// 4. treaty_broken: the attack ended an active treaty
		if b.treaty {
			add(o.Defender, o.Attacker, memory.EventTreatyBroken, fmt.Sprintf("%s broke our treaty", o.Attacker))
		}

		// 5. betrayal: an ally turned on us
		if b.tier == relation.Allied {
			add(o.Defender, o.Attacker, memory.EventBetrayal, fmt.Sprintf("%s betrayed our alliance", o.Attacker))
		}
	}

	// 6. common_enemy: defenders hit by the same attacker this turn
	victims := make(map[model.EmpireID][]model.EmpireID)
	var attackers []model.EmpireID
	for _, b := range battles {
		a, d := b.outcome.Attacker, b.outcome.Defender
		if _, ok := victims[a]; !ok {
			attackers = append(attackers, a)
		}
		if !slices.Contains(victims[a], d) {
			victims[a] = append(victims[a], d)
		}
	}
	for _, a := range attackers {
		vs := victims[a]
		for _, x := range vs {
			for _, y := range vs {
				if x == y {
					continue
				}
				obs = append(obs, Observation{
					Holder: x,
					Target: y,
					Event:  memory.EventCommonEnemy,
					Detail: fmt.Sprintf("%s also attacked by %s", y, a),
				})
			}
		}
	}
	return obs
}
