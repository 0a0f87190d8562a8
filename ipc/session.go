package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/nstehr/dominion/dominion-core/agent"
	"github.com/nstehr/dominion/dominion-core/entropy"
	"github.com/nstehr/dominion/dominion-core/memory"
	"github.com/nstehr/dominion/dominion-core/model"
	"github.com/nstehr/dominion/dominion-core/relation"
)

// Session owns the decision-making for one connected empire.
type Session struct {
	lib *agent.Library
	bot *agent.Agent
}

func NewSession(lib *agent.Library) *Session {
	return &Session{lib: lib}
}

// HandleHello binds the session to an empire and its archetype.
func (s *Session) HandleHello(env Envelope) (*Envelope, error) {
	var hello HelloMessage
	if err := env.Decode(&hello); err != nil {
		return nil, err
	}
	if hello.Empire == "" {
		return nil, errors.New("hello without empire")
	}

	bot, err := s.lib.Agent(hello.Empire, hello.Archetype)
	if err != nil {
		return nil, err
	}
	s.bot = bot
	slog.Info("empire identified", "empire", hello.Empire, "archetype", bot.Profile.ID)

	ack, err := NewEnvelope(TypeAck, AckMessage{Status: "ok", Archetype: bot.Profile.ID.String()})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// HandleSnapshot answers a snapshot with the bound bot's decision. The
// snapshot's seed makes the answer reproducible.
func (s *Session) HandleSnapshot(env Envelope) (*Envelope, error) {
	if s.bot == nil {
		return nil, errors.New("snapshot before hello")
	}
	var msg SnapshotMessage
	if err := env.Decode(&msg); err != nil {
		return nil, err
	}

	rels, err := s.relations(msg)
	if err != nil {
		return nil, err
	}
	snap := agent.Snapshot{
		Turn:          msg.Turn,
		Self:          msg.Self,
		Others:        msg.Others,
		Relations:     rels,
		Context:       msg.Context,
		Galaxy:        msg.Galaxy,
		AttackPending: msg.AttackPending,
	}
	action := s.bot.Decide(snap, entropy.NewSeeded(msg.Seed))

	slog.Info("snapshot answered",
		"empire", s.bot.Empire,
		"turn", msg.Turn,
		"others", len(msg.Others),
		"memories", len(msg.Memories),
		"action", action.Kind,
	)

	resp, err := NewEnvelope(TypeDecision, DecisionMessage{Turn: msg.Turn, Action: action})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// relations groups the bot's own memories by target and summarizes them.
// Weight, resistance and polarity always come from the event table; only a
// negative event can carry a scar.
func (s *Session) relations(msg SnapshotMessage) (map[model.EmpireID]relation.Summary, error) {
	byTarget := make(map[model.EmpireID][]memory.Record)
	for _, r := range msg.Memories {
		if r.Holder != s.bot.Empire {
			continue
		}
		spec, err := memory.LookupEvent(r.Event)
		if err != nil {
			return nil, fmt.Errorf("memory %s: %w", r.ID, err)
		}
		r.OriginalWeight = spec.Weight
		r.Resistance = spec.Resistance
		r.Polarity = spec.Polarity
		r.PermanentScar = r.PermanentScar && spec.Polarity == memory.Negative
		byTarget[r.Target] = append(byTarget[r.Target], r)
	}
	top := s.lib.Config().TopMemories
	out := make(map[model.EmpireID]relation.Summary, len(byTarget))
	for target, recs := range byTarget {
		out[target] = relation.SummarizeTop(recs, msg.Turn, top)
	}
	return out, nil
}

// Serve accepts connections until ctx is done, running one session per
// connection.
func Serve(ctx context.Context, listener net.Listener, lib *agent.Library) error {
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("listener closed: %w", err)
			}
			slog.Error("failed to accept connection", "error", err)
			continue
		}
		slog.Info("new connection accepted")
		go handleConn(conn, lib)
	}
}

func handleConn(conn net.Conn, lib *agent.Library) {
	c := NewConnection(conn, nil)
	s := NewSession(lib)
	c.RegisterHandler(TypeHello, func(env Envelope) (*Envelope, error) {
		resp, err := s.HandleHello(env)
		if err == nil {
			c.Empire = string(s.bot.Empire)
		}
		return resp, err
	})
	c.RegisterHandler(TypeSnapshot, s.HandleSnapshot)
	c.ReadLoop()
}
