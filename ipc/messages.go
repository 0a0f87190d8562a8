// Package ipc frames JSON messages with a length prefix and serves bot
// decisions over a socket using that framing.
package ipc

import (
	"github.com/nstehr/dominion/dominion-core/memory"
	"github.com/nstehr/dominion/dominion-core/model"
	"github.com/nstehr/dominion/dominion-core/rules"
)

const (
	TypeHello    = "hello"
	TypeAck      = "ack"
	TypeSnapshot = "snapshot"
	TypeDecision = "decision"
	TypeError    = "error"
)

// HelloMessage binds a connection to one empire playing one archetype.
type HelloMessage struct {
	Empire    model.EmpireID `json:"empire"`
	Archetype string         `json:"archetype"`
}

type AckMessage struct {
	Status    string `json:"status"`
	Archetype string `json:"archetype,omitempty"`
}

// SnapshotMessage asks for one decision. Relations are derived server-side
// from Memories, which are the bound empire's records about the others.
type SnapshotMessage struct {
	Turn          int                 `json:"turn"`
	Seed          int64               `json:"seed"`
	Self          model.EmpireState   `json:"self"`
	Others        []model.EmpireState `json:"others"`
	Memories      []memory.Record     `json:"memories,omitempty"`
	Context       model.TurnContext   `json:"context"`
	Galaxy        *model.Galaxy       `json:"galaxy,omitempty"`
	AttackPending bool                `json:"attackPending,omitempty"`
}

type DecisionMessage struct {
	Turn   int          `json:"turn"`
	Action rules.Action `json:"action"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}
