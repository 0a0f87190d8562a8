// Package replay records games as a stream of framed JSON envelopes and
// re-runs them to prove the simulation is deterministic.
package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nstehr/dominion/dominion-core/config"
	"github.com/nstehr/dominion/dominion-core/ipc"
	"github.com/nstehr/dominion/dominion-core/sim"
)

const (
	TypeHeader = "header"
	TypeTurn   = "turn"
	TypeEnd    = "end"
)

// Version is bumped whenever turn semantics change.
const Version = 1

var (
	ErrMismatch  = errors.New("replay mismatch")
	ErrMalformed = errors.New("malformed replay")
)

// Header is the first envelope of every replay: everything needed to re-run
// the game.
type Header struct {
	Version int           `json:"version"`
	Setup   sim.Setup     `json:"setup"`
	Config  config.Config `json:"config"`
}

// Footer closes a replay.
type Footer struct {
	Turns int `json:"turns"`
	Alive int `json:"alive"`
}

// Writer appends turns to a replay stream.
type Writer struct {
	w     io.Writer
	turns int
}

// NewWriter writes h and returns a Writer for the turns that follow. The
// setup must carry a game ID so a re-run reproduces it.
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	if h.Setup.ID == "" {
		return nil, errors.New("replay header needs a game id")
	}
	if h.Version == 0 {
		h.Version = Version
	}
	if err := ipc.Write(w, TypeHeader, h); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &Writer{w: w}, nil
}

func (w *Writer) Turn(r sim.TurnReport) error {
	if err := ipc.Write(w.w, TypeTurn, r); err != nil {
		return fmt.Errorf("write turn %d: %w", r.Turn, err)
	}
	w.turns++
	return nil
}

// Close writes the footer. alive is the number of empires left standing.
func (w *Writer) Close(alive int) error {
	return ipc.Write(w.w, TypeEnd, Footer{Turns: w.turns, Alive: alive})
}

// Log is a fully read replay. Turns keep their raw JSON so a re-run can be
// compared byte for byte.
type Log struct {
	Header Header
	Turns  []json.RawMessage
	Footer *Footer
}

// Read consumes a replay stream until EOF.
func Read(r io.Reader) (*Log, error) {
	env, err := ipc.ReadEnvelope(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrMalformed, err)
	}
	if env.Type != TypeHeader {
		return nil, fmt.Errorf("%w: first envelope is %q, want %q", ErrMalformed, env.Type, TypeHeader)
	}
	log := &Log{}
	if err := env.Decode(&log.Header); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if log.Header.Version != Version {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrMalformed, log.Header.Version, Version)
	}

	for {
		env, err := ipc.ReadEnvelope(r)
		if errors.Is(err, io.EOF) {
			return log, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if log.Footer != nil {
			return nil, fmt.Errorf("%w: %q envelope after end", ErrMalformed, env.Type)
		}
		switch env.Type {
		case TypeTurn:
			log.Turns = append(log.Turns, env.Data)
		case TypeEnd:
			var f Footer
			if err := env.Decode(&f); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
			}
			log.Footer = &f
		default:
			return nil, fmt.Errorf("%w: unexpected envelope %q", ErrMalformed, env.Type)
		}
	}
}

// Result summarizes a verified replay.
type Result struct {
	GameID string
	Turns  int
	Alive  int
}

// Verify re-runs the game in a replay from its header and checks that every
// turn matches the recording exactly.
func Verify(ctx context.Context, r io.Reader) (Result, error) {
	log, err := Read(r)
	if err != nil {
		return Result{}, err
	}
	cfg := log.Header.Config
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	lib, err := cfg.Library()
	if err != nil {
		return Result{}, err
	}
	g, err := sim.NewGame(log.Header.Setup, cfg.GameOptions(lib, nil))
	if err != nil {
		return Result{}, err
	}

	i := 0
	err = g.Run(ctx, len(log.Turns), func(report sim.TurnReport) error {
		got, err := json.Marshal(report)
		if err != nil {
			return err
		}
		if !bytes.Equal(got, log.Turns[i]) {
			return fmt.Errorf("%w: turn %d differs", ErrMismatch, report.Turn)
		}
		i++
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	if i != len(log.Turns) {
		return Result{}, fmt.Errorf("%w: game ended after %d turns, recording has %d", ErrMismatch, i, len(log.Turns))
	}
	if log.Footer != nil && log.Footer.Turns != i {
		return Result{}, fmt.Errorf("%w: footer claims %d turns, recording has %d", ErrMismatch, log.Footer.Turns, i)
	}

	slog.Info("replay verified", "game", g.ID(), "turns", i, "alive", g.Alive())
	return Result{GameID: g.ID(), Turns: i, Alive: g.Alive()}, nil
}
