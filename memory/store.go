package memory

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/nstehr/dominion/dominion-core/entropy"
	"github.com/nstehr/dominion/dominion-core/model"
)

type pair struct {
	holder model.EmpireID
	target model.EmpireID
}

// Store is the append-only memory log of one game. It is not safe for
// concurrent use; a game processes its turns on a single goroutine.
type Store struct {
	cfg     Config
	records map[pair][]Record
}

func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg, records: make(map[pair][]Record)}
}

func (s *Store) Config() Config { return s.cfg }

// Record appends a memory held by holder about target. Eligible negative
// events consume one draw from src for the scar roll; the record ID consumes
// entropy from src as well.
func (s *Store) Record(holder, target model.EmpireID, event EventType, turn int, src entropy.Source) (Record, error) {
	spec, err := LookupEvent(event)
	if err != nil {
		return Record{}, err
	}
	if holder == target {
		return Record{}, fmt.Errorf("record %s: holder and target are both %s", event, holder)
	}
	turn = max(turn, 0)

	rec := Record{
		Holder:         holder,
		Target:         target,
		Event:          event,
		OriginalWeight: spec.Weight,
		TurnRecorded:   turn,
		Resistance:     spec.Resistance,
		Polarity:       spec.Polarity,
	}
	if spec.Polarity == Negative && spec.Weight >= s.cfg.ScarThreshold {
		rec.PermanentScar = src.Float64() < s.cfg.ScarChance
	}

	id, err := ulid.New(uint64(turn), src)
	if err != nil {
		return Record{}, fmt.Errorf("record %s: generate id: %w", event, err)
	}
	rec.ID = id.String()

	k := pair{holder, target}
	s.records[k] = append(s.records[k], rec)

	if rec.PermanentScar {
		slog.Debug("permanent scar", "holder", holder, "target", target, "event", event, "turn", turn)
	}
	return rec, nil
}

// Load adds records produced elsewhere, such as a saved game. Records with
// unknown events are rejected and nothing is added.
func (s *Store) Load(records ...Record) error {
	for _, r := range records {
		if _, err := LookupEvent(r.Event); err != nil {
			return fmt.Errorf("load record %s: %w", r.ID, err)
		}
	}
	for _, r := range records {
		k := pair{r.Holder, r.Target}
		s.records[k] = append(s.records[k], r)
	}
	return nil
}

// Records returns holder's memories of target in recording order.
func (s *Store) Records(holder, target model.EmpireID) []Record {
	return slices.Clone(s.records[pair{holder, target}])
}

// Holders lists every empire holding at least one memory, sorted.
func (s *Store) Holders() []model.EmpireID {
	var out []model.EmpireID
	for k := range s.records {
		if len(s.records[k]) > 0 && !slices.Contains(out, k.holder) {
			out = append(out, k.holder)
		}
	}
	slices.Sort(out)
	return out
}

// Targets lists the empires holder remembers, sorted.
func (s *Store) Targets(holder model.EmpireID) []model.EmpireID {
	var out []model.EmpireID
	for k, recs := range s.records {
		if k.holder == holder && len(recs) > 0 {
			out = append(out, k.target)
		}
	}
	slices.Sort(out)
	return out
}

// All returns every record ordered by holder, target, turn and ID.
func (s *Store) All() []Record {
	var out []Record
	for _, recs := range s.records {
		out = append(out, recs...)
	}
	slices.SortFunc(out, compareRecords)
	return out
}

func (s *Store) Len() int {
	n := 0
	for _, recs := range s.records {
		n += len(recs)
	}
	return n
}

// Prune deletes records whose decayed weight at currentTurn is below the
// prune threshold. Scars are never pruned. The removed records are returned
// in All order.
func (s *Store) Prune(currentTurn int) []Record {
	var pruned []Record
	for k, recs := range s.records {
		kept := recs[:0]
		for _, r := range recs {
			if !r.PermanentScar && r.DecayedWeight(currentTurn) < s.cfg.PruneThreshold {
				pruned = append(pruned, r)
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == 0 {
			delete(s.records, k)
			continue
		}
		s.records[k] = kept
	}
	slices.SortFunc(pruned, compareRecords)
	return pruned
}

func compareRecords(a, b Record) int {
	if c := strings.Compare(string(a.Holder), string(b.Holder)); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.Target), string(b.Target)); c != 0 {
		return c
	}
	if a.TurnRecorded != b.TurnRecorded {
		return a.TurnRecorded - b.TurnRecorded
	}
	return strings.Compare(a.ID, b.ID)
}
