// Package persistence archives finished and running games in SQLite: the
// setup each game started from, a summary of every turn, and every memory
// record so relationships can be inspected or restored later.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nstehr/dominion/dominion-core/memory"
	"github.com/nstehr/dominion/dominion-core/model"
	"github.com/nstehr/dominion/dominion-core/sim"
)

var ErrGameNotFound = errors.New("game not found")

// Archive wraps a SQLite connection holding archived games.
type Archive struct {
	conn *sqlx.DB
}

// Open opens or creates an archive at path.
func Open(path string) (*Archive, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer at a time; concurrent games serialize their turn writes here.
	conn.SetMaxOpenConns(1)

	a := &Archive{conn: conn}
	if err := a.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return a, nil
}

func (a *Archive) Close() error {
	return a.conn.Close()
}

func (a *Archive) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		setup_json TEXT NOT NULL,
		config_json TEXT NOT NULL,
		turns INTEGER NOT NULL DEFAULT 0,
		alive INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS turns (
		game_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		actions INTEGER NOT NULL,
		combats INTEGER NOT NULL,
		captures INTEGER NOT NULL,
		rejected INTEGER NOT NULL,
		memories INTEGER NOT NULL,
		pruned INTEGER NOT NULL,
		report_json TEXT NOT NULL,
		PRIMARY KEY (game_id, turn)
	);

	CREATE TABLE IF NOT EXISTS memory_records (
		id TEXT NOT NULL,
		game_id TEXT NOT NULL,
		holder TEXT NOT NULL,
		target TEXT NOT NULL,
		event TEXT NOT NULL,
		original_weight REAL NOT NULL,
		turn_recorded INTEGER NOT NULL,
		resistance TEXT NOT NULL,
		polarity INTEGER NOT NULL,
		permanent_scar INTEGER NOT NULL,
		pruned_turn INTEGER,
		PRIMARY KEY (game_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_memory_pair ON memory_records(game_id, holder, target);
	`
	_, err := a.conn.Exec(schema)
	return err
}

// GameRow is one archived game.
type GameRow struct {
	ID        string `db:"id"`
	Seed      int64  `db:"seed"`
	CreatedAt string `db:"created_at"`
	Setup     string `db:"setup_json"`
	Config    string `db:"config_json"`
	Turns     int    `db:"turns"`
	Alive     int    `db:"alive"`
}

// TurnRow summarizes one processed turn.
type TurnRow struct {
	GameID   string `db:"game_id"`
	Turn     int    `db:"turn"`
	Actions  int    `db:"actions"`
	Combats  int    `db:"combats"`
	Captures int    `db:"captures"`
	Rejected int    `db:"rejected"`
	Memories int    `db:"memories"`
	Pruned   int    `db:"pruned"`
	Report   string `db:"report_json"`
}

type recordRow struct {
	ID             string        `db:"id"`
	GameID         string        `db:"game_id"`
	Holder         string        `db:"holder"`
	Target         string        `db:"target"`
	Event          string        `db:"event"`
	OriginalWeight float64       `db:"original_weight"`
	TurnRecorded   int           `db:"turn_recorded"`
	Resistance     string        `db:"resistance"`
	Polarity       int           `db:"polarity"`
	PermanentScar  bool          `db:"permanent_scar"`
	PrunedTurn     sql.NullInt64 `db:"pruned_turn"`
}

func toRow(gameID string, r memory.Record) recordRow {
	return recordRow{
		ID:             r.ID,
		GameID:         gameID,
		Holder:         string(r.Holder),
		Target:         string(r.Target),
		Event:          r.Event.String(),
		OriginalWeight: r.OriginalWeight,
		TurnRecorded:   r.TurnRecorded,
		Resistance:     r.Resistance.String(),
		Polarity:       int(r.Polarity),
		PermanentScar:  r.PermanentScar,
	}
}

func (row recordRow) record() (memory.Record, error) {
	event, err := memory.ParseEventType(row.Event)
	if err != nil {
		return memory.Record{}, fmt.Errorf("record %s: %w", row.ID, err)
	}
	res, ok := memory.ParseResistance(row.Resistance)
	if !ok {
		return memory.Record{}, fmt.Errorf("record %s: unknown resistance %q", row.ID, row.Resistance)
	}
	return memory.Record{
		ID:             row.ID,
		Holder:         model.EmpireID(row.Holder),
		Target:         model.EmpireID(row.Target),
		Event:          event,
		OriginalWeight: row.OriginalWeight,
		TurnRecorded:   row.TurnRecorded,
		Resistance:     res,
		Polarity:       memory.Polarity(row.Polarity),
		PermanentScar:  row.PermanentScar,
	}, nil
}

// CreateGame archives a new game's starting point and the configuration it
// runs under. Memories the setup starts with are archived too.
func (a *Archive) CreateGame(ctx context.Context, setup sim.Setup, cfg any) error {
	setupJSON, err := json.Marshal(setup)
	if err != nil {
		return fmt.Errorf("marshal setup: %w", err)
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tx, err := a.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	alive := 0
	for _, e := range setup.Empires {
		if !e.Eliminated {
			alive++
		}
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO games (id, seed, created_at, setup_json, config_json, turns, alive)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		setup.ID, setup.Seed, time.Now().UTC().Format(time.RFC3339), string(setupJSON), string(cfgJSON), alive,
	)
	if err != nil {
		return fmt.Errorf("insert game %s: %w", setup.ID, err)
	}
	if err := insertRecords(ctx, tx, setup.ID, setup.Memories); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveTurn archives one turn report: its summary, the memories it created,
// and which memories it pruned.
func (a *Archive) SaveTurn(ctx context.Context, r sim.TurnReport) error {
	reportJSON, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	captures := 0
	for _, o := range r.Outcomes {
		if o.TerritoryTransferred {
			captures++
		}
	}
	alive := 0
	for _, e := range r.Empires {
		if !e.Eliminated {
			alive++
		}
	}

	tx, err := a.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `INSERT OR REPLACE INTO turns
		(game_id, turn, actions, combats, captures, rejected, memories, pruned, report_json)
		VALUES (:game_id, :turn, :actions, :combats, :captures, :rejected, :memories, :pruned, :report_json)`,
		TurnRow{
			GameID:   r.GameID,
			Turn:     r.Turn,
			Actions:  len(r.Actions),
			Combats:  len(r.Outcomes),
			Captures: captures,
			Rejected: len(r.Rejected),
			Memories: len(r.NewMemories),
			Pruned:   len(r.Pruned),
			Report:   string(reportJSON),
		})
	if err != nil {
		return fmt.Errorf("insert turn %d: %w", r.Turn, err)
	}

	if err := insertRecords(ctx, tx, r.GameID, r.NewMemories); err != nil {
		return err
	}
	for _, p := range r.Pruned {
		if _, err := tx.ExecContext(ctx,
			"UPDATE memory_records SET pruned_turn = ? WHERE game_id = ? AND id = ?",
			r.Turn, r.GameID, p.ID,
		); err != nil {
			return fmt.Errorf("mark pruned %s: %w", p.ID, err)
		}
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE games SET turns = MAX(turns, ?), alive = ? WHERE id = ?",
		r.Turn, alive, r.GameID,
	)
	if err != nil {
		return fmt.Errorf("update game %s: %w", r.GameID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrGameNotFound, r.GameID)
	}
	return tx.Commit()
}

func insertRecords(ctx context.Context, tx *sqlx.Tx, gameID string, records []memory.Record) error {
	for _, r := range records {
		_, err := tx.NamedExecContext(ctx, `INSERT OR IGNORE INTO memory_records
			(id, game_id, holder, target, event, original_weight, turn_recorded, resistance, polarity, permanent_scar)
			VALUES (:id, :game_id, :holder, :target, :event, :original_weight, :turn_recorded, :resistance, :polarity, :permanent_scar)`,
			toRow(gameID, r))
		if err != nil {
			return fmt.Errorf("insert record %s: %w", r.ID, err)
		}
	}
	return nil
}

// Game returns one archived game.
func (a *Archive) Game(ctx context.Context, id string) (GameRow, error) {
	var g GameRow
	err := a.conn.GetContext(ctx, &g, "SELECT * FROM games WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return GameRow{}, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return g, err
}

// Games lists archived games, newest first.
func (a *Archive) Games(ctx context.Context) ([]GameRow, error) {
	var games []GameRow
	err := a.conn.SelectContext(ctx, &games, "SELECT * FROM games ORDER BY created_at DESC, id")
	return games, err
}

// Turns lists a game's turn summaries in turn order.
func (a *Archive) Turns(ctx context.Context, gameID string) ([]TurnRow, error) {
	var turns []TurnRow
	err := a.conn.SelectContext(ctx, &turns, "SELECT * FROM turns WHERE game_id = ? ORDER BY turn", gameID)
	return turns, err
}

// Memories returns a game's memory records ordered by holder, target, turn and
// ID. Pruned records are skipped unless includePruned is set.
func (a *Archive) Memories(ctx context.Context, gameID string, includePruned bool) ([]memory.Record, error) {
	query := "SELECT * FROM memory_records WHERE game_id = ?"
	if !includePruned {
		query += " AND pruned_turn IS NULL"
	}
	query += " ORDER BY holder, target, turn_recorded, id"

	var rows []recordRow
	if err := a.conn.SelectContext(ctx, &rows, query, gameID); err != nil {
		return nil, err
	}
	out := make([]memory.Record, 0, len(rows))
	for _, row := range rows {
		r, err := row.record()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// LoadStore rebuilds a game's live memory store from the archive.
func (a *Archive) LoadStore(ctx context.Context, gameID string, cfg memory.Config) (*memory.Store, error) {
	if _, err := a.Game(ctx, gameID); err != nil {
		return nil, err
	}
	records, err := a.Memories(ctx, gameID, false)
	if err != nil {
		return nil, err
	}
	s := memory.NewStore(cfg)
	if err := s.Load(records...); err != nil {
		return nil, err
	}
	slog.Debug("memory store restored", "game", gameID, "records", len(records))
	return s, nil
}
