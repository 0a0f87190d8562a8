package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nstehr/dominion/dominion-core/agent"
	"github.com/nstehr/dominion/dominion-core/config"
	"github.com/nstehr/dominion/dominion-core/entropy"
	"github.com/nstehr/dominion/dominion-core/model"
	"github.com/nstehr/dominion/dominion-core/persistence"
	"github.com/nstehr/dominion/dominion-core/replay"
	"github.com/nstehr/dominion/dominion-core/sim"
)

func init() {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run bot-only games",
		Long: `Run one or more bot-only games. Each game gets its own seed forked from
--seed, so the same flags always produce the same games.`,
		Run: runSimulate,
	}

	cmd.Flags().Int64("seed", 0, "Master seed (default: current time)")
	cmd.Flags().IntP("turns", "t", 100, "Turns per game")
	cmd.Flags().IntP("games", "g", 1, "Number of games")
	cmd.Flags().IntP("parallel", "p", runtime.GOMAXPROCS(0), "Games run at once")
	cmd.Flags().StringSliceP("empires", "e", nil, "Roster as archetype or id=archetype (default: one of each archetype)")
	cmd.Flags().Int("cols", 8, "Galaxy columns")
	cmd.Flags().Int("rows", 8, "Galaxy rows")
	cmd.Flags().String("replay-dir", "", "Write a replay file per game into this directory")
	cmd.Flags().Bool("no-archive", false, "Do not archive games in the database")
	cmd.Flags().Bool("metrics", false, "Print simulation counters when done")

	RootCmd.AddCommand(cmd)
}

// sinks receive every turn of a game. Nil fields are skipped.
type sinks struct {
	archive   *persistence.Archive
	replayDir string
	metrics   *sim.Metrics
}

type gameResult struct {
	ID       string
	Seed     int64
	Turns    int
	Alive    int
	Winner   model.EmpireID
	Memories int
	Combats  int
	Captures int
}

func runSimulate(cmd *cobra.Command, args []string) {
	seed, _ := cmd.Flags().GetInt64("seed")
	turns, _ := cmd.Flags().GetInt("turns")
	games, _ := cmd.Flags().GetInt("games")
	parallel, _ := cmd.Flags().GetInt("parallel")
	entries, _ := cmd.Flags().GetStringSlice("empires")
	cols, _ := cmd.Flags().GetInt("cols")
	rows, _ := cmd.Flags().GetInt("rows")
	replayDir, _ := cmd.Flags().GetString("replay-dir")
	noArchive, _ := cmd.Flags().GetBool("no-archive")
	showMetrics, _ := cmd.Flags().GetBool("metrics")

	if turns < 1 || games < 1 {
		exitErr("simulate", fmt.Errorf("--turns and --games must be positive"))
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	lib, err := cfg.Library()
	if err != nil {
		exitErr("compile archetypes", err)
	}
	roster, err := parseRoster(entries)
	if err != nil {
		exitErr("roster", err)
	}

	reg := prometheus.NewRegistry()
	metrics, err := sim.NewMetrics("dominion", reg)
	if err != nil {
		exitErr("metrics", err)
	}
	out := sinks{replayDir: replayDir, metrics: metrics}
	if !noArchive {
		a, err := openArchive()
		if err != nil {
			exitErr("open archive", err)
		}
		defer a.Close()
		out.archive = a
	}
	if replayDir != "" {
		if err := os.MkdirAll(replayDir, 0o755); err != nil {
			exitErr("replay dir", err)
		}
	}

	setups, err := newSetups(seed, games, roster, cols, rows)
	if err != nil {
		exitErr("setup", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	start := time.Now()
	results, err := runGames(ctx, cfg, lib, setups, turns, parallel, out)
	if err != nil {
		exitErr("simulate", err)
	}
	printResults(results, time.Since(start))

	if showMetrics {
		printMetrics(reg)
	}
}

// newSetups forks one seed per game from the master seed.
func newSetups(seed int64, games int, roster []rosterEntry, cols, rows int) ([]sim.Setup, error) {
	master := entropy.NewSeeded(seed)
	setups := make([]sim.Setup, games)
	for i := range setups {
		s, err := newSetup(uuid.NewString(), master.Fork().Seed(), roster, cols, rows)
		if err != nil {
			return nil, err
		}
		setups[i] = s
	}
	return setups, nil
}

// runGames plays every setup, at most parallel at a time. The first failure
// cancels the rest.
func runGames(ctx context.Context, cfg config.Config, lib *agent.Library, setups []sim.Setup, turns, parallel int, out sinks) ([]gameResult, error) {
	results := make([]gameResult, len(setups))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallel, 1))
	for i, setup := range setups {
		g.Go(func() error {
			r, err := runGame(ctx, cfg, lib, setup, turns, out)
			if err != nil {
				return fmt.Errorf("game %s: %w", setup.ID, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runGame(ctx context.Context, cfg config.Config, lib *agent.Library, setup sim.Setup, turns int, out sinks) (gameResult, error) {
	game, err := sim.NewGame(setup, cfg.GameOptions(lib, out.metrics))
	if err != nil {
		return gameResult{}, err
	}
	res := gameResult{ID: game.ID(), Seed: setup.Seed}

	var w *replay.Writer
	if out.replayDir != "" {
		f, err := os.Create(filepath.Join(out.replayDir, game.ID()+".replay"))
		if err != nil {
			return gameResult{}, err
		}
		defer f.Close()
		w, err = replay.NewWriter(f, replay.Header{Setup: setup, Config: cfg})
		if err != nil {
			return gameResult{}, err
		}
	}
	if out.archive != nil {
		if err := out.archive.CreateGame(ctx, setup, cfg); err != nil {
			return gameResult{}, err
		}
	}

	err = game.Run(ctx, turns, func(r sim.TurnReport) error {
		res.Turns++
		res.Memories += len(r.NewMemories)
		res.Combats += len(r.Outcomes)
		for _, o := range r.Outcomes {
			if o.TerritoryTransferred {
				res.Captures++
			}
		}
		if w != nil {
			if err := w.Turn(r); err != nil {
				return err
			}
		}
		if out.archive != nil {
			return out.archive.SaveTurn(ctx, r)
		}
		return nil
	})
	if err != nil {
		return gameResult{}, err
	}
	if w != nil {
		if err := w.Close(game.Alive()); err != nil {
			return gameResult{}, err
		}
	}

	res.Alive = game.Alive()
	if res.Alive == 1 {
		for _, e := range game.Empires() {
			if !e.Eliminated {
				res.Winner = e.ID
			}
		}
	}
	return res, nil
}

func printResults(results []gameResult, elapsed time.Duration) {
	var turns, memories int
	for _, r := range results {
		winner := "none"
		if r.Winner != "" {
			winner = string(r.Winner)
		}
		fmt.Printf("%s  seed=%d  turns=%s  combats=%s  captures=%s  memories=%s  alive=%d  winner=%s\n",
			r.ID, r.Seed,
			humanize.Comma(int64(r.Turns)),
			humanize.Comma(int64(r.Combats)),
			humanize.Comma(int64(r.Captures)),
			humanize.Comma(int64(r.Memories)),
			r.Alive, winner,
		)
		turns += r.Turns
		memories += r.Memories
	}
	fmt.Printf("%s %s, %s turns, %s memories in %s\n",
		humanize.Comma(int64(len(results))), plural(len(results), "game", "games"),
		humanize.Comma(int64(turns)), humanize.Comma(int64(memories)),
		elapsed.Round(time.Millisecond),
	)
}

func printMetrics(reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		exitErr("gather metrics", err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			v := m.GetCounter().GetValue()
			if v == 0 {
				continue
			}
			labels := ""
			for _, lp := range m.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", lp.GetName(), lp.GetValue())
			}
			fmt.Printf("%-40s%s %s\n", mf.GetName(), labels, humanize.Commaf(v))
		}
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
