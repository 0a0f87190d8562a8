package cli

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nstehr/dominion/dominion-core/config"
	"github.com/nstehr/dominion/dominion-core/model"
	"github.com/nstehr/dominion/dominion-core/persistence"
	"github.com/nstehr/dominion/dominion-core/relation"
)

func init() {
	cmd := &cobra.Command{
		Use:   "relations <game-id>",
		Short: "Show how every empire in an archived game feels about the others",
		Args:  cobra.ExactArgs(1),
		Run:   runRelations,
	}

	cmd.Flags().String("holder", "", "Only show this empire's view")
	cmd.Flags().Int("turn", 0, "Score as of this turn (default: the turn after the last archived one)")
	cmd.Flags().Bool("memories", false, "Print each relationship's top memories")

	RootCmd.AddCommand(cmd)
}

// relationLine is one holder's view of one target.
type relationLine struct {
	Holder  model.EmpireID
	Target  model.EmpireID
	Turn    int
	Summary relation.Summary
}

func runRelations(cmd *cobra.Command, args []string) {
	holder, _ := cmd.Flags().GetString("holder")
	turn, _ := cmd.Flags().GetInt("turn")
	showMemories, _ := cmd.Flags().GetBool("memories")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	a, err := openArchive()
	if err != nil {
		exitErr("open archive", err)
	}
	defer a.Close()

	lines, err := archivedRelations(cmd.Context(), a, cfg, args[0], model.EmpireID(holder), turn)
	if err != nil {
		exitErr("relations", err)
	}
	for _, l := range lines {
		s := l.Summary
		grudge := ""
		if s.HasPermanentGrudge {
			grudge = "  grudge"
		}
		fmt.Printf("%-14s -> %-14s %-10s %8s%s\n",
			l.Holder, l.Target, s.Tier, humanize.FtoaWithDigits(s.NetScore, 1), grudge)
		if !showMemories {
			continue
		}
		for _, r := range s.TopMemories {
			fmt.Printf("    turn %-5d %-22s %7s\n",
				r.TurnRecorded, r.Event, humanize.FtoaWithDigits(r.SignedWeight(l.Turn), 1))
		}
	}
}

// archivedRelations restores a game's memory store and summarizes every
// relationship in it, holders and targets in ID order.
func archivedRelations(ctx context.Context, a *persistence.Archive, cfg config.Config, gameID string, holder model.EmpireID, turn int) ([]relationLine, error) {
	if turn <= 0 {
		g, err := a.Game(ctx, gameID)
		if err != nil {
			return nil, err
		}
		turn = g.Turns + 1
	}
	store, err := a.LoadStore(ctx, gameID, cfg.Memory)
	if err != nil {
		return nil, err
	}

	var out []relationLine
	for _, h := range store.Holders() {
		if holder != "" && h != holder {
			continue
		}
		for _, t := range store.Targets(h) {
			out = append(out, relationLine{
				Holder:  h,
				Target:  t,
				Turn:    turn,
				Summary: relation.SummarizeTop(store.Records(h, t), turn, cfg.Decision.TopMemories),
			})
		}
	}
	return out, nil
}
