package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "games",
		Short: "List archived games",
		Run:   runListGames,
	}

	RootCmd.AddCommand(cmd)
}

func runListGames(cmd *cobra.Command, args []string) {
	a, err := openArchive()
	if err != nil {
		exitErr("open archive", err)
	}
	defer a.Close()

	games, err := a.Games(cmd.Context())
	if err != nil {
		exitErr("list games", err)
	}
	for _, g := range games {
		created := g.CreatedAt
		if t, err := time.Parse(time.RFC3339, g.CreatedAt); err == nil {
			created = humanize.Time(t)
		}
		fmt.Printf("%s  seed=%d  turns=%s  alive=%d  %s\n",
			g.ID, g.Seed, humanize.Comma(int64(g.Turns)), g.Alive, created)
	}
}
