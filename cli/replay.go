package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nstehr/dominion/dominion-core/replay"
)

func init() {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Work with replay files",
	}

	verify := &cobra.Command{
		Use:   "verify <file>...",
		Short: "Re-run recorded games and check every turn matches",
		Args:  cobra.MinimumNArgs(1),
		Run:   runReplayVerify,
	}

	cmd.AddCommand(verify)
	RootCmd.AddCommand(cmd)
}

func runReplayVerify(cmd *cobra.Command, args []string) {
	failed := 0
	for _, path := range args {
		res, err := verifyFile(cmd, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Printf("%s: game %s verified, %s turns, %d alive\n",
			path, res.GameID, humanize.Comma(int64(res.Turns)), res.Alive)
	}
	if failed > 0 {
		exitErr("verify", fmt.Errorf("%d of %d replays failed", failed, len(args)))
	}
}

func verifyFile(cmd *cobra.Command, path string) (replay.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return replay.Result{}, err
	}
	defer f.Close()
	return replay.Verify(cmd.Context(), f)
}
