package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "archetypes",
		Short: "Show archetype profiles and their compiled rules",
		Run:   runArchetypes,
	}

	cmd.Flags().Bool("rules", false, "List compiled rules instead of profiles")

	RootCmd.AddCommand(cmd)
}

func runArchetypes(cmd *cobra.Command, args []string) {
	showRules, _ := cmd.Flags().GetBool("rules")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	lib, err := cfg.Library()
	if err != nil {
		exitErr("compile archetypes", err)
	}

	if !showRules {
		b, _ := json.MarshalIndent(lib.Table().Profiles(), "", "  ")
		fmt.Println(string(b))
		return
	}

	for _, p := range lib.Table().Profiles() {
		engine, err := lib.Engine(p.ID)
		if err != nil {
			exitErr("engine", err)
		}
		fmt.Printf("%s (%s)\n", p.ID, p.Style)
		for _, r := range engine.Rules() {
			fmt.Printf("  %4d  %-10s %-28s %s\n", r.Priority, r.Category, r.Name, r.ConditionSrc)
		}
	}
}
