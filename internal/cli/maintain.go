package cli

import (
	"github.com/spf13/cobra"
)

// Maintenance passes, run on a schedule by the embedding process.

func init() {
	promoteCmd := &cobra.Command{
		Use:   "promote",
		Short: "Promote cross-project patterns to global scope",
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openService()
			if err != nil {
				exitErr("open service", err)
			}
			defer s.Close()

			promoted, err := s.Bridge.PromoteCrossProject(cmd.Context())
			if err != nil {
				exitErr("promote", err)
			}
			printJSON(map[string]any{"promoted": promoted})
		},
	}

	decayCmd := &cobra.Command{
		Use:   "decay",
		Short: "Recompute all quality scores with current recency",
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openService()
			if err != nil {
				exitErr("open service", err)
			}
			defer s.Close()

			n, err := s.DecayPass(cmd.Context())
			if err != nil {
				exitErr("decay", err)
			}
			printJSON(map[string]int{"rescored": n})
		},
	}

	RootCmd.AddCommand(promoteCmd, decayCmd)
}
