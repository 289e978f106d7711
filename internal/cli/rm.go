package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm [memory-id]",
		Short: "Delete a memory and all its relationships",
		Long:  "Unconditional DETACH-style delete. Conflict records are the audit trail; snapshot first if you need one.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openService()
			if err != nil {
				exitErr("open service", err)
			}
			defer s.Close()

			existed, err := s.DeleteMemory(cmd.Context(), args[0])
			if err != nil {
				exitErr("rm", err)
			}
			printJSON(map[string]any{"id": args[0], "deleted": existed})
		},
	}
	RootCmd.AddCommand(cmd)
}
