package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get [memory-id]",
		Short: "Fetch a memory by id",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openService()
			if err != nil {
				exitErr("open service", err)
			}
			defer s.Close()

			mem, err := s.Repo.Get(cmd.Context(), args[0])
			if err != nil {
				exitErr("get", err)
			}
			printJSON(mem)
		},
	}
	RootCmd.AddCommand(cmd)
}
