package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "link [memory-id] [external-id]",
		Short: "Link a memory to a code element or knowledge fact",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			kind, _ := cmd.Flags().GetString("kind")

			s, err := openService()
			if err != nil {
				exitErr("open service", err)
			}
			defer s.Close()

			if err := s.Bridge.Link(cmd.Context(), args[0], args[1], kind); err != nil {
				exitErr("link", err)
			}
			printJSON(map[string]string{"from": args[0], "to": args[1], "kind": kind})
		},
	}
	cmd.Flags().String("kind", "mentions", "Relation kind, e.g. mentions, implements, learned_from")
	RootCmd.AddCommand(cmd)
}
