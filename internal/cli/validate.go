package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "validate [memory-id]",
		Short: "Record use feedback for a memory",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			success, _ := cmd.Flags().GetBool("success")
			feedback, _ := cmd.Flags().GetFloat64("feedback")

			s, err := openService()
			if err != nil {
				exitErr("open service", err)
			}
			defer s.Close()

			if err := s.RecordValidation(cmd.Context(), args[0], success, feedback); err != nil {
				exitErr("validate", err)
			}
			mem, err := s.Repo.Get(cmd.Context(), args[0])
			if err != nil {
				exitErr("validate", err)
			}
			printJSON(mem)
		},
	}
	cmd.Flags().Bool("success", true, "Whether the memory led to a good outcome")
	cmd.Flags().Float64("feedback", 1.0, "Feedback score [0,1]")
	RootCmd.AddCommand(cmd)
}
