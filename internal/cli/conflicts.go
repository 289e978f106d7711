package cli

import (
	"github.com/spf13/cobra"

	"github.com/davidhsu/agentgraph/internal/model"
)

func init() {
	conflictsCmd := &cobra.Command{
		Use:   "conflicts",
		Short: "Inspect and resolve conflicts",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List conflict records",
		Run:   runConflictsList,
	}
	listCmd.Flags().String("status", "", "Filter: open, escalated, archived (escalated is the human-review queue)")

	resolveCmd := &cobra.Command{
		Use:   "resolve [conflict-id]",
		Short: "Record a human decision for an escalated conflict",
		Args:  cobra.ExactArgs(1),
		Run:   runConflictsResolve,
	}
	resolveCmd.Flags().String("winner", "", "Memory id that wins (required)")
	resolveCmd.Flags().String("note", "", "Reviewer note")
	resolveCmd.MarkFlagRequired("winner")

	conflictsCmd.AddCommand(listCmd, resolveCmd)
	RootCmd.AddCommand(conflictsCmd)
}

func runConflictsList(cmd *cobra.Command, args []string) {
	status, _ := cmd.Flags().GetString("status")

	s, err := openService()
	if err != nil {
		exitErr("open service", err)
	}
	defer s.Close()

	list, err := s.Conflicts.List(cmd.Context(), model.ConflictStatus(status))
	if err != nil {
		exitErr("conflicts list", err)
	}
	if list == nil {
		list = []model.Conflict{}
	}
	printJSON(list)
}

func runConflictsResolve(cmd *cobra.Command, args []string) {
	winner, _ := cmd.Flags().GetString("winner")
	note, _ := cmd.Flags().GetString("note")

	s, err := openService()
	if err != nil {
		exitErr("open service", err)
	}
	defer s.Close()

	c, err := s.Conflicts.RecordHumanDecision(cmd.Context(), s.Repo, args[0], winner, note)
	if err != nil {
		exitErr("conflicts resolve", err)
	}
	printJSON(c)
}
