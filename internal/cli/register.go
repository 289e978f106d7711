package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	agentCmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage agent types",
	}
	agentCmd.AddCommand(&cobra.Command{
		Use:   "register [id]",
		Short: "Register an agent type (idempotent)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openService()
			if err != nil {
				exitErr("open service", err)
			}
			defer s.Close()
			if err := s.Repo.RegisterAgentType(cmd.Context(), args[0]); err != nil {
				exitErr("register agent type", err)
			}
			printJSON(map[string]string{"agent_type": args[0], "status": "registered"})
		},
	})

	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	projectCmd.AddCommand(&cobra.Command{
		Use:   "register [id]",
		Short: "Register a project (idempotent; refreshes last-active)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			s, err := openService()
			if err != nil {
				exitErr("open service", err)
			}
			defer s.Close()
			if err := s.Repo.RegisterProject(cmd.Context(), args[0]); err != nil {
				exitErr("register project", err)
			}
			printJSON(map[string]string{"project": args[0], "status": "registered"})
		},
	})

	RootCmd.AddCommand(agentCmd, projectCmd)
}
