package cli

import (
	"github.com/spf13/cobra"

	"github.com/davidhsu/agentgraph/internal/model"
	"github.com/davidhsu/agentgraph/internal/repo"
)

func init() {
	episodeCmd := &cobra.Command{
		Use:   "episode",
		Short: "Record and resolve episodes",
	}

	addCmd := &cobra.Command{
		Use:   "add [rationale]",
		Short: "Append an episode",
		Args:  cobra.MinimumNArgs(1),
		Run:   runEpisodeAdd,
	}
	addCmd.Flags().StringP("agent", "a", "", "Agent type id (required)")
	addCmd.Flags().StringP("project", "p", "", "Project id")
	addCmd.Flags().String("kind", "decision", "Kind: decision, error, resolution, code_change")
	addCmd.Flags().String("outcome", "", "Outcome: success or failure")
	addCmd.MarkFlagRequired("agent")

	resolveCmd := &cobra.Command{
		Use:   "resolve [episode-id]",
		Short: "Attach a resolution outcome to an episode",
		Args:  cobra.ExactArgs(1),
		Run:   runEpisodeResolve,
	}
	resolveCmd.Flags().String("outcome", "success", "Outcome: success or failure")
	resolveCmd.Flags().String("resolution", "", "Resolution text")

	episodeCmd.AddCommand(addCmd, resolveCmd)
	RootCmd.AddCommand(episodeCmd)
}

func runEpisodeAdd(cmd *cobra.Command, args []string) {
	agent, _ := cmd.Flags().GetString("agent")
	project, _ := cmd.Flags().GetString("project")
	kind, _ := cmd.Flags().GetString("kind")
	outcome, _ := cmd.Flags().GetString("outcome")

	s, err := openService()
	if err != nil {
		exitErr("open service", err)
	}
	defer s.Close()

	ep, err := s.Repo.CreateEpisode(cmd.Context(), repo.EpisodeParams{
		AgentTypeID: agent,
		ProjectID:   project,
		Kind:        model.EpisodeKind(kind),
		Outcome:     outcome,
		Rationale:   args[0],
	})
	if err != nil {
		exitErr("episode add", err)
	}
	printJSON(ep)
}

func runEpisodeResolve(cmd *cobra.Command, args []string) {
	outcome, _ := cmd.Flags().GetString("outcome")
	resolution, _ := cmd.Flags().GetString("resolution")

	s, err := openService()
	if err != nil {
		exitErr("open service", err)
	}
	defer s.Close()

	if err := s.Repo.AttachResolution(cmd.Context(), args[0], outcome, resolution); err != nil {
		exitErr("episode resolve", err)
	}
	ep, err := s.Repo.GetEpisode(cmd.Context(), args[0])
	if err != nil {
		exitErr("episode resolve", err)
	}
	printJSON(ep)
}
