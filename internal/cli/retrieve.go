package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/davidhsu/agentgraph/internal/model"
	"github.com/davidhsu/agentgraph/internal/retrieval"
)

func init() {
	cmd := &cobra.Command{
		Use:   "retrieve",
		Short: "Retrieve the memory context for an (agent type, project) pair",
		Long:  "Retrieve the ordered memory set visible to an agent type within a project. Memory is advisory: on failure this prints an empty context instead of failing.",
		Run:   runRetrieve,
	}

	cmd.Flags().StringP("agent", "a", "", "Agent type id (required)")
	cmd.Flags().StringP("project", "p", "", "Project id")
	cmd.Flags().String("type", "", "Filter by memory type")
	cmd.Flags().String("concept", "", "Filter by concept substring")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("include-archived", false, "Include the archived quality band")
	cmd.Flags().Bool("include-superseded", false, "Include superseded memories")

	cmd.MarkFlagRequired("agent")

	RootCmd.AddCommand(cmd)
}

func runRetrieve(cmd *cobra.Command, args []string) {
	agent, _ := cmd.Flags().GetString("agent")
	project, _ := cmd.Flags().GetString("project")
	memType, _ := cmd.Flags().GetString("type")
	concept, _ := cmd.Flags().GetString("concept")
	limit, _ := cmd.Flags().GetInt("limit")
	includeArchived, _ := cmd.Flags().GetBool("include-archived")
	includeSuperseded, _ := cmd.Flags().GetBool("include-superseded")

	s, err := openService()
	if err != nil {
		// Degrade gracefully: no memory context is never fatal to the
		// caller's larger workflow.
		fmt.Fprintf(os.Stderr, "warning: no memory context available: %v\n", err)
		printJSON([]retrieval.Result{})
		return
	}
	defer s.Close()

	results := s.RetrieveOrEmpty(cmd.Context(), retrieval.Query{
		AgentTypeID:       agent,
		ProjectID:         project,
		Type:              model.MemoryType(memType),
		Concept:           concept,
		Limit:             limit,
		IncludeArchived:   includeArchived,
		IncludeSuperseded: includeSuperseded,
	})
	if results == nil {
		results = []retrieval.Result{}
	}
	printJSON(results)
}
