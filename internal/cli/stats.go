package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/davidhsu/agentgraph/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show graph counts and quality band distribution",
		Run:   runStats,
	}
	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, err := openService()
	if err != nil {
		exitErr("open service", err)
	}
	defer s.Close()
	ctx := cmd.Context()

	counts := map[string]int{}
	for _, label := range []string{
		model.LabelAgentType, model.LabelProject, model.LabelMemory,
		model.LabelEpisode, model.LabelKnowledgeFact, model.LabelCodeElement,
		model.LabelConflict,
	} {
		n, err := s.Repo.Graph().CountNodes(ctx, label)
		if err != nil {
			exitErr("stats", err)
		}
		counts[label] = n
	}

	bands := map[string]int{}
	var global, scoped, superseded int
	nodes, err := s.Repo.Graph().NodesByLabel(ctx, model.LabelMemory)
	if err != nil {
		exitErr("stats", err)
	}
	now := time.Now().UTC()
	for _, n := range nodes {
		m, err := s.Repo.Get(ctx, n.ID)
		if err != nil {
			exitErr("stats", err)
		}
		bands[string(s.Scorer.Band(s.Scorer.Score(m, now)))]++
		if m.Global() {
			global++
		} else {
			scoped++
		}
		if m.Status == model.StatusSuperseded {
			superseded++
		}
	}

	printJSON(map[string]any{
		"nodes":      counts,
		"bands":      bands,
		"global":     global,
		"scoped":     scoped,
		"superseded": superseded,
	})
}
