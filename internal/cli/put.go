package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davidhsu/agentgraph/internal/core"
	"github.com/davidhsu/agentgraph/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "put [content]",
		Short: "Record a memory",
		Long:  "Record a memory. Content can be a positional arg or piped via stdin.",
		Run:   runPut,
	}

	cmd.Flags().StringP("agent", "a", "", "Agent type id (required)")
	cmd.Flags().StringP("project", "p", "", "Project id (omit for a global memory)")
	cmd.Flags().String("type", "conversational", "Memory type: conversational, pattern, task, preference")
	cmd.Flags().Float64("confidence", 0.5, "Agent-reported confidence [0,1]")
	cmd.Flags().Float64("specificity", 0.5, "Context specificity [0,1]")
	cmd.Flags().Float64("impact", 0.0, "Measured impact [0,1]")
	cmd.Flags().String("pattern-sig", "", "Normalized pattern signature (enables cross-project promotion)")
	cmd.Flags().StringArray("ref", nil, "External reference to link, as id=kind (repeatable)")

	cmd.MarkFlagRequired("agent")

	RootCmd.AddCommand(cmd)
}

func runPut(cmd *cobra.Command, args []string) {
	agent, _ := cmd.Flags().GetString("agent")
	project, _ := cmd.Flags().GetString("project")
	memType, _ := cmd.Flags().GetString("type")
	confidence, _ := cmd.Flags().GetFloat64("confidence")
	specificity, _ := cmd.Flags().GetFloat64("specificity")
	impact, _ := cmd.Flags().GetFloat64("impact")
	patternSig, _ := cmd.Flags().GetString("pattern-sig")
	refSpecs, _ := cmd.Flags().GetStringArray("ref")

	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = string(b)
		}
	}
	if strings.TrimSpace(content) == "" {
		exitErr("put", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	var refs []core.Ref
	for _, spec := range refSpecs {
		id, kind, _ := strings.Cut(spec, "=")
		if kind == "" {
			kind = "mentions"
		}
		refs = append(refs, core.Ref{ExternalID: id, Kind: kind})
	}

	s, err := openService()
	if err != nil {
		exitErr("open service", err)
	}
	defer s.Close()

	mem, conflict, err := s.CreateMemory(cmd.Context(), core.CreateMemoryParams{
		Content:     strings.TrimSpace(content),
		Type:        model.MemoryType(memType),
		AgentTypeID: agent,
		ProjectID:   project,
		Confidence:  confidence,
		Specificity: specificity,
		Impact:      impact,
		PatternSig:  patternSig,
		Refs:        refs,
	})
	if err != nil {
		exitErr("put", err)
	}

	out := map[string]any{"memory": mem}
	if conflict != nil {
		out["conflict"] = conflict
	}
	printJSON(out)
}
