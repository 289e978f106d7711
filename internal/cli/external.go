package cli

import (
	"github.com/spf13/cobra"

	"github.com/davidhsu/agentgraph/internal/model"
)

// Commands on externally-produced nodes: knowledge facts from the
// extraction pipeline and code elements from the structure extractor.

func init() {
	factCmd := &cobra.Command{
		Use:   "fact",
		Short: "Ingest knowledge facts",
	}
	factAdd := &cobra.Command{
		Use:   "add",
		Short: "Ingest a (subject, predicate, object) triple",
		Run:   runFactAdd,
	}
	factAdd.Flags().String("subject", "", "Subject (required)")
	factAdd.Flags().String("predicate", "", "Predicate (required)")
	factAdd.Flags().String("object", "", "Object (required)")
	factAdd.Flags().Float64("confidence", 0.5, "Extraction confidence [0,1]")
	factAdd.Flags().String("source", "", "Provenance")
	factAdd.MarkFlagRequired("subject")
	factAdd.MarkFlagRequired("predicate")
	factAdd.MarkFlagRequired("object")
	factCmd.AddCommand(factAdd)

	elementCmd := &cobra.Command{
		Use:   "element",
		Short: "Record code elements and change signals",
	}
	elementAdd := &cobra.Command{
		Use:   "add [id]",
		Short: "Record an extracted code element",
		Args:  cobra.ExactArgs(1),
		Run:   runElementAdd,
	}
	elementAdd.Flags().String("kind", "file", "Kind: file, function, class")
	elementAdd.Flags().String("path", "", "Source path")
	elementChanged := &cobra.Command{
		Use:   "changed [id]",
		Short: "Signal that a code element was modified",
		Args:  cobra.ExactArgs(1),
		Run:   runElementChanged,
	}
	elementCmd.AddCommand(elementAdd, elementChanged)

	RootCmd.AddCommand(factCmd, elementCmd)
}

func runFactAdd(cmd *cobra.Command, args []string) {
	subject, _ := cmd.Flags().GetString("subject")
	predicate, _ := cmd.Flags().GetString("predicate")
	object, _ := cmd.Flags().GetString("object")
	confidence, _ := cmd.Flags().GetFloat64("confidence")
	source, _ := cmd.Flags().GetString("source")

	s, err := openService()
	if err != nil {
		exitErr("open service", err)
	}
	defer s.Close()

	id, err := s.Repo.IngestFact(cmd.Context(), model.KnowledgeFact{
		Subject:    subject,
		Predicate:  predicate,
		Object:     object,
		Confidence: confidence,
		Source:     source,
	})
	if err != nil {
		exitErr("fact add", err)
	}
	printJSON(map[string]string{"id": id})
}

func runElementAdd(cmd *cobra.Command, args []string) {
	kind, _ := cmd.Flags().GetString("kind")
	path, _ := cmd.Flags().GetString("path")

	s, err := openService()
	if err != nil {
		exitErr("open service", err)
	}
	defer s.Close()

	id, err := s.Repo.IngestCodeElement(cmd.Context(), model.CodeElement{
		ID:   args[0],
		Kind: kind,
		Path: path,
	})
	if err != nil {
		exitErr("element add", err)
	}
	printJSON(map[string]string{"id": id})
}

func runElementChanged(cmd *cobra.Command, args []string) {
	s, err := openService()
	if err != nil {
		exitErr("open service", err)
	}
	defer s.Close()

	stale, err := s.Bridge.OnExternalNodeUpdated(cmd.Context(), args[0])
	if err != nil {
		exitErr("element changed", err)
	}
	printJSON(map[string]any{"element": args[0], "stale_memories": stale})
}
