// Package cli implements the agentgraph CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/davidhsu/agentgraph/internal/config"
	"github.com/davidhsu/agentgraph/internal/core"
	"github.com/davidhsu/agentgraph/internal/observe"
)

var (
	dbPath      string
	configPath  string
	formatFlag  string
	verboseFlag bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "agentgraph",
	Short: "Shared memory graph for AI agents",
	Long:  "A memory graph for AI agent fleets: record experiences, share knowledge per agent type, scope it to projects or globally, and reconcile contradictions.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $AGENTGRAPH_DB or ~/.agentgraph/graph.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: $AGENTGRAPH_CONFIG)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Verbose logging")
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("AGENTGRAPH_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	} else if env := os.Getenv("AGENTGRAPH_DB"); env != "" {
		cfg.Store.Path = env
	}
	return cfg, nil
}

func openService() (*core.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	var obs *observe.Observer
	if cfg.Logging.Format == "json" {
		obs = observe.NewJSON(os.Stderr, verboseFlag || cfg.Logging.Verbose)
	} else {
		obs = observe.New(os.Stderr, verboseFlag || cfg.Logging.Verbose)
	}
	return core.Open(cfg, obs)
}

func printJSON(v any) {
	b, _ := json.Marshal(v)
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
