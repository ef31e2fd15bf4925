package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/EricA1019/Godot-MCP/config"
	"github.com/EricA1019/Godot-MCP/internal/adapter/analyzer"
	"github.com/EricA1019/Godot-MCP/internal/adapter/store"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "godot-mcp",
	Short: "Master index and context bundler for a game-engine project tree",
	Long: `godot-mcp maintains an incremental full-text index over a repository,
keeps it live with a filesystem watcher, and assembles size-capped
context bundles for downstream reasoning agents.

Example usage:
  godot-mcp scan .                  # Index the current directory
  godot-mcp query "scene validator" # Search the index
  godot-mcp bundle "signal wiring"  # Assemble a context bundle
  godot-mcp serve                   # Run the HTTP control surface`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}
		rootDir, err = filepath.Abs(rootDir)
		if err != nil {
			return fmt.Errorf("invalid root directory: %w", err)
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		setupLogging(cfg.Logging.Level)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./godot-mcp.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

// openStore opens the index under the configured data directory with
// the configured analysis settings.
func openStore() (*store.BoltStore, error) {
	tokenizer := analyzer.NewTokenizer(cfg.Index.Stopwords)
	st, err := store.Open(cfg.IndexDir(rootDir), tokenizer)
	if err != nil {
		return nil, err
	}
	st.SetParams(cfg.Index.K1, cfg.Index.B)
	return st, nil
}
