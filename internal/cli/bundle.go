package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/EricA1019/Godot-MCP/internal/usecase"
)

var (
	bundleLimit int
	bundleCap   int
	bundleKind  string
)

var bundleCmd = &cobra.Command{
	Use:   "bundle <query>",
	Short: "Assemble a context bundle for a query",
	Long: `Rank index hits for a query, collapse near-duplicate file variants,
and emit a byte-capped JSON bundle of file contents suitable for a
downstream reasoning agent.

Examples:
  godot-mcp bundle "scene validator"
  godot-mcp bundle "signal wiring" --kind code --cap 32768`,
	Args: cobra.ExactArgs(1),
	RunE: runBundle,
}

func init() {
	rootCmd.AddCommand(bundleCmd)
	bundleCmd.Flags().IntVar(&bundleLimit, "limit", 0, "maximum index hits to consider (default from config)")
	bundleCmd.Flags().IntVar(&bundleCap, "cap", -1, "maximum total content bytes (default from config)")
	bundleCmd.Flags().StringVar(&bundleKind, "kind", "", "restrict hits to a kind")
}

func runBundle(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	limit := bundleLimit
	if limit <= 0 {
		limit = cfg.Bundle.Limit
	}
	capBytes := bundleCap
	if capBytes < 0 {
		capBytes = cfg.Bundle.CapBytes
	}

	bundler := usecase.NewBundleUseCase(st, rootDir, slog.Default())
	bundle, err := bundler.Bundle(args[0], limit, capBytes, bundleKind)
	if err != nil {
		return fmt.Errorf("bundle failed: %w", err)
	}

	output, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}
