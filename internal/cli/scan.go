package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/EricA1019/Godot-MCP/internal/adapter/fs"
	"github.com/EricA1019/Godot-MCP/internal/usecase"
)

var scanFull bool

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Index files under a directory",
	Long: `Walk the directory tree, classify and hash every indexable file, and
load the index in one batch. Plain scan is additive; --full also removes
indexed entries whose files no longer exist on disk.

Examples:
  godot-mcp scan .             # Refresh the index for the current tree
  godot-mcp scan --full        # Reconcile against vanished files`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&scanFull, "full", false, "also delete index entries for vanished files")
}

func runScan(cmd *cobra.Command, args []string) error {
	path := rootDir
	if len(args) > 0 {
		path = args[0]
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	walker := fs.NewWalker(cfg.Index.Excludes)
	scanUC := usecase.NewScanUseCase(st, walker, slog.Default())

	fmt.Printf("Scanning %s...\n", path)

	var bar *progressbar.ProgressBar
	progress := func(processed, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Indexing"),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(processed)
	}

	var result *usecase.ScanResult
	if scanFull {
		result, err = scanUC.Reconcile(path, progress)
	} else {
		result, err = scanUC.Scan(path, progress)
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Printf("\nScan complete:\n")
	fmt.Printf("  Files indexed: %d\n", result.Indexed)
	fmt.Printf("  Files skipped: %d\n", result.Skipped)
	if scanFull {
		fmt.Printf("  Files deleted: %d\n", result.Deleted)
	}
	return nil
}
