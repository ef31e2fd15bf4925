package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/EricA1019/Godot-MCP/internal/adapter/fs"
	"github.com/EricA1019/Godot-MCP/internal/adapter/watch"
	"github.com/EricA1019/Godot-MCP/internal/usecase"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the tree and keep the index live",
	Long: `Run an initial scan, then watch the root directory for filesystem
changes and apply debounced differential updates until interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	walker := fs.NewWalker(cfg.Index.Excludes)
	scanUC := usecase.NewScanUseCase(st, walker, slog.Default())
	if _, err := scanUC.Scan(rootDir, nil); err != nil {
		return fmt.Errorf("initial scan failed: %w", err)
	}

	debounce := time.Duration(cfg.Watch.DebounceMs) * time.Millisecond
	monitor := watch.NewMonitor(st, rootDir, debounce, slog.Default())
	status, err := monitor.Start()
	if err != nil {
		return fmt.Errorf("watcher failed to start: %w", err)
	}
	fmt.Printf("Watching %s (%s). Ctrl-C to stop.\n", rootDir, status)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	monitor.Stop()
	fmt.Println("Watcher stopped.")
	return nil
}
