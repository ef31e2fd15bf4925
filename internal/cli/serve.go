package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/EricA1019/Godot-MCP/internal/adapter/fs"
	"github.com/EricA1019/Godot-MCP/internal/adapter/watch"
	"github.com/EricA1019/Godot-MCP/internal/server"
	"github.com/EricA1019/Godot-MCP/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP control surface",
	Long: `Open the index, run an initial scan, optionally auto-start the change
monitor, and serve the JSON-over-HTTP control surface until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	walker := fs.NewWalker(cfg.Index.Excludes)
	scanUC := usecase.NewScanUseCase(st, walker, logger)

	// Initial scan: cheap no-op when nothing changed.
	if result, err := scanUC.Scan(rootDir, nil); err != nil {
		logger.Warn("initial scan failed", "error", err)
	} else {
		logger.Info("initial scan complete", "indexed", result.Indexed, "skipped", result.Skipped)
	}

	debounce := time.Duration(cfg.Watch.DebounceMs) * time.Millisecond
	monitor := watch.NewMonitor(st, rootDir, debounce, logger)

	if cfg.Server.AutoStartWatchers {
		if status, err := monitor.Start(); err != nil {
			logger.Warn("watcher auto-start failed", "error", err)
		} else {
			logger.Info("watcher auto-started", "status", status)
		}
	}

	queryUC := usecase.NewQueryUseCase(st)
	bundleUC := usecase.NewBundleUseCase(st, rootDir, logger)
	srv := server.New(st, monitor, scanUC, queryUC, bundleUC, rootDir, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = srv.ListenAndServe(ctx, cfg.Addr())
	monitor.Stop()
	if err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
