package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpsoriano/permit-extractor/internal/cache"
	"github.com/jpsoriano/permit-extractor/internal/common"
	"github.com/jpsoriano/permit-extractor/internal/export"
	"github.com/jpsoriano/permit-extractor/internal/imaging"
	"github.com/jpsoriano/permit-extractor/internal/ingest"
	"github.com/jpsoriano/permit-extractor/internal/llm"
	"github.com/jpsoriano/permit-extractor/internal/ocr"
	"github.com/jpsoriano/permit-extractor/internal/orchestrator"
	"github.com/jpsoriano/permit-extractor/internal/pipeline"
	"github.com/jpsoriano/permit-extractor/internal/repository"
)

var (
	configPath string
	inputDir   string
	exportPath string
)

func main() {
	root := &cobra.Command{
		Use:           "permit-extractor",
		Short:         "Extract structured fields from scanned business-permit documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	root.PersistentFlags().StringVar(&inputDir, "input", "", "input directory override")
	root.PersistentFlags().StringVar(&exportPath, "export", "", "export workbook path override")

	root.AddCommand(newRunCmd(), newWatchCmd(), newExportCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process every pending document in the input directory once, then export",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			if err := app.Pass(ctx); err != nil {
				return err
			}
			return app.Export(ctx)
		},
	}
}

func newWatchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the input directory and process documents as they change",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			return app.Watch(ctx, interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "periodic rescan interval")
	return cmd
}

func newExportCmd() *cobra.Command {
	var singleFile string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export previously extracted records without reprocessing",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			if singleFile != "" {
				return app.ExportSingle(ctx, singleFile)
			}
			return app.Export(ctx)
		},
	}
	cmd.Flags().StringVar(&singleFile, "file", "", "export only the record for this source document")
	return cmd
}

// app wires the pipeline components for one invocation.
type app struct {
	cfg    *common.Config
	logger *slog.Logger
	cache  *cache.Cache
	store  *repository.Store
	orch   *orchestrator.Orchestrator
	export *export.Service
}

func buildApp() (*app, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, common.WrapError(err, "load configuration")
	}
	if inputDir != "" {
		cfg.Pipeline.InputDir = inputDir
	}
	if exportPath != "" {
		cfg.Pipeline.ExportPath = exportPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := repository.Open(cfg.Store.Path, logger)
	if err != nil {
		return nil, common.WrapError(err, "open record store")
	}

	c := cache.New()
	if entries, err := store.LoadEntries(context.Background()); err != nil {
		logger.Warn("app.cache.warm_failed", "error", err)
	} else {
		for path, e := range entries {
			c.Put(path, e)
		}
		logger.Info("app.cache.warmed", "entries", len(entries))
	}

	normalizer := imaging.NewNormalizer(imaging.Config{
		Pdftoppm: cfg.Pipeline.Pdftoppm,
		DPI:      cfg.Pipeline.DPI,
		PagesDir: cfg.Pipeline.PagesDir,
		MaxDim:   cfg.Pipeline.MaxImageDim,
	}, logger)
	ocrClient := ocr.NewClient(ocr.Config{
		Endpoint: cfg.OCR.Endpoint,
		APIKey:   cfg.OCR.APIKey,
		Timeout:  cfg.OCR.Timeout,
	}, logger)
	llmClient := llm.NewClient(llm.Config{
		Endpoint:         cfg.LLM.Endpoint,
		APIKey:           cfg.LLM.APIKey,
		Model:            cfg.LLM.Model,
		Temperature:      cfg.LLM.Temperature,
		Timeout:          cfg.LLM.Timeout,
		MaxRefineTokens:  cfg.LLM.MaxRefineTokens,
		MaxExtractTokens: cfg.LLM.MaxExtractTokens,
	}, logger)

	proc := pipeline.NewProcessor(logger, normalizer, ocrClient, llmClient, llmClient, cfg.Pipeline.CleanedTextDir)

	orch := orchestrator.New(logger, c, proc, store)
	orch.MaxWorkers = cfg.Pipeline.MaxWorkers

	return &app{
		cfg:    cfg,
		logger: logger,
		cache:  c,
		store:  store,
		orch:   orch,
		export: export.NewService(logger),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("app.store.close_failed", "error", err)
	}
}

// Pass scans the input directory and runs one orchestration pass.
func (a *app) Pass(ctx context.Context) error {
	paths, err := ingest.ScanDirectory(a.cfg.Pipeline.InputDir)
	if err != nil {
		return err
	}
	stats := a.orch.Pass(ctx, paths)
	a.logger.Info("app.pass.done",
		"scanned", stats.Scanned,
		"pending", stats.Pending,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)
	return ctx.Err()
}

// Export writes every successfully extracted record to the workbook. Failed
// documents have no row; they stay pending for the next pass.
func (a *app) Export(ctx context.Context) error {
	records, err := a.store.ListRecords(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		// fall back to the in-memory cache when the store is empty
		snapshot := a.cache.Snapshot()
		for _, e := range snapshot {
			if e.Result != nil {
				records = append(records, e.Result)
			}
		}
	}
	return a.export.WriteWorkbook(records, a.cfg.Pipeline.ExportPath)
}

// ExportSingle writes one document's record to its own workbook.
func (a *app) ExportSingle(ctx context.Context, sourceFile string) error {
	abs, err := filepath.Abs(sourceFile)
	if err != nil {
		return err
	}
	entries, err := a.store.LoadEntries(ctx)
	if err != nil {
		return err
	}
	e, ok := entries[abs]
	if !ok || e.Result == nil {
		return fmt.Errorf("no extracted record for %s", sourceFile)
	}
	return a.export.WriteSingle(e.Result, a.cfg.Pipeline.ExportPath)
}

// Watch runs an initial pass, then reprocesses on file events and on a
// periodic rescan until ctx is cancelled.
func (a *app) Watch(ctx context.Context, interval time.Duration) error {
	if err := a.Pass(ctx); err != nil {
		return err
	}
	if err := a.Export(ctx); err != nil {
		a.logger.Warn("app.export.failed", "error", err)
	}

	events, errs, err := ingest.StartWatcher(ctx, a.logger, ingest.WatchConfig{
		Root:     a.cfg.Pipeline.InputDir,
		Debounce: 500 * time.Millisecond,
	})
	if err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-events:
			if !ok {
				return nil
			}
			drainEvents(events)
			if err := a.Pass(ctx); err != nil {
				return err
			}
			if err := a.Export(ctx); err != nil {
				a.logger.Warn("app.export.failed", "error", err)
			}
		case err, ok := <-errs:
			if ok && err != nil {
				a.logger.Warn("app.watch.error", "error", err)
			}
		case <-ticker.C:
			if err := a.Pass(ctx); err != nil {
				return err
			}
			if err := a.Export(ctx); err != nil {
				a.logger.Warn("app.export.failed", "error", err)
			}
		}
	}
}

// drainEvents empties the buffered event channel so one pass covers a burst.
func drainEvents(events <-chan string) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
