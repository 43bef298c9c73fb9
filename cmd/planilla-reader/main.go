package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lector-pagos/planilla-reader/internal/config"
	"github.com/lector-pagos/planilla-reader/internal/export"
	"github.com/lector-pagos/planilla-reader/internal/extract"
	"github.com/lector-pagos/planilla-reader/internal/pipeline"
	"github.com/lector-pagos/planilla-reader/internal/reconcile"
	"github.com/lector-pagos/planilla-reader/internal/refdata"
	"github.com/lector-pagos/planilla-reader/internal/textacq"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// applyBuildVersion overrides the configured version when the build injected one.
func applyBuildVersion(cfg *config.Config) {
	if version != "dev" {
		cfg.Version = version
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func run() error {
	cfg, err := config.LoadFromFlags()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	applyBuildVersion(cfg)

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("planilla reader starting",
		zap.String("version", cfg.Version),
		zap.String("input_dir", cfg.InputDir),
		zap.String("output", cfg.OutputFile))

	ctx := context.Background()

	loader := refdata.NewLoader(cfg.FetchTimeout, logger)
	index := refdata.NewIndex(ctx, loader, refdata.Sources{
		Redireccionamiento: refdata.Source{LocalPath: cfg.RediPath, RemoteURL: cfg.RediURL},
		Presunta:           refdata.Source{LocalPath: cfg.PresPath, RemoteURL: cfg.PresURL},
	})
	index.LogSummary(logger)

	acquirer := textacq.NewAcquirer(textacq.Options{
		MaxPages:      cfg.MaxPages,
		MinChars:      cfg.MinTextChars,
		PdftotextPath: cfg.PdftotextPath,
	}, logger)

	processor := pipeline.NewProcessor(
		acquirer,
		extract.NewExtractor(logger),
		reconcile.New(index, logger),
		cfg.MaxFileSize,
		logger,
	)

	paths, err := pipeline.FindPDFs(cfg.InputDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no PDF files found in %s", cfg.InputDir)
	}

	rows, summary := processor.ProcessBatch(ctx, paths)

	for _, r := range summary.Results {
		switch r.Status {
		case pipeline.StatusSuccess:
			fmt.Printf("  %-50s %d fila(s)\n", r.File, r.Rows)
		case pipeline.StatusWarning:
			fmt.Printf("  %-50s ADVERTENCIA: %s\n", r.File, r.Message)
		case pipeline.StatusError:
			fmt.Printf("  %-50s ERROR: %s\n", r.File, r.Message)
		}
	}

	ok, warn, failed := summary.Counts()
	fmt.Printf("\nProcesados: %d correctos, %d con advertencias, %d con errores. %d fila(s) en total.\n",
		ok, warn, failed, summary.TotalRows)

	if len(rows) == 0 {
		return fmt.Errorf("no data extracted from any document")
	}

	data, err := export.WriteRows(rows)
	if err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}
	if err := os.WriteFile(cfg.OutputFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfg.OutputFile, err)
	}

	logger.Info("workbook written",
		zap.String("path", cfg.OutputFile),
		zap.Int("rows", summary.TotalRows))
	fmt.Printf("Resultado guardado en %s\n", cfg.OutputFile)
	return nil
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			fmt.Printf("planilla-reader %s (built %s, commit %s)\n", version, buildTime, gitCommit)
			os.Exit(0)
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
