// Package cli implements the command-line interface for vendorsum.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/eunmann/vendor-summary-db/internal/logctx"
	"github.com/eunmann/vendor-summary-db/pkg/config"
	"github.com/eunmann/vendor-summary-db/pkg/ingest"
	"github.com/eunmann/vendor-summary-db/pkg/logging"
	"github.com/eunmann/vendor-summary-db/pkg/s3src"
	"github.com/eunmann/vendor-summary-db/pkg/store"
	"github.com/eunmann/vendor-summary-db/pkg/summary"
)

const usage = "usage: vendorsum <command> [-config file]\ncommands: ingest, summary, run"

// Run executes the CLI with the given arguments.
func Run(args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch args[0] {
	case "ingest":
		return runCommand("ingest", args[1:], ingestPipeline)
	case "summary":
		return runCommand("summary", args[1:], summaryPipeline)
	case "run":
		return runCommand("run", args[1:], ingestPipeline, summaryPipeline)
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// pipeline is one stage run against an open store.
type pipeline struct {
	phase   string
	logFile func(*config.Config) string
	run     func(ctx context.Context, cfg *config.Config, db *store.DB) error
}

var (
	ingestPipeline = pipeline{
		phase:   "ingest",
		logFile: (*config.Config).IngestLogFile,
		run:     runIngest,
	}
	summaryPipeline = pipeline{
		phase:   "summary",
		logFile: (*config.Config).SummaryLogFile,
		run:     runSummary,
	}
)

func runCommand(name string, args []string, stages ...pipeline) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	cfgPath := fs.String("config", "", "YAML config file (default "+config.DefaultFile+" if present)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	for _, p := range stages {
		if err := execute(cfg, p); err != nil {
			return err
		}
	}
	return nil
}

// execute runs one pipeline with its own log file, run ID and store handle.
func execute(cfg *config.Config, p pipeline) error {
	closer, err := logging.Init(logging.Options{
		Debug: cfg.Debug,
		Human: cfg.Human,
		File:  p.logFile(cfg),
	})
	defer closer.Close()
	if err != nil {
		return err
	}

	ctx, _ := logctx.WithRun(context.Background(), p.phase)

	db, err := store.Open(cfg.StoreConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	return p.run(ctx, cfg, db)
}

func runIngest(ctx context.Context, cfg *config.Config, db *store.DB) error {
	loader := ingest.NewLoader(ingest.NewIngestor(db, cfg.BatchSize), cfg.Extensions)

	if !s3src.IsURI(cfg.SourceDir) {
		_, err := loader.LoadAll(ctx, cfg.SourceDir)
		return err
	}

	client, err := s3src.NewClient(ctx)
	if err != nil {
		log := logctx.FromContext(ctx)
		log.Error().Err(err).Msg("failed to create S3 client")
		return err
	}
	_, err = loader.LoadS3(ctx, client, cfg.SourceDir)
	return err
}

func runSummary(ctx context.Context, cfg *config.Config, db *store.DB) error {
	return summary.Run(ctx, db, summary.Options{
		Table:       cfg.SummaryTable,
		NullFill:    cfg.NullFill,
		ParquetPath: cfg.SummaryParquet,
	})
}
