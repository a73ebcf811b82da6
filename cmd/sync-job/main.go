package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"motorhub/internal/ingest"
	"motorhub/internal/jobs"
	"motorhub/internal/motor"
	"motorhub/pkg/config"
	"motorhub/pkg/database"
	"motorhub/pkg/logging"
)

// sync-job runs one ingestion pass and exits non-zero when it fails.
// Meant for cron.
func main() {
	configPath := flag.String("config", "", "path to motorhub.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	log := logging.New(cfg.LogConfig("sync-job"))
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if len(cfg.Sources) == 0 {
		log.Fatal().Msg("no sources configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbCfg := cfg.DatabaseConfig()
	if err := database.EnsureDataDir(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("create data dir")
	}
	db, err := database.Open(ctx, dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	sources, err := ingest.SourcesFromConfig(cfg.Sources)
	if err != nil {
		log.Fatal().Err(err).Msg("build sources")
	}

	runner := &jobs.Runner{
		Aggregator: ingest.NewAggregator(log, sources...),
		Motors:     motor.NewRepo(db),
		Runs:       jobs.NewRunRepo(db),
		Timeout:    cfg.Sync.Timeout,
		Log:        log,
	}

	run, err := runner.RunOnce(ctx)
	if err != nil {
		db.Close()
		log.Fatal().Err(err).Str("run_id", run.ID).Msg("sync failed")
	}
	log.Info().Str("run_id", run.ID).Int("upserted", run.Upserted).Msg("catalog updated")
}
