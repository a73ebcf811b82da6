package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"motorhub/internal/api"
	"motorhub/internal/events"
	"motorhub/internal/ingest"
	"motorhub/internal/jobs"
	"motorhub/internal/motor"
	"motorhub/pkg/config"
	"motorhub/pkg/database"
	"motorhub/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to motorhub.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	log := logging.New(cfg.LogConfig("api-server"))
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
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

	hub := events.NewHub(log.With().Str("component", "events").Logger())
	tcpSrv := events.NewServer(cfg.Server.TCPEventsAddr, hub, log.With().Str("component", "tcp-events").Logger())
	// bind early so a port conflict fails startup
	if err := tcpSrv.Listen(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Server.TCPEventsAddr).Msg("tcp events listen")
	}

	publisher := events.Publishers{hub}
	var udpSrv *events.UDPServer
	if cfg.Server.UDPEventsAddr != "" {
		udpSrv = events.NewUDPServer(cfg.Server.UDPEventsAddr, log.With().Str("component", "udp-events").Logger())
		if err := udpSrv.Listen(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Server.UDPEventsAddr).Msg("udp events listen")
		}
		publisher = append(publisher, udpSrv)
	}

	motors := motor.NewRepo(db)
	runner := &jobs.Runner{
		Aggregator: ingest.NewAggregator(log.With().Str("component", "ingest").Logger(), sources...),
		Motors:     motors,
		Runs:       jobs.NewRunRepo(db),
		Events:     publisher,
		Interval:   cfg.Sync.Interval,
		Timeout:    cfg.Sync.Timeout,
		Log:        log.With().Str("component", "sync").Logger(),
	}

	router := api.NewRouter(api.Deps{DB: db, Motors: motors, Runner: runner, Hub: hub, Log: log})
	httpSrv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	errCh := make(chan error, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	if udpSrv != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := udpSrv.Run(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		runner.Start(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http api listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
		stop()
	}

	shutdown(log, cfg, httpSrv, hub, runner)
	wg.Wait()
	log.Info().Msg("servers stopped")
}

func shutdown(log zerolog.Logger, cfg config.Config, httpSrv *http.Server, hub *events.Hub, runner *jobs.Runner) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	hub.CloseAll()

	done := make(chan struct{})
	go func() {
		runner.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warn().Msg("triggered sync still running at shutdown")
	}
}
