package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"motorhub/internal/grpcserver"
	"motorhub/internal/motor"
	"motorhub/pkg/config"
	"motorhub/pkg/database"
	"motorhub/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to motorhub.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	log := logging.New(cfg.LogConfig("grpc-server"))
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	listener, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Server.GRPCAddr).Msg("grpc listen")
	}

	gs := grpcserver.New(grpcserver.NewServer(motor.NewRepo(db), log))

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down grpc server")
		gs.GracefulStop()
	}()

	log.Info().Str("addr", cfg.Server.GRPCAddr).Msg("grpc server listening")
	if err := gs.Serve(listener); err != nil {
		log.Fatal().Err(err).Msg("grpc server stopped")
	}
}
