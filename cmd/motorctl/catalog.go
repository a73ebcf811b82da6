package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"motorhub/internal/export"
	"motorhub/internal/grpcserver"
	"motorhub/internal/ingest"
	"motorhub/internal/jobs"
	"motorhub/internal/motor"
	"motorhub/pkg/config"
	"motorhub/pkg/database"
	"motorhub/pkg/motorid"
)

func openCatalog(ctx context.Context, cfg config.Config) (*database.DB, error) {
	dbCfg := cfg.DatabaseConfig()
	if err := database.EnsureDataDir(dbCfg); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := database.Open(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	return db, nil
}

func newSyncCmd(g *globals) *cobra.Command {
	var csvFiles []string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one ingestion pass into the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgs := g.cfg.Sources
			for i, path := range csvFiles {
				cfgs = append(cfgs, config.SourceConfig{Name: fmt.Sprintf("csv_%d", i+1), Type: "csv", Path: path})
			}
			if len(cfgs) == 0 {
				return fmt.Errorf("no sources: configure sources or pass --csv")
			}
			sources, err := ingest.SourcesFromConfig(cfgs)
			if err != nil {
				return err
			}

			db, err := openCatalog(cmd.Context(), g.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			runner := &jobs.Runner{
				Aggregator: ingest.NewAggregator(g.log, sources...),
				Motors:     motor.NewRepo(db),
				Runs:       jobs.NewRunRepo(db),
				Timeout:    g.cfg.Sync.Timeout,
				Log:        g.log,
			}
			run, err := runner.RunOnce(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if g.outputJSON {
				return printJSON(out, run)
			}
			keyColor.Fprintf(out, "sync %s ok\n", run.ID)
			fmt.Fprintf(out, "fetched %d, upserted %d, dropped %d\n", run.Fetched, run.Upserted, run.Dropped)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&csvFiles, "csv", nil, "extra CSV file to ingest, repeatable")
	return cmd
}

func newExportCmd(g *globals) *cobra.Command {
	var (
		outPath string
		family  string
		inStock bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := motor.ListQuery{InStock: inStock}
			if family != "" {
				f, ok := motorid.ParseMotorFamily(family)
				if !ok {
					return fmt.Errorf("unknown family %q", family)
				}
				q.MotorFamily = string(f)
			}

			db, err := openCatalog(cmd.Context(), g.cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			repo := motor.NewRepo(db)

			if outPath == "-" {
				_, err := export.WriteCSV(cmd.Context(), repo, q, cmd.OutOrStdout())
				return err
			}
			n, err := export.WriteCSVFile(cmd.Context(), repo, q, outPath)
			if err != nil {
				return err
			}
			keyColor.Fprintf(cmd.OutOrStdout(), "exported %d motors to %s\n", n, outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "data/motors.csv", `output CSV path, "-" for stdout`)
	cmd.Flags().StringVar(&family, "family", "", "only this motor family")
	cmd.Flags().BoolVar(&inStock, "in-stock", false, "only motors with stock")
	return cmd
}

func parseRemote(ctx context.Context, addr, description string, features []string) (motor.Identity, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return motor.Identity{}, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := grpcserver.NewMotorServiceClient(conn).ParseDescription(ctx, &grpcserver.ParseRequest{
		Description: description,
		Features:    features,
	})
	if err != nil {
		return motor.Identity{}, err
	}
	return resp.Identity, nil
}
