package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/admin"
	api "github.com/rpupo63/portfolio-backend/api"
	"github.com/rpupo63/portfolio-backend/auth"
	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/portfolio"
	"github.com/rpupo63/portfolio-backend/storage"
	"github.com/rpupo63/portfolio-backend/syncbridge"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Info().Msg("Initializing app...")

	ctx := context.Background()

	c := config.Load()
	if err := config.OverlaySSM(ctx, c); err != nil {
		log.Fatal().Err(err).Msg("Error loading SSM parameters")
	}

	backend := strings.ToLower(config.GetString(c, "STORAGE_BACKEND", "file"))
	log.Info().Str("backend", backend).Msg("Opening storage")

	kv, closeStorage, db, err := openStorage(ctx, c, backend)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening storage")
	}
	defer closeStorage()

	// Tooling modes only make sense against the SQL backend and exit afterwards
	if config.GetBool(c, "GENERATE_MODELS", false) {
		if db == nil {
			log.Fatal().Msg("GENERATE_MODELS requires STORAGE_BACKEND=postgres")
		}
		log.Info().Msg("Generating models and query helpers...")
		if err := models.GenerateModels(db.DB(), config.GetString(c, "GENERATE_OUT_PATH", "./query")); err != nil {
			log.Fatal().Err(err).Msg("Error generating models")
		}
		return
	}
	if config.GetBool(c, "GENERATE_COLUMN_REPORT", false) {
		if db == nil {
			log.Fatal().Msg("GENERATE_COLUMN_REPORT requires STORAGE_BACKEND=postgres")
		}
		log.Info().Msg("Generating column mismatch report...")
		report, err := models.ColumnMismatchReport(db.DB())
		if err != nil {
			log.Fatal().Err(err).Msg("Error generating column report")
		}
		for table, mismatches := range report {
			log.Warn().Str("table", table).Strs("mismatches", mismatches).Msg("Column mismatch")
		}
		log.Info().Int("tables", len(report)).Msg("Column report done")
		return
	}

	services, err := buildServices(ctx, c, kv)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing services")
	}

	// Buffered so the server goroutine can report ErrServerClosed after shutdown
	errChannel := make(chan error, 2)

	server, err := api.NewServer(c, services)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

// openStorage selects the KV backend. db is only set for the SQL backend.
func openStorage(ctx context.Context, c map[string]string, backend string) (storage.KV, func(), *database.Database, error) {
	noop := func() {}

	switch backend {
	case "memory":
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		return storage.NewMemory(), noop, nil, nil

	case "file":
		kv, err := storage.NewFile(config.GetString(c, "DATA_DIR", "./data"))
		if err != nil {
			return nil, noop, nil, err
		}
		return kv, noop, nil, nil

	case "redis":
		kv, err := storage.ConnectRedis(ctx,
			config.GetString(c, "REDIS_URL", "redis://localhost:6379/0"),
			config.GetString(c, "REDIS_PREFIX", "portfolio:"))
		if err != nil {
			return nil, noop, nil, err
		}
		return kv, func() { _ = kv.Close() }, nil, nil

	case "postgres", "supa":
		db, err := database.Open(c)
		if err != nil {
			return nil, noop, nil, err
		}
		return db.KVRepo(), func() { _ = db.Close() }, &db, nil
	}

	return nil, noop, nil, errs.NewUnknownBackendError(backend)
}

func buildServices(ctx context.Context, c map[string]string, kv storage.KV) (api.Services, error) {
	dataset := admin.NewDataset(kv)

	store, err := portfolio.New(ctx, kv, portfolio.WithDataset(dataset))
	if err != nil {
		return api.Services{}, fmt.Errorf("load portfolio: %w", err)
	}

	var providerOpts []admin.Option
	s3Encoder, err := admin.NewS3EncoderFromConfig(ctx, c)
	if err != nil {
		return api.Services{}, err
	}
	if s3Encoder != nil {
		log.Info().Str("bucket", config.GetString(c, "S3_BUCKET", "")).Msg("Media uploads go to S3")
		providerOpts = append(providerOpts, admin.WithMediaEncoder(s3Encoder))
	}

	gate, err := auth.New(kv, config.GetString(c, "BACKEND_PASSWORD", ""), config.GetString(c, "AUTH_SECRET", ""))
	if err != nil {
		return api.Services{}, err
	}

	return api.Services{
		Store:    store,
		Provider: admin.NewProvider(dataset, providerOpts...),
		Bridge:   syncbridge.New(store, dataset, kv),
		Gate:     gate,
	}, nil
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
