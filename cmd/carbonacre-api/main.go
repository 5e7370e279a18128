package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carbonacre/carbonacre/internal/ledger"
	"github.com/carbonacre/carbonacre/internal/mrv"
	"github.com/carbonacre/carbonacre/internal/server"
	"github.com/carbonacre/carbonacre/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := mustConfig()

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("app", "carbonacre-api").Logger()
	if cfg.Env == "dev" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Mongo connect failed")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	st, err := store.NewMongo(ctx, client.Database(cfg.MongoDB))
	if err != nil {
		logger.Fatal().Err(err).Msg("Store init failed")
	}

	var anchor ledger.Anchor
	switch cfg.LedgerMode {
	case "remote":
		anchor = ledger.NewRemote(cfg.LedgerURL, logger)
	default:
		anchor = ledger.NewSimulated(logger)
	}

	builder := mrv.NewBuilder(st, cfg.ArtifactsDir, mrv.Provenance{
		App:        "carbonacre",
		Env:        cfg.Env,
		CodeCommit: cfg.CodeCommit,
	}, logger)

	app := server.New(server.Config{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		AutoAnchor:     cfg.AutoAnchor,
	}, st, builder, anchor, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
		<-signalChan

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("Shutdown failed")
		}
		close(shutdownDone)
	}()

	logger.Info().Str("port", cfg.Port).Str("ledger", cfg.LedgerMode).Msg("CarbonAcre API listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Server failed")
	}
	<-shutdownDone
}
