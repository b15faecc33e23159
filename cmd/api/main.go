package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"autocamper/internal/ads"
	"autocamper/internal/app"
	"autocamper/internal/config"
	"autocamper/internal/events"
	"autocamper/internal/generation"
	"autocamper/internal/listings"
	"autocamper/internal/logging"
	"autocamper/internal/media"
	"autocamper/internal/server"
	"autocamper/internal/storage"
	"autocamper/internal/vision"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()

	uploader, err := media.NewUploader(ctx, media.Config{
		Bucket:         cfg.Media.Bucket,
		Region:         cfg.Media.Region,
		Endpoint:       cfg.Media.Endpoint,
		PublicURL:      cfg.Media.PublicURL,
		KeyPrefix:      cfg.Media.KeyPrefix,
		ForcePathStyle: cfg.Media.ForcePathStyle,
		LocalDir:       cfg.Media.LocalDir,
	})
	if err != nil {
		return fmt.Errorf("init media uploader: %w", err)
	}

	model, err := app.NewLLM(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("language model unavailable: editing and trends disabled, heuristic ad copy")
	} else {
		logger.Info().Str("provider", cfg.LLM.Provider).Msg("language model ready")
	}

	broker := events.NewBroker()
	fetcher := listings.NewFetcher(cfg.Listing.BaseURL, app.ListingLayout(cfg), nil)

	venues := listings.Handler{Fetcher: fetcher, Logger: logger}
	visionHandler := vision.Handler{Logger: logger}

	editor, upscaler, err := app.NewImageProvider(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("image provider unavailable")
	}
	if upscaler != nil {
		visionHandler.Upscaler = upscaler
	}

	if model != nil {
		venues.Trends = generation.NewTrendAdvisor(model)
		if editor != nil {
			visionHandler.Themes = &vision.Service{
				Prompter: vision.NewPromptGenerator(model),
				Pipeline: &vision.Pipeline{Editor: editor, Rounds: cfg.EditRounds(), Publisher: broker},
				Selector: vision.NewSelector(model),
				Uploader: uploader,
				Logger:   logger,
			}
		}
	}

	builder := app.NewBuilder(ctx, cfg, model, store, broker, logger)

	srv := server.New(cfg, logger, server.Handlers{
		Venues:    venues,
		Vision:    visionHandler,
		Campaigns: ads.Handler{Builder: builder, Venues: fetcher, Logger: logger},
		Ledger:    storage.Handler{Store: store, Logger: logger},
		Events:    broker,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
