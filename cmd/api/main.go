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
	"github.com/rs/zerolog/log"

	"github.com/datapilot-ai/backend/internal/config"
	"github.com/datapilot-ai/backend/internal/handler"
	"github.com/datapilot-ai/backend/internal/live"
	"github.com/datapilot-ai/backend/internal/service/analyst"
	chatservice "github.com/datapilot-ai/backend/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && level != zerolog.NoLevel {
		zerolog.SetGlobalLevel(level)
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file, continuing with system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	engine, err := cfg.AI.NewEngine(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize generation engine")
	}
	log.Info().Str("provider", cfg.AI.Provider).Msg("generation engine initialized")

	st, err := cfg.Store.NewStore()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize session store")
	}
	defer st.Close()
	log.Info().Str("driver", cfg.Store.Driver).Msg("session store initialized")

	registry := chatservice.NewRegistry(st, engine)

	hub := live.NewHub()
	go hub.Run(ctx)

	analystSvc := analyst.NewService(registry, engine, hub)

	router := handler.NewRouter(registry, analystSvc, hub)
	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", serverCfg.Addr).Msg("datapilot backend listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
