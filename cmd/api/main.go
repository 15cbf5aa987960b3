package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"coinease-backend/bootstrap"
	"coinease-backend/internal/config"
	"coinease-backend/internal/interfaces/router"
	"coinease-backend/internal/pkg/logging"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	logging.Setup(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("startup")
	}
	log.Info().Msg("Postgres connected")
	log.Info().Msg("Redis connected")

	svc, err := bootstrap.NewServices(cfg, deps)
	if err != nil {
		log.Fatal().Err(err).Msg("services")
	}
	app := router.CreateApp(cfg, deps, svc)

	if cfg.Scheduler.Enabled {
		svc.Scheduler.Start(ctx)
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).
		Str("settlement", cfg.Payout.Settlement).Dur("payout_period", cfg.Payout.Period).
		Msg("Server running")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
	svc.Scheduler.Wait()
	_ = deps.Rdb.Close()
}
