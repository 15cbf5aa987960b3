// Command worker runs one background job and exits. Usage:
//
//	worker process-investments | fix-investment-dates | check-signal-expirations | migrate
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"coinease-backend/bootstrap"
	"coinease-backend/internal/config"
	"coinease-backend/internal/infrastructure/database"
	"coinease-backend/internal/pkg/logging"

	"github.com/rs/zerolog/log"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: worker <process-investments|fix-investment-dates|check-signal-expirations|migrate>")
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	job := flag.Arg(0)

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
	defer deps.Rdb.Close()

	if job == "migrate" {
		if err := database.AutoMigrate(deps.DB); err != nil {
			log.Fatal().Err(err).Msg("migrate")
		}
		log.Info().Msg("migrations applied")
		return
	}

	svc, err := bootstrap.NewServices(cfg, deps)
	if err != nil {
		log.Fatal().Err(err).Msg("services")
	}
	result, err := svc.Scheduler.RunNow(ctx, job)
	if err != nil {
		log.Fatal().Err(err).Str("job", job).Msg("job failed")
	}
	log.Info().Str("job", job).Str("result", result).Msg("job finished")
}
