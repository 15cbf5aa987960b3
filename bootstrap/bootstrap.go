// Package bootstrap builds the application services from configuration. The
// HTTP server and the worker command share it.
package bootstrap

import (
	"context"
	"fmt"

	"coinease-backend/internal/application/emails"
	"coinease-backend/internal/application/investments"
	"coinease-backend/internal/application/payouts"
	"coinease-backend/internal/application/scheduler"
	"coinease-backend/internal/application/signals"
	"coinease-backend/internal/application/transactions"
	"coinease-backend/internal/application/user"
	"coinease-backend/internal/config"
	"coinease-backend/internal/infrastructure/cache"
	"coinease-backend/internal/infrastructure/database"
	"coinease-backend/internal/infrastructure/locks"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the external resources the services run on. Rdb may be nil, in
// which case locks are process-local and sessions are unavailable.
type Deps struct {
	DB       *gorm.DB
	Rdb      *redis.Client
	Mailer   emails.Sender
	Registry *prometheus.Registry
}

// Open connects to Postgres and Redis as configured.
func Open(ctx context.Context, cfg *config.Config) (*Deps, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	rdb, err := cache.Open(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return &Deps{DB: db, Rdb: rdb, Mailer: NewMailer(cfg)}, nil
}

func NewMailer(cfg *config.Config) emails.Sender {
	return &emails.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom, SiteURL: cfg.SiteURL}
}

type Services struct {
	Users        *user.Service
	Transactions *transactions.Service
	Investments  *investments.Service
	Signals      *signals.Service
	Payouts      *payouts.Runner
	Scheduler    *scheduler.Scheduler
	Registry     *prometheus.Registry
}

// NewServices wires every service and registers the scheduler jobs.
func NewServices(cfg *config.Config, d *Deps) (*Services, error) {
	policy, err := investments.PolicyByName(cfg.Payout.Settlement)
	if err != nil {
		return nil, err
	}
	reg := d.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	engine := investments.NewEngine(d.DB, cfg.Payout.Period, policy)
	inv := investments.NewService(d.DB, engine, cfg.DefaultCurrency)
	sig := &signals.Service{DB: d.DB, Mailer: d.Mailer}
	runner := payouts.NewRunner(inv, engine, cfg.Payout.Workers, payouts.NewMetrics(reg), d.Rdb)

	var locker locks.Locker = locks.NewLocalLocker()
	if d.Rdb != nil {
		locker = locks.NewRedisLocker(d.Rdb)
	}
	sched := scheduler.New(locker, cfg.Scheduler.LockTTL)
	sched.Register(scheduler.ProcessInvestmentsJob(runner, cfg.Scheduler.TickInterval))
	sched.Register(scheduler.FixInvestmentDatesJob(inv))
	sched.Register(scheduler.CheckSignalExpirationsJob(sig, cfg.Scheduler.SignalCheckInterval))

	return &Services{
		Users:        &user.Service{DB: d.DB, Mailer: d.Mailer},
		Transactions: &transactions.Service{DB: d.DB, Mailer: d.Mailer, AdminEmail: cfg.AdminEmail, DefaultCurrency: cfg.DefaultCurrency},
		Investments:  inv,
		Signals:      sig,
		Payouts:      runner,
		Scheduler:    sched,
		Registry:     reg,
	}, nil
}
