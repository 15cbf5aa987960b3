package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	LogLevel            string
	SendinblueAPIKey    string // SENDINBLUE_API_KEY for transactional emails (Brevo)
	MailFrom            string
	AdminEmail          string // receives deposit alerts
	SiteURL             string
	DefaultCurrency     string

	Payout    PayoutConfig
	Scheduler SchedulerConfig
}

// PayoutConfig tunes the payout engine and its runner.
type PayoutConfig struct {
	Period     time.Duration // length of one payout period; plan durations count these
	Settlement string        // accrual | lump_sum
	Workers    int
}

type SchedulerConfig struct {
	Enabled             bool
	TickInterval        time.Duration
	SignalCheckInterval time.Duration
	LockTTL             time.Duration
}

func setDefaults() {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAIL_FROM", "noreply@coinease.io")
	viper.SetDefault("SITE_URL", "https://coinease.io")
	viper.SetDefault("DEFAULT_CURRENCY", "USDT")
	viper.SetDefault("PAYOUT_PERIOD", "24h")
	viper.SetDefault("PAYOUT_SETTLEMENT", "accrual")
	viper.SetDefault("PAYOUT_WORKERS", 4)
	viper.SetDefault("PAYOUT_TICK_INTERVAL", "1m")
	viper.SetDefault("PAYOUT_LOCK_TTL", "5m")
	viper.SetDefault("SIGNAL_CHECK_INTERVAL", "1h")
	viper.SetDefault("SCHEDULER_ENABLED", true)
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL")
	if dbURL == "" {
		switch env {
		case "production":
			dbURL = viper.GetString("DATABASE_URL_PROD")
		case "test":
			dbURL = viper.GetString("DATABASE_URL_TEST")
		default:
			dbURL = os.Getenv("DATABASE_URL_DEV")
		}
	}

	cfg := &Config{
		Env:                 env,
		Port:                viper.GetString("PORT"),
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		LogLevel:            viper.GetString("LOG_LEVEL"),
		SendinblueAPIKey:    viper.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            viper.GetString("MAIL_FROM"),
		AdminEmail:          viper.GetString("ADMIN_EMAIL"),
		SiteURL:             strings.TrimRight(viper.GetString("SITE_URL"), "/"),
		DefaultCurrency:     strings.ToUpper(viper.GetString("DEFAULT_CURRENCY")),
		Payout: PayoutConfig{
			Period:     viper.GetDuration("PAYOUT_PERIOD"),
			Settlement: strings.ToLower(strings.TrimSpace(viper.GetString("PAYOUT_SETTLEMENT"))),
			Workers:    viper.GetInt("PAYOUT_WORKERS"),
		},
		Scheduler: SchedulerConfig{
			Enabled:             viper.GetBool("SCHEDULER_ENABLED"),
			TickInterval:        viper.GetDuration("PAYOUT_TICK_INTERVAL"),
			SignalCheckInterval: viper.GetDuration("SIGNAL_CHECK_INTERVAL"),
			LockTTL:             viper.GetDuration("PAYOUT_LOCK_TTL"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Payout.Period <= 0 {
		return fmt.Errorf("PAYOUT_PERIOD must be positive, got %s", c.Payout.Period)
	}
	switch c.Payout.Settlement {
	case "accrual", "lump_sum":
	default:
		return fmt.Errorf("PAYOUT_SETTLEMENT must be accrual or lump_sum, got %q", c.Payout.Settlement)
	}
	if c.Payout.Workers < 1 {
		c.Payout.Workers = 1
	}
	if c.Scheduler.TickInterval <= 0 {
		return fmt.Errorf("PAYOUT_TICK_INTERVAL must be positive, got %s", c.Scheduler.TickInterval)
	}
	if c.Scheduler.SignalCheckInterval <= 0 {
		return fmt.Errorf("SIGNAL_CHECK_INTERVAL must be positive, got %s", c.Scheduler.SignalCheckInterval)
	}
	if c.Scheduler.LockTTL <= 0 {
		return fmt.Errorf("PAYOUT_LOCK_TTL must be positive, got %s", c.Scheduler.LockTTL)
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }
