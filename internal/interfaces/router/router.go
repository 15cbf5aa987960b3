package router

import (
	"coinease-backend/bootstrap"
	authsvc "coinease-backend/internal/application/auth"
	"coinease-backend/internal/config"
	"coinease-backend/internal/constants"
	adminhandler "coinease-backend/internal/interfaces/handlers/admin"
	authhandler "coinease-backend/internal/interfaces/handlers/auth"
	healthhandler "coinease-backend/internal/interfaces/handlers/health"
	invhandler "coinease-backend/internal/interfaces/handlers/investments"
	txhandler "coinease-backend/internal/interfaces/handlers/transactions"
	userhandler "coinease-backend/internal/interfaces/handlers/user"
	"coinease-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp builds the Fiber app with global middleware and every route.
func CreateApp(cfg *config.Config, d *bootstrap.Deps, svc *bootstrap.Services) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}

	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Session(sessionCfg, d.Rdb))
	app.Use(middleware.HealthMarker(d.Rdb))

	hh := &healthhandler.Handlers{
		Rdb:            d.Rdb,
		DB:             &gormDBPinger{db: d.DB},
		Jobs:           svc.Scheduler,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(svc.Registry, promhttp.HandlerOpts{})))

	api := app.Group("/api/v1")

	ah := &authhandler.Handlers{
		UserFinder: &authsvc.GormUserFinder{DB: d.DB},
		Users:      svc.Users,
		Rdb:        d.Rdb,
		Config:     sessionCfg,
	}
	ag := api.Group("/auth")
	ag.Post("/register", ah.Register)
	ag.Post("/login", ah.Login)
	ag.Get("/me", ah.Me)
	ag.Delete("/logout", ah.Logout)
	ag.Delete("/sessions", middleware.RequireAuth(), ah.LogoutAll)

	uh := &userhandler.Handlers{Service: svc.Users}
	ug := api.Group("/users", middleware.RequireAuth())
	ug.Get("/balance", uh.Balance)
	ug.Put("/update-profile", uh.UpdateProfile)

	txh := &txhandler.Handlers{Service: svc.Transactions}
	tg := api.Group("/transactions", middleware.RequireAuth())
	tg.Post("/deposits", txh.CreateDeposit)
	tg.Post("/withdrawals", txh.CreateWithdrawal)
	tg.Get("/", txh.List)
	tg.Get("/:id", txh.Get)

	ih := &invhandler.Handlers{Service: svc.Investments}
	ig := api.Group("/investments", middleware.RequireAuth())
	ig.Get("/plans", ih.ListPlans)
	ig.Post("/", ih.Create)
	ig.Get("/", ih.List)
	ig.Get("/:id", ih.Get)

	adm := &adminhandler.Handlers{
		Transactions: svc.Transactions,
		Investments:  svc.Investments,
		Signals:      svc.Signals,
		Jobs:         svc.Scheduler,
	}
	admg := api.Group("/admin", middleware.RequireAuth())
	admg.Get("/deposits/pending", middleware.AuthorizePermission(constants.ReviewDeposits), adm.PendingDeposits)
	admg.Patch("/deposits/:id", middleware.AuthorizePermission(constants.ReviewDeposits), adm.ReviewDeposit)
	admg.Post("/plans", middleware.AuthorizePermission(constants.ManagePlans), adm.CreatePlan)
	admg.Patch("/plans/:id", middleware.AuthorizePermission(constants.ManagePlans), adm.UpdatePlan)
	admg.Post("/investments/:id/cancel", middleware.AuthorizePermission(constants.ManageInvestments), adm.CancelInvestment)
	admg.Patch("/users/:id/signal", middleware.AuthorizePermission(constants.ManageSignals), adm.GrantSignal)
	admg.Post("/jobs/:name/run", middleware.AuthorizePermission(constants.RunJobs), adm.RunJob)

	return app
}
