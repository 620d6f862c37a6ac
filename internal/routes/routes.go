package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/ama-bakery/staff_terminal/internal/config"
	"github.com/ama-bakery/staff_terminal/internal/logging"
	"github.com/ama-bakery/staff_terminal/internal/login"
	"github.com/ama-bakery/staff_terminal/internal/middleware"
	"github.com/ama-bakery/staff_terminal/internal/notification"
	"github.com/ama-bakery/staff_terminal/internal/staff"
	"github.com/ama-bakery/staff_terminal/internal/terminal"
	"github.com/ama-bakery/staff_terminal/internal/verification"
)

// Deps aggregates shared dependencies required to wire routes. DB and Cache
// are optional and only used for health checks and idempotency.
type Deps struct {
	Cfg       config.Config
	DB        *pgxpool.Pool
	Cache     *redis.Client
	Directory staff.Directory
	Sessions  terminal.Store
	Logger    *slog.Logger

	// AccessLog enables Fiber's plain text access log.
	AccessLog bool
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Directory == nil {
		return fmt.Errorf("staff directory is required")
	}
	if d.Sessions == nil {
		return fmt.Errorf("terminal session store is required")
	}
	if !d.Cfg.IsDevelopment() && d.Cache == nil {
		return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if d.AccessLog {
		// Plain text access log: [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(middleware.Audit(logging.Component(d.Logger, "http")))

	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	machineOpts := []verification.Option{
		verification.WithRole(d.Cfg.Role()),
		verification.WithClearDelay(d.Cfg.PinClearDelay),
	}
	if d.Cfg.DemoRoster() {
		machineOpts = append(machineOpts, verification.WithUsernameHint(staff.DemoHint(d.Cfg.Role())))
	}
	notifier := notification.NewLoggerNotifier(logging.Component(d.Logger, "notification"))
	attempts := login.NewRegistry(d.Directory, d.Sessions, notifier, logging.Component(d.Logger, "login"),
		d.Cfg.MaxLoginAttempts, machineOpts...)
	loginHandler := login.NewHandler(attempts, logging.Component(d.Logger, "login"))
	terminalHandler := terminal.NewHandler(d.Sessions, logging.Component(d.Logger, "terminal"))

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c.UserContext()),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterWorkspaceRoutes(api)
	RegisterLoginRoutes(api, loginHandler, middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	RegisterTerminalRoutes(api, terminalHandler)

	return nil
}
