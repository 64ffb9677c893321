package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-log-collector/internal/api/http"
	"github.com/i474232898/weather-log-collector/internal/config"
	"github.com/i474232898/weather-log-collector/internal/logging"
	"github.com/i474232898/weather-log-collector/internal/queue"
	"github.com/i474232898/weather-log-collector/internal/scheduler"
	"github.com/i474232898/weather-log-collector/internal/store"
	"github.com/i474232898/weather-log-collector/internal/weather"
	"github.com/i474232898/weather-log-collector/internal/weather/providers"
)

func main() {
	dotenvErr := godotenv.Load()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if dotenvErr != nil {
		log.Debug("no .env file loaded", zap.Error(dotenvErr))
	}

	log.Info("starting weather log collector",
		zap.Int("interval_hours", cfg.Schedule.IntervalHours),
		zap.String("queue", cfg.Broker.Queue))

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.Provider.Timeout,
	}

	collector := providers.NewOneCallCollector(httpClient, cfg.OneCall(), log)
	publisher := queue.NewPublisher(
		cfg.Broker.Publisher(),
		queue.DialAMQP(cfg.Broker.Timeout, cfg.Broker.Confirm),
		log,
	)

	// In-memory cycle history with configured retention.
	memStore := store.NewMemoryStore(cfg.Store.MaxHistory, cfg.Store.MaxAge)

	service := weather.NewService(collector, publisher, memStore, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var app *fiber.App
	if cfg.Status.Addr != "" {
		app = newStatusApp(service)
		go func() {
			log.Info("status server listening", zap.String("addr", cfg.Status.Addr))
			if err := app.Listen(cfg.Status.Addr); err != nil {
				log.Error("status server stopped", zap.Error(err))
			}
		}()
	}

	sched := scheduler.New(func(ctx context.Context) {
		service.RunCycle(ctx)
	}, cfg.Schedule.Interval(), scheduler.GocronClock{}, log)

	if err := sched.Run(ctx); err != nil {
		log.Error("scheduler exited", zap.Error(err))
	}

	if app != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error("error during status server shutdown", zap.Error(err))
		}
	}
}

func newStatusApp(service *weather.Service) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "weather-log-collector",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	httpapi.RegisterRoutes(app, service)
	return app
}
