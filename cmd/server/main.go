package main

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/example/travelbook/internal/config"
	"github.com/example/travelbook/internal/database"
	"github.com/example/travelbook/internal/middleware"
	"github.com/example/travelbook/internal/routes"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	app := fiber.New(fiber.Config{
		AppName:      "Travelbook Backend",
		ErrorHandler: errorHandler(cfg),
	})

	app.Use(recover.New())
	app.Use(logger.New())

	var rateStore middleware.RateStore
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logrus.WithError(err).Fatal("invalid REDIS_URL")
		}
		rateStore = middleware.NewRedisStore(redis.NewClient(opts))
		logrus.Info("rate limiting backed by redis")
	} else {
		rateStore = middleware.NewMemoryStore()
		logrus.Info("rate limiting backed by in-process store")
	}

	routes.Register(app, db, cfg, rateStore)

	logrus.WithField("port", cfg.AppPort).Info("starting server")
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}

// errorHandler renders every error as the standard response envelope.
// Unexpected errors are logged and hidden behind a generic message in
// production.
func errorHandler(cfg *config.Config) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := err.Error()

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		}

		if code == fiber.StatusInternalServerError {
			logrus.WithError(err).WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
			}).Error("request failed")
			if cfg.IsProduction() {
				message = "internal server error"
			}
		}

		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"message": message,
		})
	}
}
