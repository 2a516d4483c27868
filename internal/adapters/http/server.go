package http

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/melih/lighthouse-storage/internal/core/ports"
)

// NewApp wires middleware and the storage routes into a fiber app.
func NewApp(registry ports.ManagerRegistry, logger *log.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "lighthouse",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(RequestLogger(logger))

	api := app.Group("/api")
	NewStorageHandler(registry, logger).Register(api.Group("/storage"))

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		code = ferr.Code
	}
	return c.Status(code).JSON(Response{Err: 1, Msg: err.Error()})
}

// RequestLogger logs one line per request, tagged with the request id.
func RequestLogger(logger *log.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if err := c.Next(); err != nil {
			// render the error now so the logged status is the one sent
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		rid, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
		l := logger.With(
			"rid", rid,
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", time.Since(start),
		)
		switch {
		case status >= fiber.StatusInternalServerError:
			l.Error("request")
		case status >= fiber.StatusBadRequest:
			l.Warn("request")
		default:
			l.Info("request")
		}
		return nil
	}
}
