package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-log-collector/internal/store"
	"github.com/i474232898/weather-log-collector/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the status handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-log-collector",
		})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/cycles/latest", func(c *fiber.Ctx) error {
		report, err := service.Latest()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no collection cycle has run yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read cycle history")
		}

		return c.JSON(report)
	})

	v1.Get("/cycles", func(c *fiber.Ctx) error {
		var req rangeQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		reports, err := service.Range(req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no collection cycles in requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read cycle history")
		}

		return c.JSON(fiber.Map{
			"from":   req.From,
			"to":     req.To,
			"cycles": reports,
		})
	})
}

// rangeQuery holds query parameters for the history endpoint.
type rangeQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (r *rangeQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	r.From = from
	r.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
