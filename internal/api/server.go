// Package api exposes the engine's operational HTTP surface.
package api

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Veraticus/expense-tracker/internal/common"
	"github.com/Veraticus/expense-tracker/internal/model"
	"github.com/Veraticus/expense-tracker/internal/scheduler"
	"github.com/Veraticus/expense-tracker/internal/service"
)

// Triggerer runs one iteration of a named scheduler loop.
type Triggerer interface {
	Trigger(ctx context.Context, name string) error
}

// DealAlerter queues proximity alerts for a deal.
type DealAlerter interface {
	NotifyNewDeal(ctx context.Context, dealID int64) ([]int64, error)
}

// Store is the read side the handlers need.
type Store interface {
	service.Ledger

	GetGoals(ctx context.Context, userID int64, categoryID *int64) ([]model.Goal, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetDealView(ctx context.Context, id int64) (*model.DealView, error)
}

// Handler serves the ops endpoints.
type Handler struct {
	Store     Store
	Scheduler Triggerer
	Alerter   DealAlerter
}

// NewHandler creates a handler.
func NewHandler(store Store, scheduler Triggerer, alerter DealAlerter) *Handler {
	return &Handler{Store: store, Scheduler: scheduler, Alerter: alerter}
}

// NewApp builds a fiber app with every route registered.
func NewApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "expense-tracker",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes mounts the handlers on app.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/healthcheck", h.Health)

	app.Post("/notifications/healthcheck", h.trigger(scheduler.LoopHealthcheck))
	app.Post("/notifications/goals/trigger", h.trigger(scheduler.LoopGoals))
	app.Post("/notifications/recurring/trigger", h.trigger(scheduler.LoopRecurring))

	app.Get("/users/:userID/goals", h.UserGoals)
	app.Get("/users/:userID/level", h.UserLevel)

	app.Get("/deals/:dealID", h.Deal)
	app.Post("/deals/:dealID/alerts", h.DealAlerts)
}

// Health reports liveness.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy"})
}

func (h *Handler) trigger(loop string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := h.Scheduler.Trigger(c.UserContext(), loop); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": "triggered", "loop": loop})
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		message = fiberErr.Message
	case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrUnknownLoop):
		code = fiber.StatusNotFound
		message = err.Error()
	default:
		slog.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err)
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}

func idParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
