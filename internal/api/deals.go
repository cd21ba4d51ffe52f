package api

import (
	"github.com/gofiber/fiber/v2"
)

// Deal returns a deal with its vote tallies.
func (h *Handler) Deal(c *fiber.Ctx) error {
	dealID, err := idParam(c, "dealID")
	if err != nil {
		return err
	}

	view, err := h.Store.GetDealView(c.UserContext(), dealID)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// DealAlerts queues alerts for subscribers near a deal.
func (h *Handler) DealAlerts(c *fiber.Ctx) error {
	dealID, err := idParam(c, "dealID")
	if err != nil {
		return err
	}

	notified, err := h.Alerter.NotifyNewDeal(c.UserContext(), dealID)
	if err != nil {
		return err
	}
	if notified == nil {
		notified = []int64{}
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"notified_users": notified})
}
