package rates

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the read-only quote feed.
type Handler struct {
	service *Service
}

// NewHandler builds a rates HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Latest returns the current exchange-rate quote.
func (h *Handler) Latest(c *fiber.Ctx) error {
	quote, err := h.service.Latest(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusServiceUnavailable, "exchange rates unavailable")
	}
	return c.Status(http.StatusOK).JSON(quote)
}
