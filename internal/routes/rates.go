package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/egwallet/egwallet/internal/rates"
)

// RegisterRatesRoutes wires the read-only exchange-rate feed.
func RegisterRatesRoutes(r fiber.Router, h *rates.Handler) {
	r.Get("/exchange-rates", h.Latest)
}
