package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/egwallet/egwallet/internal/account"
)

// RegisterAccountRoutes wires account endpoints.
func RegisterAccountRoutes(r fiber.Router, h *account.Handler) {
	r.Post("/accounts", h.Create)
	r.Get("/accounts/:accountId", h.Get)
	r.Patch("/accounts/:accountId/kyc", h.UpdateKYC)
}
