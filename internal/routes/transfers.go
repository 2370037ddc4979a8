package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/egwallet/egwallet/internal/ledger"
)

// RegisterTransferRoutes wires the transfer lifecycle endpoints.
func RegisterTransferRoutes(r fiber.Router, h *ledger.Handler) {
	r.Post("/transfers", h.Submit)
	r.Get("/transfers/:txId", h.Get)
	r.Post("/transfers/:txId/approve", h.Approve)
	r.Post("/transfers/:txId/reject", h.Reject)
	r.Get("/accounts/:accountId/transfers", h.List)
}
