package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/egwallet/egwallet/internal/identity"
)

// RegisterIdentityRoutes wires signup and rate-limited signin.
func RegisterIdentityRoutes(r fiber.Router, h *identity.Handler, signinLimiter fiber.Handler) {
	r.Post("/identity/signup", h.Signup)
	r.Post("/identity/signin", signinLimiter, h.Signin)
}
