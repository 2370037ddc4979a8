package ledger

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/egwallet/egwallet/internal/account"
	"github.com/egwallet/egwallet/internal/journal"
	"github.com/egwallet/egwallet/internal/policy"
)

// Handler exposes transfer endpoints.
type Handler struct {
	engine   *Engine
	validate *validator.Validate
}

// NewHandler constructs a transfer handler.
func NewHandler(engine *Engine, validate *validator.Validate) *Handler {
	return &Handler{engine: engine, validate: validate}
}

type submitRequest struct {
	SenderID    string          `json:"sender_id" validate:"required"`
	RecipientID string          `json:"recipient_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Currency    string          `json:"currency" validate:"required,len=3"`
}

type decisionRequest struct {
	AdminID string `json:"admin_id" validate:"required"`
	Reason  string `json:"reason"`
}

type transactionResponse struct {
	ID          string          `json:"id"`
	SenderID    string          `json:"sender_id"`
	RecipientID string          `json:"recipient_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	Reason      string          `json:"reason,omitempty"`
	AdminID     string          `json:"admin_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	ApprovedAt  *time.Time      `json:"approved_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

func toResponse(tx journal.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		SenderID:    tx.SenderID,
		RecipientID: tx.RecipientID,
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Status:      string(tx.Status),
		Reason:      tx.Reason,
		AdminID:     tx.AdminID,
		CreatedAt:   tx.CreatedAt,
		ApprovedAt:  tx.ApprovedAt,
		CompletedAt: tx.CompletedAt,
	}
}

// Submit validates and records a transfer as pending admin approval.
func (h *Handler) Submit(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	tx, err := h.engine.Submit(c.UserContext(), req.SenderID, req.RecipientID, req.Amount, req.Currency)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "account not found")
		case errors.Is(err, policy.ErrKYCRequired):
			return fiber.NewError(http.StatusForbidden, err.Error())
		case errors.Is(err, policy.ErrLimitExceeded):
			return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, policy.ErrSelfTransfer), errors.Is(err, policy.ErrValidation):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusCreated).JSON(toResponse(tx))
}

// Approve drives a pending transfer through approval and settlement.
func (h *Handler) Approve(c *fiber.Ctx) error {
	var req decisionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	tx, err := h.engine.Approve(c.UserContext(), c.Params("txId"), req.AdminID)
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "transaction not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toResponse(tx))
}

// Reject finalizes a pending transfer without settlement.
func (h *Handler) Reject(c *fiber.Ctx) error {
	var req decisionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	tx, err := h.engine.Reject(c.UserContext(), c.Params("txId"), req.AdminID, req.Reason)
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "transaction not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toResponse(tx))
}

// Get returns one transaction.
func (h *Handler) Get(c *fiber.Ctx) error {
	tx, err := h.engine.Get(c.UserContext(), c.Params("txId"))
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "transaction not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toResponse(tx))
}

// List returns the account's transactions, newest first.
func (h *Handler) List(c *fiber.Ctx) error {
	txs, err := h.engine.List(c.UserContext(), c.Params("accountId"))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "account not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toResponse(tx))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": out})
}
