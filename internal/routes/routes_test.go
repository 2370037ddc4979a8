package routes

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/egwallet/egwallet/internal/config"
	"github.com/egwallet/egwallet/internal/logging"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	cfg := config.Config{AppEnv: "development", AppName: "EGWallet"}
	require.NoError(t, Setup(app, Deps{Cfg: cfg, Logger: logging.Discard()}))
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(payload) > 0 && payload[0] == '{' {
		require.NoError(t, json.Unmarshal(payload, &out))
	}
	return resp.StatusCode, out
}

func signup(t *testing.T, app *fiber.App, name, email, phone string) string {
	t.Helper()
	status, body := doJSON(t, app, fiber.MethodPost, "/api/v1/identity/signup",
		`{"name":"`+name+`","email":"`+email+`","phone":"`+phone+`","password":"correcthorse"}`)
	require.Equal(t, fiber.StatusCreated, status)
	id, _ := body["account_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestSignupConflict(t *testing.T) {
	app := newTestApp(t)
	signup(t, app, "Alice", "alice@example.com", "+1111111")

	status, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/identity/signup",
		`{"name":"Other","email":"alice@example.com","phone":"+9999999","password":"correcthorse"}`)
	require.Equal(t, fiber.StatusConflict, status)
}

func TestTransferLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	alice := signup(t, app, "Alice", "alice@example.com", "+1111111")
	bob := signup(t, app, "Bob", "bob@example.com", "+2222222")

	// Sender KYC must be approved before submitting.
	status, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/transfers",
		`{"sender_id":"`+alice+`","recipient_id":"`+bob+`","amount":50,"currency":"USD"}`)
	require.Equal(t, fiber.StatusForbidden, status)

	status, body := doJSON(t, app, fiber.MethodPatch, "/api/v1/accounts/"+alice+"/kyc", `{"status":"approved"}`)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "approved", body["kyc_status"])

	// Cap violation.
	status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/transfers",
		`{"sender_id":"`+alice+`","recipient_id":"`+bob+`","amount":300000,"currency":"USD"}`)
	require.Equal(t, fiber.StatusUnprocessableEntity, status)

	// Self transfer.
	status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/transfers",
		`{"sender_id":"`+alice+`","recipient_id":"`+alice+`","amount":50,"currency":"USD"}`)
	require.Equal(t, fiber.StatusBadRequest, status)

	// Valid submission stays pending; no funds are held.
	status, body = doJSON(t, app, fiber.MethodPost, "/api/v1/transfers",
		`{"sender_id":"`+alice+`","recipient_id":"`+bob+`","amount":50,"currency":"USD"}`)
	require.Equal(t, fiber.StatusCreated, status)
	require.Equal(t, "pending", body["status"])
	txID, _ := body["id"].(string)
	require.NotEmpty(t, txID)

	// Approval settles; the zero-balance sender fails settlement and the
	// failure lands on the transaction, not the HTTP call.
	status, body = doJSON(t, app, fiber.MethodPost, "/api/v1/transfers/"+txID+"/approve", `{"admin_id":"admin-1"}`)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "failed", body["status"])
	require.Contains(t, body["reason"], "insufficient funds")

	// Terminal approval replays the same outcome.
	status, body = doJSON(t, app, fiber.MethodPost, "/api/v1/transfers/"+txID+"/approve", `{"admin_id":"admin-2"}`)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "failed", body["status"])

	// History is visible to both parties.
	status, body = doJSON(t, app, fiber.MethodGet, "/api/v1/accounts/"+bob+"/transfers", "")
	require.Equal(t, fiber.StatusOK, status)
	txs, _ := body["transactions"].([]any)
	require.Len(t, txs, 1)
}

func TestGetAccountNotFound(t *testing.T) {
	app := newTestApp(t)
	status, _ := doJSON(t, app, fiber.MethodGet, "/api/v1/accounts/00000000-0000-0000-0000-000000000000", "")
	require.Equal(t, fiber.StatusNotFound, status)
}
