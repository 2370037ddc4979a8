package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a read-only snapshot of exchange rates against the base
// currency. It is display data only: the ledger never converts amounts.
type Quote struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Provider fetches the latest quote from an upstream feed.
type Provider interface {
	Latest(ctx context.Context) (Quote, error)
}

// HTTPProvider pulls quotes from a frankfurter-style endpoint
// (GET <url> returning {"base","date","rates":{code:rate}}).
type HTTPProvider struct {
	url    string
	client *http.Client
}

// NewHTTPProvider builds an HTTP quote provider.
func NewHTTPProvider(url string) *HTTPProvider {
	return &HTTPProvider{url: url, client: &http.Client{Timeout: 10 * time.Second}}
}

// Latest fetches and decodes the current quote.
func (p *HTTPProvider) Latest(ctx context.Context) (Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return Quote{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("rates feed returned status %d", resp.StatusCode)
	}

	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return Quote{}, fmt.Errorf("decode rates: %w", err)
	}
	return quote, nil
}

// StaticProvider serves a fixed fallback table for when the upstream feed
// is unreachable.
type StaticProvider struct{}

// Latest returns the fallback quote.
func (StaticProvider) Latest(_ context.Context) (Quote, error) {
	return Quote{
		Base: "USD",
		Date: time.Now().UTC().Format("2006-01-02"),
		Rates: map[string]decimal.Decimal{
			"USD": decimal.NewFromInt(1),
			"EUR": decimal.RequireFromString("0.92"),
			"CNY": decimal.RequireFromString("7.24"),
			"ZAR": decimal.RequireFromString("18.50"),
			"GHS": decimal.RequireFromString("12.00"),
			"NGN": decimal.RequireFromString("1550.00"),
			"XOF": decimal.RequireFromString("606.00"),
			"XAF": decimal.RequireFromString("606.00"),
		},
	}, nil
}
