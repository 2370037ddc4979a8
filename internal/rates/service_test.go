package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/egwallet/egwallet/internal/logging"
)

type countingProvider struct {
	calls int
	quote Quote
	err   error
}

func (p *countingProvider) Latest(_ context.Context) (Quote, error) {
	p.calls++
	if p.err != nil {
		return Quote{}, p.err
	}
	return p.quote, nil
}

func testQuote() Quote {
	return Quote{
		Base: "USD",
		Date: "2025-06-01",
		Rates: map[string]decimal.Decimal{
			"EUR": decimal.RequireFromString("0.93"),
			"NGN": decimal.RequireFromString("1540.55"),
			"BTC": decimal.RequireFromString("0.00002"), // unsupported, must be dropped
		},
	}
}

func TestLatestFiltersUnsupportedCurrencies(t *testing.T) {
	provider := &countingProvider{quote: testQuote()}
	svc := NewService(provider, nil, time.Minute, logging.Discard())

	quote, err := svc.Latest(context.Background())
	require.NoError(t, err)
	require.Equal(t, "USD", quote.Base)
	require.True(t, quote.Rates["USD"].Equal(decimal.NewFromInt(1)))
	require.Contains(t, quote.Rates, "EUR")
	require.NotContains(t, quote.Rates, "BTC")
}

func TestLatestCachesQuote(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	provider := &countingProvider{quote: testQuote()}
	svc := NewService(provider, cache, time.Minute, logging.Discard())

	first, err := svc.Latest(context.Background())
	require.NoError(t, err)
	second, err := svc.Latest(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, provider.calls, "second call must be served from cache")
	require.Equal(t, first.Date, second.Date)
	require.True(t, first.Rates["EUR"].Equal(second.Rates["EUR"]))
}

func TestLatestFallsBackWhenFeedDown(t *testing.T) {
	provider := &countingProvider{err: errors.New("connection refused")}
	svc := NewService(provider, nil, time.Minute, logging.Discard())

	quote, err := svc.Latest(context.Background())
	require.NoError(t, err)
	require.Equal(t, "USD", quote.Base)
	require.Contains(t, quote.Rates, "XAF")
	require.True(t, quote.Rates["USD"].Equal(decimal.NewFromInt(1)))
}
