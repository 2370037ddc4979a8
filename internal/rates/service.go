package rates

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/egwallet/egwallet/internal/money"
)

const cacheKey = "rates:v1:" + money.DefaultCurrency

// Service serves exchange-rate quotes with a Redis cache in front of the
// upstream provider. On provider failure it falls back to the static
// table so the display layer always has something to show.
type Service struct {
	provider Provider
	fallback Provider
	cache    *redis.Client
	ttl      time.Duration
	logger   *slog.Logger
}

// NewService builds a rates service. cache may be nil, in which case every
// call hits the provider.
func NewService(provider Provider, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{provider: provider, fallback: StaticProvider{}, cache: cache, ttl: ttl, logger: logger}
}

// Latest returns the current quote filtered to the supported currencies.
func (s *Service) Latest(ctx context.Context) (Quote, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var quote Quote
			if err := json.Unmarshal([]byte(cached), &quote); err == nil {
				return quote, nil
			}
			s.logger.Warn("discarding undecodable cached quote")
		} else if err != redis.Nil {
			s.logger.Warn("rates cache lookup failed", "error", err)
		}
	}

	quote, err := s.provider.Latest(ctx)
	if err != nil {
		s.logger.Warn("rates feed unavailable, serving fallback", "error", err)
		return s.fallback.Latest(ctx)
	}
	quote = filter(quote)

	if s.cache != nil {
		if payload, err := json.Marshal(quote); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn("rates cache store failed", "error", err)
			}
		}
	}
	return quote, nil
}

// filter keeps only supported currencies and pins the base rate at 1.
func filter(quote Quote) Quote {
	out := Quote{Base: money.DefaultCurrency, Date: quote.Date,
		Rates: map[string]decimal.Decimal{money.DefaultCurrency: decimal.NewFromInt(1)}}
	for code, rate := range quote.Rates {
		if money.Supported(code) {
			out.Rates[code] = rate
		}
	}
	return out
}
