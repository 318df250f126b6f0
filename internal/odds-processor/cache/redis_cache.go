package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/radieske/sports-bet-ledger/internal/ledger/oracle"
	"github.com/radieske/sports-bet-ledger/pkg/contracts/events"
)

// RedisCache grava a cotação corrente na chave lida pelo oracle.RedisOracle.
// Client: cliente Redis
// TTL: tempo de expiração dos registros; cotação vencida some e a aposta falha no oráculo
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisCache cria uma instância de cache Redis com TTL configurável
func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

// QueryOf traduz o evento do feed na consulta do oráculo.
func QueryOf(e events.OddsUpdate) oracle.Query {
	return oracle.Query{MatchID: e.MatchID, BetType: e.BetType, Subject: e.Subject, Threshold: e.Threshold}
}

// ParseOdds valida a odd do evento: decimal positivo.
func ParseOdds(e events.OddsUpdate) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(e.Odds)
	if err != nil {
		return decimal.Zero, fmt.Errorf("odds %q: %w", e.Odds, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("odds %q must be positive", e.Odds)
	}
	return d, nil
}

// SetCurrent armazena a odd atual da seleção no Redis com TTL definido
func (r *RedisCache) SetCurrent(ctx context.Context, e events.OddsUpdate) error {
	d, err := ParseOdds(e)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, oracle.QuoteKey(QueryOf(e)), d.String(), r.TTL).Err()
}
