// Package oracle adapta fontes externas de odds para o ledger.
// O ledger consulta a odd uma única vez, na criação da aposta; não há retry aqui.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
)

var errNoQuote = errors.New("no quote")

// Query identifica a cotação pedida.
type Query struct {
	MatchID   string
	BetType   string
	Subject   string // time apostado ou nome do jogador
	Threshold uint64
}

// Oracle é a interface consumida pelo engine.
type Oracle interface {
	GetOdds(ctx context.Context, q Query) (decimal.Decimal, error)
}

// QuoteKey é a chave Redis de uma cotação: "odds:{matchId}:{betType}:{subject}:{threshold}".
// O odds-processor escreve nestas chaves e o RedisOracle lê delas.
func QuoteKey(q Query) string {
	return fmt.Sprintf("odds:%s:%s:%s:%s", q.MatchID, q.BetType, q.Subject, strconv.FormatUint(q.Threshold, 10))
}

// verify normaliza a resposta de qualquer fonte: erro ou odd não positiva viram OracleVerificationFailed.
func verify(q Query, odds decimal.Decimal, err error) (decimal.Decimal, error) {
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", domain.ErrOracleVerificationFailed, QuoteKey(q), err)
	}
	if !odds.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s: non-positive odds %s", domain.ErrOracleVerificationFailed, QuoteKey(q), odds)
	}
	return odds, nil
}

// RedisOracle lê a odd corrente gravada pelo odds-processor, ex: "1.85".
type RedisOracle struct {
	Rdb *redis.Client
}

func NewRedisOracle(r *redis.Client) *RedisOracle { return &RedisOracle{Rdb: r} }

func (o *RedisOracle) GetOdds(ctx context.Context, q Query) (decimal.Decimal, error) {
	val, err := o.Rdb.Get(ctx, QuoteKey(q)).Result()
	if err != nil {
		return verify(q, decimal.Zero, err)
	}
	odds, err := decimal.NewFromString(val)
	return verify(q, odds, err)
}

// Static é uma tabela fixa de cotações, usada em modo local e testes.
// Consultas sem entrada caem em Default quando ele é positivo.
type Static struct {
	mu      sync.RWMutex
	quotes  map[string]decimal.Decimal
	Default decimal.Decimal
}

func NewStatic(def decimal.Decimal) *Static {
	return &Static{quotes: make(map[string]decimal.Decimal), Default: def}
}

func (s *Static) Set(q Query, odds decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[QuoteKey(q)] = odds
}

func (s *Static) GetOdds(_ context.Context, q Query) (decimal.Decimal, error) {
	s.mu.RLock()
	odds, ok := s.quotes[QuoteKey(q)]
	s.mu.RUnlock()
	if !ok {
		if s.Default.IsZero() {
			return verify(q, decimal.Zero, errNoQuote)
		}
		odds = s.Default
	}
	return verify(q, odds, nil)
}

// Func adapta uma função ao Oracle.
type Func func(ctx context.Context, q Query) (decimal.Decimal, error)

func (f Func) GetOdds(ctx context.Context, q Query) (decimal.Decimal, error) {
	odds, err := f(ctx, q)
	return verify(q, odds, err)
}
