package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/radieske/sports-bet-ledger/internal/ledger/address"
	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
	"github.com/radieske/sports-bet-ledger/internal/ledger/safemath"
	"github.com/radieske/sports-bet-ledger/internal/ledger/store"
	"github.com/radieske/sports-bet-ledger/pkg/contracts/events"
)

// CreateCounter cria o contador (signer, name). ceiling 0 vira math.MaxUint64.
func (e *Engine) CreateCounter(ctx context.Context, signer, name string, ceiling uint64) (*domain.Counter, error) {
	var out *domain.Counter
	err := e.exec(ctx, "createCounter", signer, func(tx store.Tx, fx *effects) error {
		if name == "" {
			return fmt.Errorf("%w: counter name is required", domain.ErrInvalidGameData)
		}
		key, err := derive(func() (address.Key, error) { return address.CounterKey(signer, name) })
		if err != nil {
			return err
		}
		exists, err := store.Exists(ctx, tx, key)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: counter %s/%s", domain.ErrAccountAlreadyExists, signer, name)
		}
		if ceiling == 0 {
			ceiling = math.MaxUint64
		}
		now := e.now()
		c := &domain.Counter{
			Meta:    domain.Meta{Key: key, CreatedAt: now, UpdatedAt: now},
			Owner:   signer,
			Name:    name,
			Ceiling: ceiling,
		}
		if err := store.Put(ctx, tx, c); err != nil {
			return err
		}
		fx.emit(e.event(events.CounterCreated, "createCounter", key))
		out = c
		return nil
	})
	return out, err
}

// IncrementCounter incrementa no contexto primário; falha se o contador estiver delegado.
func (e *Engine) IncrementCounter(ctx context.Context, signer, counterKey string) (*domain.Counter, error) {
	var out *domain.Counter
	err := e.exec(ctx, "incrementCounter", signer, func(tx store.Tx, fx *effects) error {
		key, err := parseKey(counterKey)
		if err != nil {
			return err
		}
		var c domain.Counter
		if err := store.Get(ctx, tx, key, &c); err != nil {
			return err
		}
		if c.Owner != signer {
			return fmt.Errorf("%w: counter belongs to %s", domain.ErrUnauthorized, c.Owner)
		}
		if err := domain.EnsureOwned(&c); err != nil {
			return err
		}
		c.Value = safemath.WrappingInc(c.Value, c.Ceiling)
		touch(&c.Meta, e.now())
		if err := store.Put(ctx, tx, &c); err != nil {
			return err
		}
		ev := e.event(events.CounterIncremented, "incrementCounter", key)
		ev.Amount = c.Value
		fx.emit(ev)
		out = &c
		return nil
	})
	return out, err
}

func (e *Engine) Counter(ctx context.Context, counterKey string) (*domain.Counter, error) {
	var out domain.Counter
	err := e.view(ctx, func(tx store.Tx) error {
		key, err := parseKey(counterKey)
		if err != nil {
			return err
		}
		return store.Get(ctx, tx, key, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
