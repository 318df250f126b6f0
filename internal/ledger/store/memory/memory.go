// Package memory implementa store.Store em memória, usado em testes e no modo local.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/radieske/sports-bet-ledger/internal/ledger/address"
	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
	"github.com/radieske/sports-bet-ledger/internal/ledger/store"
)

var ErrTxClosed = errors.New("memory store: transaction already closed")

// Store serializa transações com um único lock: a Tx segura o lock do Begin até Commit/Rollback.
type Store struct {
	mu   sync.Mutex
	data map[address.Key]store.Entry
}

func New() *Store {
	return &Store{data: make(map[address.Key]store.Entry)}
}

func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return &tx{s: s, writes: make(map[address.Key]store.Entry)}, nil
}

func (s *Store) List(ctx context.Context, kind domain.Kind) ([]store.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]store.Entry, 0)
	for _, e := range s.data {
		if e.Kind == kind {
			out = append(out, clone(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Store) Close() error { return nil }

type tx struct {
	s      *Store
	writes map[address.Key]store.Entry
	done   bool
}

func (t *tx) Load(ctx context.Context, key address.Key) (store.Entry, error) {
	if t.done {
		return store.Entry{}, ErrTxClosed
	}
	if e, ok := t.writes[key]; ok {
		return clone(e), nil
	}
	if e, ok := t.s.data[key]; ok {
		return clone(e), nil
	}
	return store.Entry{}, domain.ErrAccountNotFound
}

func (t *tx) Save(ctx context.Context, e store.Entry) error {
	if t.done {
		return ErrTxClosed
	}
	var prev *store.Entry
	if p, err := t.Load(ctx, e.Key); err == nil {
		prev = &p
	}
	if err := store.CheckWrite(prev, e); err != nil {
		return err
	}
	t.writes[e.Key] = clone(e)
	return nil
}

func (t *tx) Commit() error {
	if t.done {
		return ErrTxClosed
	}
	for k, e := range t.writes {
		t.s.data[k] = e
	}
	t.close()
	return nil
}

// Rollback após Commit é no-op, para permitir defer tx.Rollback().
func (t *tx) Rollback() error {
	if t.done {
		return nil
	}
	t.close()
	return nil
}

func (t *tx) close() {
	t.done = true
	t.writes = nil
	t.s.mu.Unlock()
}

func clone(e store.Entry) store.Entry {
	e.Body = append([]byte(nil), e.Body...)
	if e.Delegation.DelegatedAt != nil {
		at := *e.Delegation.DelegatedAt
		e.Delegation.DelegatedAt = &at
	}
	return e
}
