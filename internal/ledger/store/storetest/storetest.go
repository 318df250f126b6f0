// Package storetest contém a suíte de contrato que todo backend de store.Store deve passar.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/sports-bet-ledger/internal/ledger/address"
	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
	"github.com/radieske/sports-bet-ledger/internal/ledger/store"
)

// Run executa a suíte contra um store novo por subteste.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, newStore(t)) })
	t.Run("RollbackDiscardsWrites", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("ReadYourWrites", func(t *testing.T) { testReadYourWrites(t, newStore(t)) })
	t.Run("DelegatedWriteGuard", func(t *testing.T) { testDelegationGuard(t, newStore(t)) })
	t.Run("ListByKind", func(t *testing.T) { testList(t, newStore(t)) })
}

func counter(t *testing.T, owner, name string, value uint64) *domain.Counter {
	t.Helper()
	key, err := address.CounterKey(owner, name)
	require.NoError(t, err)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Counter{
		Meta:    domain.Meta{Key: key, CreatedAt: now, UpdatedAt: now},
		Owner:   owner,
		Name:    name,
		Value:   value,
		Ceiling: 100,
	}
}

func put(t *testing.T, s store.Store, rec domain.Record) {
	t.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()
	require.NoError(t, store.Put(ctx, tx, rec))
	require.NoError(t, tx.Commit())
}

func get(t *testing.T, s store.Store, key address.Key) (*domain.Counter, error) {
	t.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()
	var c domain.Counter
	if err := store.Get(ctx, tx, key, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func testRoundTrip(t *testing.T, s store.Store) {
	c := counter(t, "alice", "clicks", 7)
	put(t, s, c)

	got, err := get(t, s, c.Key)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got.Value)
	assert.Equal(t, "alice", got.Owner)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))

	missing, _ := address.CounterKey("nobody", "x")
	_, err = get(t, s, missing)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func testRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	c := counter(t, "bob", "clicks", 1)
	put(t, s, c)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	c.Value = 99
	require.NoError(t, store.Put(ctx, tx, c))
	require.NoError(t, tx.Rollback())

	got, err := get(t, s, c.Key)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.Value)
}

func testReadYourWrites(t *testing.T, s store.Store) {
	ctx := context.Background()
	c := counter(t, "carol", "clicks", 3)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	ok, err := store.Exists(ctx, tx, c.Key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, tx, c))
	var got domain.Counter
	require.NoError(t, store.Get(ctx, tx, c.Key, &got))
	assert.Equal(t, uint64(3), got.Value)
	require.NoError(t, tx.Commit())
}

func testDelegationGuard(t *testing.T, s store.Store) {
	ctx := context.Background()
	c := counter(t, "dave", "clicks", 0)
	put(t, s, c)

	c.Delegation = domain.Delegation{State: domain.Delegated, Owner: "dave", Epoch: 1}
	put(t, s, c)

	got, err := get(t, s, c.Key)
	require.NoError(t, err)
	assert.True(t, got.Delegation.IsDelegated())
	assert.Equal(t, uint64(1), got.Delegation.Epoch)

	// escrita comum sobre registro delegado
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	c.Value = 5
	err = store.Put(ctx, tx, c)
	assert.ErrorIs(t, err, domain.ErrRecordDelegated)
	require.NoError(t, tx.Rollback())

	// commit com epoch errado
	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	c.Delegation = domain.Delegation{Epoch: 2}
	err = store.Put(ctx, tx, c)
	assert.ErrorIs(t, err, domain.ErrInvalidRollupData)
	require.NoError(t, tx.Rollback())

	// commit válido devolve o registro ao contexto primário
	c.Delegation = domain.Delegation{Epoch: 1}
	c.Value = 5
	put(t, s, c)
	got, err = get(t, s, c.Key)
	require.NoError(t, err)
	assert.False(t, got.Delegation.IsDelegated())
	assert.Equal(t, uint64(5), got.Value)
}

func testList(t *testing.T, s store.Store) {
	put(t, s, counter(t, "erin", "a", 1))
	put(t, s, counter(t, "erin", "b", 2))

	entries, err := s.List(context.Background(), domain.KindCounter)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Less(t, string(entries[0].Key), string(entries[1].Key))

	for _, e := range entries {
		rec, err := store.DecodeAny(e)
		require.NoError(t, err)
		assert.Equal(t, domain.KindCounter, rec.Kind())
	}

	none, err := s.List(context.Background(), domain.KindMatch)
	require.NoError(t, err)
	assert.Empty(t, none)
}
