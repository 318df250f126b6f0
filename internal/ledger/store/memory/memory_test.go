package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/sports-bet-ledger/internal/ledger/store"
	"github.com/radieske/sports-bet-ledger/internal/ledger/store/memory"
	"github.com/radieske/sports-bet-ledger/internal/ledger/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return memory.New() })
}

func TestTxClosedAfterCommit(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.NoError(t, tx.Rollback())
	_, err = tx.Load(ctx, "x")
	assert.ErrorIs(t, err, memory.ErrTxClosed)

	// o lock foi liberado
	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
}

func TestBeginHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := memory.New().Begin(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
