package consumer_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
	"github.com/radieske/sports-bet-ledger/internal/ledger/engine"
	"github.com/radieske/sports-bet-ledger/internal/ledger/oracle"
	"github.com/radieske/sports-bet-ledger/internal/ledger/rollup"
	"github.com/radieske/sports-bet-ledger/internal/ledger/store/memory"
	"github.com/radieske/sports-bet-ledger/internal/rollup-worker/consumer"
	"github.com/radieske/sports-bet-ledger/pkg/contracts/events"
)

type sink struct{ msgs []kafka.Message }

func (s *sink) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	s.msgs = append(s.msgs, msgs...)
	return nil
}

func (s *sink) results(t *testing.T) []events.RollupResult {
	t.Helper()
	out := make([]events.RollupResult, 0, len(s.msgs))
	for _, m := range s.msgs {
		var r events.RollupResult
		require.NoError(t, json.Unmarshal(m.Value, &r))
		out = append(out, r)
	}
	return out
}

// chanReader entrega as mensagens em ordem e bloqueia até o ctx acabar.
type chanReader struct{ ch chan kafka.Message }

func (r *chanReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.ch:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

type mockApplier struct{ mock.Mock }

func (m *mockApplier) RollupIncrement(ctx context.Context, signer, key, opID string) (rollup.Snapshot, error) {
	args := m.Called(ctx, signer, key, opID)
	return args.Get(0).(rollup.Snapshot), args.Error(1)
}

func opMessage(t *testing.T, op events.RollupOp) kafka.Message {
	t.Helper()
	b, err := json.Marshal(op)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(op.RecordKey), Value: b}
}

func TestProcessor_AppliesAgainstEngine(t *testing.T) {
	ctx := context.Background()
	eng, err := engine.New(engine.Deps{
		Store:  memory.New(),
		Oracle: oracle.NewStatic(decimal.NewFromInt(2)),
		Rollup: rollup.NewMemoryContext(nil),
	})
	require.NoError(t, err)
	c, err := eng.CreateCounter(ctx, "alice", "clicks", 0)
	require.NoError(t, err)
	_, err = eng.Delegate(ctx, "alice", c.Key.String(), "rollup-worker")
	require.NoError(t, err)

	results := &sink{}
	applied := 0
	rejected := map[string]int{}
	reader := &chanReader{ch: make(chan kafka.Message, 4)}
	p := &consumer.Processor{
		Log:        zap.NewNop(),
		Reader:     reader,
		Applier:    eng,
		Results:    results,
		OnApplied:  func() { applied++ },
		OnRejected: func(code string) { rejected[code]++ },
	}

	reader.ch <- opMessage(t, events.RollupOp{OpID: "1", Op: events.RollupOpIncrement, RecordKey: c.Key.String(), Signer: "rollup-worker"})
	reader.ch <- opMessage(t, events.RollupOp{OpID: "2", Op: events.RollupOpIncrement, RecordKey: c.Key.String(), Signer: "rollup-worker"})
	reader.ch <- opMessage(t, events.RollupOp{OpID: "3", Op: events.RollupOpIncrement, RecordKey: c.Key.String(), Signer: "mallory"})
	reader.ch <- opMessage(t, events.RollupOp{OpID: "4", Op: "reset", RecordKey: c.Key.String(), Signer: "alice"})

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- p.Run(runCtx) }()
	require.Eventually(t, func() bool { return len(reader.ch) == 0 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	got := results.results(t)
	require.Len(t, got, 4)
	assert.Equal(t, "OK", got[0].Code)
	assert.Equal(t, uint64(1), got[0].Epoch)
	assert.Equal(t, uint64(2), got[1].Ops)
	assert.Equal(t, "Unauthorized", got[2].Code)
	assert.Equal(t, "InvalidRollupData", got[3].Code)
	assert.Equal(t, 2, applied)
	assert.Equal(t, map[string]int{"Unauthorized": 1, "InvalidRollupData": 1}, rejected)

	committed, err := eng.CommitAndUndelegate(ctx, "rollup-worker", c.Key.String())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), committed.(*domain.Counter).Value)
}

func TestProcessor_RetriesThenDeadLetters(t *testing.T) {
	ctx := context.Background()
	app := &mockApplier{}
	app.On("RollupIncrement", ctx, "w", "k", "x").Return(rollup.Snapshot{}, errors.New("redis: connection refused")).Times(3)

	results, dlq := &sink{}, &sink{}
	stages := []string{}
	p := &consumer.Processor{
		Log: zap.NewNop(), Applier: app, Results: results, DLQ: dlq,
		Retries: 2, Backoff: time.Millisecond,
		OnError: func(stage string) { stages = append(stages, stage) },
	}
	msg := opMessage(t, events.RollupOp{OpID: "x", Op: events.RollupOpIncrement, RecordKey: "k", Signer: "w"})

	err := p.Handle(ctx, msg)
	require.Error(t, err)
	app.AssertExpectations(t)
	assert.Empty(t, results.msgs)
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, msg.Value, dlq.msgs[0].Value)
	assert.Equal(t, []string{"apply"}, stages)
}

func TestProcessor_RecoversAfterTransientError(t *testing.T) {
	ctx := context.Background()
	app := &mockApplier{}
	app.On("RollupIncrement", ctx, "w", "k", "y").Return(rollup.Snapshot{}, errors.New("timeout")).Once()
	app.On("RollupIncrement", ctx, "w", "k", "y").Return(rollup.Snapshot{Key: "k", Epoch: 3, Ops: 7}, nil).Once()

	results := &sink{}
	p := &consumer.Processor{Log: zap.NewNop(), Applier: app, Results: results, Backoff: time.Millisecond}
	require.NoError(t, p.Handle(ctx, opMessage(t, events.RollupOp{OpID: "y", Op: events.RollupOpIncrement, RecordKey: "k", Signer: "w"})))

	got := results.results(t)
	require.Len(t, got, 1)
	assert.Equal(t, events.RollupResult{OpID: "y", RecordKey: "k", Epoch: 3, Ops: 7, Code: "OK"}, got[0])
}

func TestProcessor_UndecodableGoesToDLQ(t *testing.T) {
	dlq := &sink{}
	p := &consumer.Processor{Log: zap.NewNop(), Results: &sink{}, DLQ: dlq}

	err := p.Handle(context.Background(), kafka.Message{Key: []byte("k"), Value: []byte("{not json")})
	require.Error(t, err)
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "error", dlq.msgs[0].Headers[0].Key)
}

// lostReply aplica de verdade e depois devolve erro de rede, como um EXEC confirmado
// cuja resposta se perdeu.
type lostReply struct {
	eng   *engine.Engine
	fails int
	calls int
}

func (l *lostReply) RollupIncrement(ctx context.Context, signer, key, opID string) (rollup.Snapshot, error) {
	l.calls++
	snap, err := l.eng.RollupIncrement(ctx, signer, key, opID)
	if err == nil && l.calls <= l.fails {
		return rollup.Snapshot{}, errors.New("read tcp 10.0.0.7:6379: i/o timeout")
	}
	return snap, err
}

func TestProcessor_RetryAfterLostReplyAppliesOnce(t *testing.T) {
	ctx := context.Background()
	eng, err := engine.New(engine.Deps{
		Store:  memory.New(),
		Oracle: oracle.NewStatic(decimal.NewFromInt(2)),
		Rollup: rollup.NewMemoryContext(nil),
	})
	require.NoError(t, err)
	c, err := eng.CreateCounter(ctx, "alice", "clicks", 0)
	require.NoError(t, err)
	_, err = eng.Delegate(ctx, "alice", c.Key.String(), "rollup-worker")
	require.NoError(t, err)

	app := &lostReply{eng: eng, fails: 1}
	results := &sink{}
	p := &consumer.Processor{Log: zap.NewNop(), Applier: app, Results: results, Retries: 2, Backoff: time.Millisecond}

	op := events.RollupOp{OpID: "op-1", Op: events.RollupOpIncrement, RecordKey: c.Key.String(), Signer: "rollup-worker"}
	require.NoError(t, p.Handle(ctx, opMessage(t, op)))
	// reentrega do Kafka da mesma mensagem
	require.NoError(t, p.Handle(ctx, opMessage(t, op)))
	assert.Equal(t, 3, app.calls)

	got := results.results(t)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, "OK", r.Code)
		assert.Equal(t, uint64(1), r.Ops)
		assert.True(t, r.Replayed)
	}

	committed, err := eng.CommitAndUndelegate(ctx, "rollup-worker", c.Key.String())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), committed.(*domain.Counter).Value)
}
