package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
	"github.com/radieske/sports-bet-ledger/internal/ledger/rollup"
	"github.com/radieske/sports-bet-ledger/pkg/contracts/events"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Applier executa a operação no contexto de rollup (o *engine.Engine).
// opID deduplica: repetir uma operação já aplicada não incrementa de novo.
type Applier interface {
	RollupIncrement(ctx context.Context, signer, recordKey, opID string) (rollup.Snapshot, error)
}

// Processor consome operações de rollup do Kafka e as aplica no contexto secundário.
// Cada operação gera um RollupResult; erros de infraestrutura esgotadas as tentativas
// e mensagens ilegíveis vão para a DLQ.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log     *zap.Logger
	Reader  MessageReader
	Applier Applier
	Results MessageWriter
	DLQ     MessageWriter // opcional

	Retries int           // tentativas extras para erros Internal (default 3)
	Backoff time.Duration // base do backoff linear (default 300ms)

	OnConsumed func()       // métricas (counter++)
	OnApplied  func()       // métricas
	OnRejected func(string) // métricas por Code
	OnError    func(string) // métricas por fase
}

// Run inicia o loop principal de consumo e processamento das mensagens Kafka
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.onError("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed()
		}
		if err := p.Handle(ctx, m); err != nil {
			p.Log.Error("rollup op failed", zap.ByteString("key", m.Key), zap.Error(err))
		}
	}
}

// Handle processa uma mensagem. O erro retornado já foi encaminhado para a DLQ.
func (p *Processor) Handle(ctx context.Context, m kafka.Message) error {
	var op events.RollupOp
	if err := json.Unmarshal(m.Value, &op); err != nil {
		p.onError("decode")
		p.deadLetter(ctx, m, "decode: "+err.Error())
		return fmt.Errorf("decode rollup op: %w", err)
	}

	res := events.RollupResult{OpID: op.OpID, RecordKey: op.RecordKey}
	if op.Op != events.RollupOpIncrement {
		res.Code = string(domain.CodeInvalidRollupData)
		res.Error = fmt.Sprintf("unsupported op %q", op.Op)
		p.reject(res.Code)
		return p.publish(ctx, res)
	}

	snap, err := p.apply(ctx, op)
	switch code := domain.CodeOf(err); code {
	case domain.CodeOK:
		res.Code = string(code)
		res.Epoch, res.Ops, res.Replayed = snap.Epoch, snap.Ops, snap.Replayed
		if p.OnApplied != nil {
			p.OnApplied()
		}
	case domain.CodeInternal:
		p.onError("apply")
		p.deadLetter(ctx, m, err.Error())
		return fmt.Errorf("apply %s: %w", op.OpID, err)
	default:
		// rejeição do ledger é resultado final, não vai para a DLQ
		res.Code, res.Error = string(code), err.Error()
		p.reject(res.Code)
	}
	return p.publish(ctx, res)
}

// apply tenta de novo só os erros sem Code (Redis fora, timeout...). A repetição é segura:
// o rollup reconhece o OpID se a tentativa anterior chegou a ser aplicada.
func (p *Processor) apply(ctx context.Context, op events.RollupOp) (rollup.Snapshot, error) {
	retries, backoff := p.Retries, p.Backoff
	if retries <= 0 {
		retries = 3
	}
	if backoff <= 0 {
		backoff = 300 * time.Millisecond
	}
	snap, err := p.Applier.RollupIncrement(ctx, op.Signer, op.RecordKey, op.OpID)
	for i := 0; i < retries && domain.CodeOf(err) == domain.CodeInternal; i++ {
		select {
		case <-ctx.Done():
			return rollup.Snapshot{}, ctx.Err()
		case <-time.After(time.Duration(i+1) * backoff):
		}
		snap, err = p.Applier.RollupIncrement(ctx, op.Signer, op.RecordKey, op.OpID)
	}
	return snap, err
}

func (p *Processor) publish(ctx context.Context, res events.RollupResult) error {
	b, err := json.Marshal(res)
	if err != nil {
		return err
	}
	if err := p.Results.WriteMessages(ctx, kafka.Message{Key: []byte(res.RecordKey), Value: b}); err != nil {
		p.onError("publish")
		return fmt.Errorf("publish rollup result: %w", err)
	}
	return nil
}

func (p *Processor) deadLetter(ctx context.Context, m kafka.Message, reason string) {
	if p.DLQ == nil {
		return
	}
	dl := kafka.Message{
		Key:     m.Key,
		Value:   m.Value,
		Headers: append(m.Headers, kafka.Header{Key: "error", Value: []byte(reason)}),
	}
	if err := p.DLQ.WriteMessages(ctx, dl); err != nil {
		p.Log.Warn("dlq write failed", zap.Error(err))
		p.onError("dlq")
	}
}

func (p *Processor) reject(code string) {
	if p.OnRejected != nil {
		p.OnRejected(code)
	}
}

func (p *Processor) onError(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
