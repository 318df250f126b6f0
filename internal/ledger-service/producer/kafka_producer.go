package producer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/radieske/sports-bet-ledger/pkg/contracts/events"
)

// MessageWriter é o subconjunto do *kafka.Writer usado aqui.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher publica cada LedgerEvent no tópico ledger_events, chaveado pelo registro
// para manter a ordem por registro dentro da partição.
type KafkaPublisher struct {
	Writer MessageWriter
	Topic  string
}

func NewKafkaPublisher(w MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e events.LedgerEvent) error {
	if e.TsUnixMs == 0 {
		e.TsUnixMs = time.Now().UnixMilli()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.RecordKey),
		Value: b,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	})
}

// RedisBroadcaster repassa os eventos no Pub/Sub consumido pelo ledger-events (WebSocket).
type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, e events.LedgerEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.r.Publish(ctx, b.channel, payload).Err()
}

// Publisher é o contrato comum aos destinos de eventos.
type Publisher interface {
	Publish(ctx context.Context, e events.LedgerEvent) error
}

// Multi entrega o evento a todos os destinos; uma falha não impede os demais.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e events.LedgerEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
