package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-ledger/pkg/contracts/events"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// QuoteCache grava a cotação lida pelo oráculo do ledger.
type QuoteCache interface {
	SetCurrent(ctx context.Context, e events.OddsUpdate) error
}

// QuoteStore guarda a última versão de cada cotação.
type QuoteStore interface {
	UpsertCurrent(ctx context.Context, e events.OddsUpdate) (bool, error)
}

// Processor consome mensagens de odds do Kafka, persiste e atualiza o cache do oráculo
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log    *zap.Logger
	Reader MessageReader
	Repo   QuoteStore // opcional
	Cache  QuoteCache

	OnConsumed func()       // métricas (counter++)
	OnCached   func()       // métricas
	OnPersist  func()       // métricas
	OnStale    func()       // atualização fora de ordem descartada
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
			p.OnConsumed() // callback de métrica: mensagem consumida
		}
		p.Handle(ctx, m.Value)
	}
}

// Handle processa uma atualização de odds.
func (p *Processor) Handle(ctx context.Context, payload []byte) {
	var ev events.OddsUpdate
	if err := json.Unmarshal(payload, &ev); err != nil {
		p.Log.Warn("invalid message", zap.Error(err))
		p.onError("decode")
		return
	}
	if ev.MatchID == "" || ev.BetType == "" || ev.Subject == "" {
		p.Log.Warn("incomplete odds update", zap.String("match_id", ev.MatchID))
		p.onError("decode")
		return
	}

	// Persiste primeiro: a guarda de versão do banco decide se a cotação ainda vale
	if p.Repo != nil {
		changed, err := p.Repo.UpsertCurrent(ctx, ev)
		if err != nil {
			p.Log.Warn("db upsert failed", zap.Error(err))
			p.onError("db_upsert")
			return
		}
		if !changed {
			if p.OnStale != nil {
				p.OnStale()
			}
			return
		}
		if p.OnPersist != nil {
			p.OnPersist()
		}
	}

	// Atualiza cache Redis com a odd atual
	if err := p.Cache.SetCurrent(ctx, ev); err != nil {
		p.Log.Warn("redis set failed", zap.Error(err))
		p.onError("cache")
		return
	}
	if p.OnCached != nil {
		p.OnCached() // callback de métrica: cache atualizado
	}
}

func (p *Processor) onError(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
