package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-ledger/internal/ledger/bootstrap"
	"github.com/radieske/sports-bet-ledger/internal/rollup-worker/consumer"
	"github.com/radieske/sports-bet-ledger/internal/shared/cache"
	"github.com/radieske/sports-bet-ledger/internal/shared/config"
	"github.com/radieske/sports-bet-ledger/internal/shared/kafka"
	"github.com/radieske/sports-bet-ledger/internal/shared/logger"
	"github.com/radieske/sports-bet-ledger/internal/shared/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config: %w", err))
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// O worker lê os registros delegados do mesmo store do ledger-service
	st, pingStore, err := bootstrap.Store(ctx, cfg, log)
	if err != nil {
		log.Fatal("ledger store", zap.Error(err))
	}
	defer st.Close()

	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Operações de rollup não mexem no ledger primário, então não há eventos a publicar
	eng, err := bootstrap.Engine(cfg, log, st, rdb, nil, nil)
	if err != nil {
		log.Fatal("engine", zap.Error(err))
	}

	// Consumer group rollup-worker: ops do mesmo registro caem na mesma partição
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicRollupOps, "rollup-worker")
	defer reader.Close()
	results := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRollupResults)
	defer results.Close()
	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRollupOpsDLQ)
	defer dlq.Close()

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "rollup_messages_consumed_total", Help: "mensagens consumidas"})
	applied := prometheus.NewCounter(prometheus.CounterOpts{Name: "rollup_ops_applied_total", Help: "operações aplicadas no contexto de rollup"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "rollup_ops_rejected_total", Help: "operações rejeitadas por código"}, []string{"code"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "rollup_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, applied, rejected, errorsBy)

	proc := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		Applier:    eng,
		Results:    results,
		DLQ:        dlq,
		OnConsumed: func() { consumed.Inc() },
		OnApplied:  func() { applied.Inc() },
		OnRejected: func(code string) { rejected.WithLabelValues(code).Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	msrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pingStore(ctx); err != nil {
			return fmt.Errorf("store: %w", err)
		}
		return rdb.Ping(ctx).Err()
	})
	defer msrv.Close()

	log.Info("rollup-worker started",
		zap.String("topic", cfg.TopicRollupOps),
		zap.String("delegate", cfg.RollupDelegate),
	)
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("rollup-worker stopped")
}
