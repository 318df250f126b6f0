package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-ledger/internal/odds-processor/cache"
	"github.com/radieske/sports-bet-ledger/internal/odds-processor/consumer"
	"github.com/radieske/sports-bet-ledger/internal/odds-processor/repository"
	sharedcache "github.com/radieske/sports-bet-ledger/internal/shared/cache"
	"github.com/radieske/sports-bet-ledger/internal/shared/config"
	"github.com/radieske/sports-bet-ledger/internal/shared/db"
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
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Histórico de cotações no mesmo banco do ledger; no driver memory roda só com o cache
	var repo consumer.QuoteStore
	ping := func(context.Context) error { return nil }
	if cfg.StoreDriver != config.StoreMemory {
		dsn := cfg.PostgresDSN
		if cfg.StoreDriver == config.StoreSQLite {
			dsn = cfg.SQLitePath
		}
		sqlDB, err := db.Open(cfg.StoreDriver, dsn)
		if err != nil {
			log.Fatal("db connect", zap.Error(err))
		}
		defer sqlDB.Close()
		if err := db.Migrate(ctx, sqlDB, cfg.StoreDriver, log); err != nil {
			log.Fatal("db migrate", zap.Error(err))
		}
		repo = repository.NewQuoteRepo(sqlDB, cfg.StoreDriver)
		ping = sqlDB.PingContext
	}

	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicOddsUpdates, "odds-processor")
	defer reader.Close()

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_proc_messages_consumed_total", Help: "mensagens consumidas"})
	cached := prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_proc_cache_sets_total", Help: "sets no cache"})
	persist := prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_proc_db_writes_total", Help: "upserts de cotação"})
	stale := prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_proc_stale_total", Help: "atualizações fora de ordem descartadas"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "odds_proc_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, cached, persist, stale, errorsBy)

	proc := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		Repo:       repo,
		Cache:      cache.NewRedisCache(redisClient, cfg.OddsTTL),
		OnConsumed: func() { consumed.Inc() },
		OnCached:   func() { cached.Inc() },
		OnPersist:  func() { persist.Inc() },
		OnStale:    func() { stale.Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	msrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := ping(ctx); err != nil {
			return fmt.Errorf("db: %w", err)
		}
		return redisClient.Ping(ctx).Err()
	})
	defer msrv.Close()

	log.Info("odds-processor started", zap.Duration("ttl", cfg.OddsTTL))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("odds-processor stopped")
}
