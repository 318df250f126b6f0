package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	lhttp "github.com/radieske/sports-bet-ledger/internal/ledger-service/http"
	"github.com/radieske/sports-bet-ledger/internal/ledger-service/producer"
	"github.com/radieske/sports-bet-ledger/internal/ledger/bootstrap"
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

	// Store do ledger (postgres | sqlite | memory) com migrations aplicadas
	st, pingStore, err := bootstrap.Store(ctx, cfg, log)
	if err != nil {
		log.Fatal("ledger store", zap.Error(err))
	}
	defer st.Close()

	// Redis: cotações do oráculo, contexto de rollup e pub/sub de eventos
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Eventos confirmados vão para o Kafka (auditoria) e para o Redis (WebSocket)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicLedgerEvents)
	defer writer.Close()
	pub := producer.Multi{
		producer.NewKafkaPublisher(writer, cfg.TopicLedgerEvents),
		producer.NewRedisBroadcaster(rdb, cfg.RedisEventsChannel),
	}

	eng, err := bootstrap.Engine(cfg, log, st, rdb, pub, metrics.NewInstructions(prometheus.DefaultRegisterer))
	if err != nil {
		log.Fatal("engine", zap.Error(err))
	}

	// metrics/health
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pingStore(ctx); err != nil {
			return fmt.Errorf("store: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})
	log.Info("metrics/health", zap.String("addr", msrv.Addr))

	api := lhttp.NewServer(log, eng, lhttp.WithRateLimit(cfg.APIRateLimit, cfg.APIBurst))
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		_ = apiSrv.Shutdown(shutdownCtx)
		_ = msrv.Shutdown(shutdownCtx)
	}()

	log.Info("ledger-service listening",
		zap.String("addr", apiSrv.Addr),
		zap.String("store", cfg.StoreDriver),
	)
	if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("api", zap.Error(err))
	}
	log.Info("ledger-service stopped")
}
