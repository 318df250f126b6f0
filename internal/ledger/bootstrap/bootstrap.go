// Package bootstrap monta o engine do ledger a partir do config, compartilhado pelos binários.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-ledger/internal/ledger/engine"
	"github.com/radieske/sports-bet-ledger/internal/ledger/oracle"
	"github.com/radieske/sports-bet-ledger/internal/ledger/rollup"
	"github.com/radieske/sports-bet-ledger/internal/ledger/store"
	"github.com/radieske/sports-bet-ledger/internal/ledger/store/memory"
	"github.com/radieske/sports-bet-ledger/internal/ledger/store/sqlstore"
	"github.com/radieske/sports-bet-ledger/internal/shared/config"
	shareddb "github.com/radieske/sports-bet-ledger/internal/shared/db"
)

// Store abre o backend indicado por cfg.StoreDriver e aplica as migrations.
// ping alimenta o /healthz; no driver memory sempre responde ok.
func Store(ctx context.Context, cfg config.Config, log *zap.Logger) (st store.Store, ping func(context.Context) error, err error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Warn("using in-memory ledger store; state is lost on restart")
		return memory.New(), func(context.Context) error { return nil }, nil
	case config.StorePostgres, config.StoreSQLite:
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}

	dsn := cfg.PostgresDSN
	if cfg.StoreDriver == config.StoreSQLite {
		dsn = cfg.SQLitePath
	}
	db, err := shareddb.Open(cfg.StoreDriver, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := shareddb.Migrate(ctx, db, cfg.StoreDriver, log); err != nil {
		db.Close()
		return nil, nil, err
	}
	s, err := sqlstore.New(db, cfg.StoreDriver)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return s, db.PingContext, nil
}

// Engine liga o store ao oráculo e ao contexto de rollup apoiados no Redis.
func Engine(cfg config.Config, log *zap.Logger, st store.Store, rdb *redis.Client, pub engine.Publisher, obs engine.Observer) (*engine.Engine, error) {
	return engine.New(engine.Deps{
		Store:     st,
		Oracle:    oracle.NewRedisOracle(rdb),
		Rollup:    rollup.NewRedisContext(rdb, nil),
		Publisher: pub,
		Observer:  obs,
		Log:       log,
		Delegate:  cfg.RollupDelegate,
	})
}
