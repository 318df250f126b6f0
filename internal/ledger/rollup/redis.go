package rollup

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/sports-bet-ledger/internal/ledger/address"
	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
)

// RedisContext guarda cada snapshot num hash "rollup:{key}" (kind, epoch, body, ops, sealed, updated_at)
// e os opIDs já aplicados no set "rollup:{key}:ops".
// Mutações usam WATCH/MULTI: se outro worker tocar nas chaves, a transação é refeita.
type RedisContext struct {
	Rdb        *redis.Client
	MaxRetries int
	now        func() time.Time
}

func NewRedisContext(r *redis.Client, now func() time.Time) *RedisContext {
	if now == nil {
		now = time.Now
	}
	return &RedisContext{Rdb: r, MaxRetries: 10, now: now}
}

func hashKey(key address.Key) string { return "rollup:" + string(key) }
func opsKey(key address.Key) string  { return "rollup:" + string(key) + ":ops" }

func toHash(s Snapshot) map[string]any {
	sealed := "0"
	if s.Sealed {
		sealed = "1"
	}
	return map[string]any{
		"kind":       string(s.Kind),
		"epoch":      strconv.FormatUint(s.Epoch, 10),
		"body":       string(s.Body),
		"ops":        strconv.FormatUint(s.Ops, 10),
		"sealed":     sealed,
		"updated_at": strconv.FormatInt(s.UpdatedAt.UnixNano(), 10),
	}
}

func fromHash(key address.Key, h map[string]string) (Snapshot, error) {
	if len(h) == 0 {
		return Snapshot{}, notDelegated(key)
	}
	epoch, err := strconv.ParseUint(h["epoch"], 10, 64)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: bad epoch for %s", domain.ErrInvalidRollupData, key)
	}
	ops, _ := strconv.ParseUint(h["ops"], 10, 64)
	ts, _ := strconv.ParseInt(h["updated_at"], 10, 64)
	return Snapshot{
		Key:       key,
		Kind:      domain.Kind(h["kind"]),
		Epoch:     epoch,
		Body:      []byte(h["body"]),
		Ops:       ops,
		Sealed:    h["sealed"] == "1",
		UpdatedAt: time.Unix(0, ts).UTC(),
	}, nil
}

// watch executa fn sob WATCH nas chaves do registro, refazendo em caso de conflito.
func (r *RedisContext) watch(ctx context.Context, key address.Key, fn func(tx *redis.Tx) error) error {
	for i := 0; i < r.MaxRetries; i++ {
		err := r.Rdb.Watch(ctx, fn, hashKey(key), opsKey(key))
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("rollup: too many conflicts on %s", key)
}

// load lê o snapshot dentro do WATCH e exige o epoch indicado.
func load(ctx context.Context, tx *redis.Tx, key address.Key, epoch uint64) (Snapshot, error) {
	h, err := tx.HGetAll(ctx, hashKey(key)).Result()
	if err != nil {
		return Snapshot{}, err
	}
	cur, err := fromHash(key, h)
	if err != nil {
		return Snapshot{}, err
	}
	if cur.Epoch != epoch {
		return Snapshot{}, wrongEpoch(key, epoch, cur.Epoch)
	}
	return cur, nil
}

func (r *RedisContext) Accept(ctx context.Context, s Snapshot) error {
	s.Sealed = false
	return r.watch(ctx, s.Key, func(tx *redis.Tx) error {
		h, err := tx.HGetAll(ctx, hashKey(s.Key)).Result()
		if err != nil {
			return err
		}
		if cur, err := fromHash(s.Key, h); err == nil && cur.Epoch >= s.Epoch {
			return fmt.Errorf("%w: %s already held at epoch %d", domain.ErrInvalidRollupData, s.Key, cur.Epoch)
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Del(ctx, hashKey(s.Key), opsKey(s.Key))
			p.HSet(ctx, hashKey(s.Key), toHash(s))
			return nil
		})
		return err
	})
}

func (r *RedisContext) Increment(ctx context.Context, key address.Key, opID string) (Snapshot, error) {
	var out Snapshot
	err := r.watch(ctx, key, func(tx *redis.Tx) error {
		h, err := tx.HGetAll(ctx, hashKey(key)).Result()
		if err != nil {
			return err
		}
		cur, err := fromHash(key, h)
		if err != nil {
			return err
		}
		if opID != "" {
			seen, err := tx.SIsMember(ctx, opsKey(key), opID).Result()
			if err != nil {
				return err
			}
			if seen {
				cur.Replayed = true
				out = cur
				return nil
			}
		}
		next, err := increment(cur, r.now())
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, hashKey(key), toHash(next))
			if opID != "" {
				p.SAdd(ctx, opsKey(key), opID)
			}
			return nil
		})
		if err == nil {
			out = next
		}
		return err
	})
	return out, err
}

func (r *RedisContext) Current(ctx context.Context, key address.Key) (Snapshot, error) {
	h, err := r.Rdb.HGetAll(ctx, hashKey(key)).Result()
	if err != nil {
		return Snapshot{}, err
	}
	return fromHash(key, h)
}

func (r *RedisContext) Seal(ctx context.Context, key address.Key, epoch uint64) (Snapshot, error) {
	var out Snapshot
	err := r.watch(ctx, key, func(tx *redis.Tx) error {
		cur, err := load(ctx, tx, key, epoch)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, hashKey(key), "sealed", "1")
			return nil
		})
		if err == nil {
			cur.Sealed = true
			out = cur
		}
		return err
	})
	return out, err
}

func (r *RedisContext) Unseal(ctx context.Context, key address.Key, epoch uint64) error {
	return r.watch(ctx, key, func(tx *redis.Tx) error {
		if _, err := load(ctx, tx, key, epoch); err != nil {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, hashKey(key), "sealed", "0")
			return nil
		})
		return err
	})
}

func (r *RedisContext) Release(ctx context.Context, key address.Key, epoch uint64) error {
	return r.watch(ctx, key, func(tx *redis.Tx) error {
		if _, err := load(ctx, tx, key, epoch); err != nil {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Del(ctx, hashKey(key), opsKey(key))
			return nil
		})
		return err
	})
}
