package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/sports-bet-ledger/internal/ledger/address"
	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
	"github.com/radieske/sports-bet-ledger/internal/ledger/rollup"
	"github.com/radieske/sports-bet-ledger/internal/ledger/store"
	"github.com/radieske/sports-bet-ledger/pkg/contracts/events"
)

// loadDelegable carrega qualquer registro e exige que ele seja delegável.
func (e *Engine) loadDelegable(ctx context.Context, tx store.Tx, key address.Key) (domain.Delegable, store.Entry, error) {
	entry, err := tx.Load(ctx, key)
	if err != nil {
		return nil, store.Entry{}, err
	}
	rec, err := store.DecodeAny(entry)
	if err != nil {
		return nil, store.Entry{}, err
	}
	d, ok := rec.(domain.Delegable)
	if !ok {
		return nil, store.Entry{}, fmt.Errorf("%w: %s records cannot be delegated", domain.ErrInvalidRollupData, entry.Kind)
	}
	return d, entry, nil
}

// checkDelegationPolicy barra registros que outras identidades precisam mutar no contexto
// primário: a partida (liquidada pela authority da plataforma), a custódia do programa
// (escrow) e a custódia do tesouro (recebe a taxa de todo claim).
func (e *Engine) checkDelegationPolicy(ctx context.Context, tx store.Tx, rec domain.Delegable) error {
	switch r := rec.(type) {
	case *domain.Match:
		return fmt.Errorf("%w: match records are settled by the platform authority and cannot be delegated", domain.ErrInvalidRollupData)
	case *domain.TokenAccount:
		if r.Authority != r.Owner || r.Authority == platformAuthority() {
			return fmt.Errorf("%w: program custody %s cannot be delegated", domain.ErrInvalidRollupData, r.Key)
		}
		platform, err := e.loadPlatform(ctx, tx)
		if err != nil {
			return err
		}
		if r.Owner == platform.Treasury {
			return fmt.Errorf("%w: treasury custody cannot be delegated", domain.ErrInvalidRollupData)
		}
	}
	return nil
}

// Delegate entrega ao contexto de rollup a autoridade exclusiva sobre o registro.
// Só o dono do registro delega; o epoch avança e o rollup recebe o snapshot.
func (e *Engine) Delegate(ctx context.Context, signer, recordKey, delegate string) (*domain.Delegation, error) {
	var out *domain.Delegation
	err := e.exec(ctx, "delegate", signer, func(tx store.Tx, fx *effects) error {
		key, err := parseKey(recordKey)
		if err != nil {
			return err
		}
		rec, _, err := e.loadDelegable(ctx, tx, key)
		if err != nil {
			return err
		}
		if err := e.checkDelegationPolicy(ctx, tx, rec); err != nil {
			return err
		}
		if rec.OwnerAuthority() != signer {
			return fmt.Errorf("%w: only %s can delegate this record", domain.ErrUnauthorized, rec.OwnerAuthority())
		}
		h := rec.Header()
		if h.Delegation.IsDelegated() {
			return fmt.Errorf("%w: %s is already delegated", domain.ErrInvalidRollupData, key)
		}
		if delegate == "" {
			delegate = e.delegate
		}

		now := e.now()
		h.Delegation = domain.Delegation{
			State:       domain.Delegated,
			Owner:       signer,
			Delegate:    delegate,
			Epoch:       h.Delegation.Epoch + 1,
			DelegatedAt: &now,
		}
		touch(h, now)
		entry, err := store.Encode(rec)
		if err != nil {
			return err
		}
		if err := tx.Save(ctx, entry); err != nil {
			return err
		}

		epoch := h.Delegation.Epoch
		if err := e.rollup.Accept(ctx, rollup.Snapshot{
			Key: key, Kind: entry.Kind, Epoch: epoch, Body: entry.Body, UpdatedAt: now,
		}); err != nil {
			return err
		}
		// commit falhou: a cópia do rollup não pode sobreviver a um registro que segue Owned
		fx.onAbort = append(fx.onAbort, func(ctx context.Context) {
			_ = e.rollup.Release(ctx, key, epoch)
		})

		ev := e.event(events.RecordDelegated, "delegate", key)
		ev.Epoch = epoch
		fx.emit(ev)
		d := h.Delegation
		out = &d
		return nil
	})
	return out, err
}

// CommitAndUndelegate sela a cópia do rollup, grava de volta o valor selado, devolve o
// registro ao contexto primário e libera a cópia. Uma segunda chamada falha com InvalidRollupData.
func (e *Engine) CommitAndUndelegate(ctx context.Context, signer, recordKey string) (domain.Record, error) {
	var out domain.Record
	err := e.exec(ctx, "commitAndUndelegate", signer, func(tx store.Tx, fx *effects) error {
		key, err := parseKey(recordKey)
		if err != nil {
			return err
		}
		rec, entry, err := e.loadDelegable(ctx, tx, key)
		if err != nil {
			return err
		}
		h := rec.Header()
		if !h.Delegation.IsDelegated() {
			return fmt.Errorf("%w: %s is not delegated", domain.ErrInvalidRollupData, key)
		}
		if signer != h.Delegation.Owner && signer != h.Delegation.Delegate {
			return fmt.Errorf("%w: only the owner or the delegate can commit", domain.ErrUnauthorized)
		}

		// depois do Seal nenhum Increment é aceito: o valor lido é o último reconhecido
		epoch := h.Delegation.Epoch
		snap, err := e.rollup.Seal(ctx, key, epoch)
		if err != nil {
			return err
		}
		fx.onAbort = append(fx.onAbort, func(ctx context.Context) {
			if err := e.rollup.Unseal(ctx, key, epoch); err != nil {
				e.log.Warn("rollup unseal failed", zap.String("key", key.String()), zap.Error(err))
			}
		})
		if snap.Kind != entry.Kind {
			return fmt.Errorf("%w: rollup holds a %s, record is a %s", domain.ErrInvalidRollupData, snap.Kind, entry.Kind)
		}

		committed, err := store.DecodeAny(store.Entry{Key: key, Kind: snap.Kind, Body: snap.Body})
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidRollupData, err)
		}
		ch := committed.Header()
		if ch.Key != key {
			return fmt.Errorf("%w: snapshot key %s does not match %s", domain.ErrInvalidRollupData, ch.Key, key)
		}
		ch.CreatedAt = h.CreatedAt
		ch.Delegation = domain.Delegation{State: domain.Owned, Epoch: epoch}
		touch(ch, e.now())
		if err := store.Put(ctx, tx, committed); err != nil {
			return err
		}

		// se o Release falhar a cópia continua selada e o registro já está Owned:
		// nenhuma escrita do rollup é aceita e o próximo Delegate a substitui
		fx.afterCommit = append(fx.afterCommit, func(ctx context.Context) error {
			return e.rollup.Release(ctx, key, epoch)
		})
		ev := e.event(events.RecordCommitted, "commitAndUndelegate", key)
		ev.Epoch = epoch
		fx.emit(ev)
		out = committed
		return nil
	})
	return out, err
}

// RollupIncrement aplica um incremento no contexto de rollup (caminho secundário).
// O registro primário precisa estar Delegated no mesmo epoch da cópia; opID, quando
// informado, torna a operação idempotente dentro do epoch.
func (e *Engine) RollupIncrement(ctx context.Context, signer, recordKey, opID string) (rollup.Snapshot, error) {
	key, err := parseKey(recordKey)
	if err != nil {
		return rollup.Snapshot{}, err
	}
	snap, err := e.rollup.Current(ctx, key)
	if err != nil {
		return rollup.Snapshot{}, err
	}
	if snap.Kind != domain.KindCounter {
		return rollup.Snapshot{}, fmt.Errorf("%w: only counters mutate in the rollup context", domain.ErrInvalidRollupData)
	}
	// o corpo do snapshot carrega a delegação gravada no Delegate
	var c domain.Counter
	if err := json.Unmarshal(snap.Body, &c); err != nil {
		return rollup.Snapshot{}, fmt.Errorf("%w: %v", domain.ErrInvalidRollupData, err)
	}
	if c.Owner != signer && c.Delegation.Delegate != signer {
		return rollup.Snapshot{}, fmt.Errorf("%w: %s cannot mutate %s", domain.ErrUnauthorized, signer, key)
	}

	var primary domain.Counter
	if err := e.view(ctx, func(tx store.Tx) error { return store.Get(ctx, tx, key, &primary) }); err != nil {
		return rollup.Snapshot{}, err
	}
	if !primary.Delegation.IsDelegated() || primary.Delegation.Epoch != snap.Epoch {
		return rollup.Snapshot{}, fmt.Errorf("%w: %s is not delegated at epoch %d", domain.ErrInvalidRollupData, key, snap.Epoch)
	}
	return e.rollup.Increment(ctx, key, opID)
}

// Record retorna qualquer registro pela chave (usado pelas consultas genéricas).
func (e *Engine) Record(ctx context.Context, recordKey string) (domain.Record, error) {
	var out domain.Record
	err := e.view(ctx, func(tx store.Tx) error {
		key, err := parseKey(recordKey)
		if err != nil {
			return err
		}
		entry, err := tx.Load(ctx, key)
		if err != nil {
			return err
		}
		out, err = store.DecodeAny(entry)
		return err
	})
	return out, err
}
