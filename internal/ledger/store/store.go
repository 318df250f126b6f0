// Package store é o Account Store: registros de schema fixo endereçados por chave derivada.
// Não contém regra de negócio além da guarda de escrita sobre registros delegados.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/radieske/sports-bet-ledger/internal/ledger/address"
	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
)

// Entry é a forma persistida de um registro.
type Entry struct {
	Key        address.Key
	Kind       domain.Kind
	Delegation domain.Delegation
	Body       []byte
	UpdatedAt  time.Time
}

// Store abre transações. Cada instrução do ledger roda inteira dentro de uma Tx:
// ou tudo é aplicado no Commit, ou nada (Rollback).
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	// List devolve todos os registros de um kind, ordenados por chave.
	List(ctx context.Context, kind domain.Kind) ([]Entry, error)
	Close() error
}

type Tx interface {
	// Load retorna domain.ErrAccountNotFound quando a chave não existe.
	Load(ctx context.Context, key address.Key) (Entry, error)
	Save(ctx context.Context, e Entry) error
	Commit() error
	Rollback() error
}

// ErrKindMismatch indica que a chave existe mas guarda outro tipo de registro.
var ErrKindMismatch = errors.New("store: record kind mismatch")

// Get carrega a chave e decodifica o corpo em dst.
func Get(ctx context.Context, tx Tx, key address.Key, dst domain.Record) error {
	e, err := tx.Load(ctx, key)
	if err != nil {
		return err
	}
	return Decode(e, dst)
}

// Exists informa se a chave já guarda um registro.
func Exists(ctx context.Context, tx Tx, key address.Key) (bool, error) {
	_, err := tx.Load(ctx, key)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Put codifica rec e grava na transação.
func Put(ctx context.Context, tx Tx, rec domain.Record) error {
	e, err := Encode(rec)
	if err != nil {
		return err
	}
	return tx.Save(ctx, e)
}

func Encode(rec domain.Record) (Entry, error) {
	h := rec.Header()
	if h.Key == "" {
		return Entry{}, fmt.Errorf("store: %s record without key", rec.Kind())
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return Entry{}, fmt.Errorf("store: encode %s: %w", rec.Kind(), err)
	}
	return Entry{
		Key:        h.Key,
		Kind:       rec.Kind(),
		Delegation: h.Delegation,
		Body:       body,
		UpdatedAt:  h.UpdatedAt,
	}, nil
}

func Decode(e Entry, dst domain.Record) error {
	if e.Kind != dst.Kind() {
		return fmt.Errorf("%w: %s holds %s, want %s", ErrKindMismatch, e.Key, e.Kind, dst.Kind())
	}
	if err := json.Unmarshal(e.Body, dst); err != nil {
		return fmt.Errorf("store: decode %s %s: %w", e.Kind, e.Key, err)
	}
	// a coluna de delegação é a fonte de verdade
	dst.Header().Delegation = e.Delegation
	return nil
}

// DecodeAny decodifica uma Entry no tipo concreto indicado por Kind.
func DecodeAny(e Entry) (domain.Record, error) {
	rec, ok := domain.New(e.Kind)
	if !ok {
		return nil, fmt.Errorf("store: unknown kind %q", e.Kind)
	}
	if err := Decode(e, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// CheckWrite é a guarda aplicada por todo backend antes de gravar next sobre prev.
// Registro delegado só aceita a escrita que o devolve ao ledger primário (commit);
// qualquer outra escrita enquanto delegado é rejeitada com domain.ErrRecordDelegated.
func CheckWrite(prev *Entry, next Entry) error {
	if prev == nil {
		if next.Delegation.IsDelegated() {
			return fmt.Errorf("%w: record %s created as delegated", domain.ErrInvalidRollupData, next.Key)
		}
		return nil
	}
	if prev.Kind != next.Kind {
		return fmt.Errorf("%w: %s holds %s, write is %s", ErrKindMismatch, next.Key, prev.Kind, next.Kind)
	}
	switch {
	case prev.Delegation.IsDelegated() && next.Delegation.IsDelegated():
		return fmt.Errorf("%w: %s", domain.ErrRecordDelegated, next.Key)
	case !prev.Delegation.IsDelegated() && next.Delegation.IsDelegated():
		if next.Delegation.Epoch <= prev.Delegation.Epoch {
			return fmt.Errorf("%w: delegation epoch must advance (%d -> %d)",
				domain.ErrInvalidRollupData, prev.Delegation.Epoch, next.Delegation.Epoch)
		}
	case prev.Delegation.IsDelegated() && !next.Delegation.IsDelegated():
		if next.Delegation.Epoch != prev.Delegation.Epoch {
			return fmt.Errorf("%w: commit epoch %d does not match delegation epoch %d",
				domain.ErrInvalidRollupData, next.Delegation.Epoch, prev.Delegation.Epoch)
		}
	}
	return nil
}
