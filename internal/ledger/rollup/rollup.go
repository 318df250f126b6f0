// Package rollup é o contexto de execução secundário que recebe registros delegados.
// Ele guarda uma cópia (snapshot) por registro, amarrada ao epoch da delegação. O commit
// sela a cópia antes de lê-la: depois do Seal (e do Release) nenhuma escrita é aceita.
package rollup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/radieske/sports-bet-ledger/internal/ledger/address"
	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
	"github.com/radieske/sports-bet-ledger/internal/ledger/safemath"
)

// Snapshot é a cópia de um registro mantida pelo contexto de rollup.
type Snapshot struct {
	Key       address.Key `json:"key"`
	Kind      domain.Kind `json:"kind"`
	Epoch     uint64      `json:"epoch"`
	Body      []byte      `json:"body"`
	Ops       uint64      `json:"ops"` // mutações aplicadas desde o Accept
	Sealed    bool        `json:"sealed"`
	UpdatedAt time.Time   `json:"updatedAt"`

	// Replayed marca a resposta de um Increment cujo opID já tinha sido aplicado.
	Replayed bool `json:"replayed,omitempty"`
}

// Context é implementado em memória e sobre Redis.
type Context interface {
	// Accept recebe um registro recém-delegado; falha se já existe cópia com epoch igual ou maior.
	Accept(ctx context.Context, s Snapshot) error
	// Increment aplica o incremento com wrap em um contador delegado. Um opID já aplicado
	// neste epoch não incrementa de novo: devolve a cópia atual com Replayed.
	Increment(ctx context.Context, key address.Key, opID string) (Snapshot, error)
	Current(ctx context.Context, key address.Key) (Snapshot, error)
	// Seal congela a cópia do epoch indicado e a devolve; Increment passa a falhar.
	Seal(ctx context.Context, key address.Key, epoch uint64) (Snapshot, error)
	// Unseal reabre a cópia de um commit que não chegou a ser confirmado.
	Unseal(ctx context.Context, key address.Key, epoch uint64) error
	// Release descarta a cópia do epoch indicado.
	Release(ctx context.Context, key address.Key, epoch uint64) error
}

func notDelegated(key address.Key) error {
	return fmt.Errorf("%w: %s is not delegated to the rollup context", domain.ErrInvalidRollupData, key)
}

func wrongEpoch(key address.Key, want, held uint64) error {
	return fmt.Errorf("%w: %s requested at epoch %d, held %d", domain.ErrInvalidRollupData, key, want, held)
}

// increment decodifica o contador do snapshot, aplica WrappingInc e recodifica.
func increment(s Snapshot, now time.Time) (Snapshot, error) {
	if s.Sealed {
		return Snapshot{}, fmt.Errorf("%w: %s is sealed for commit", domain.ErrInvalidRollupData, s.Key)
	}
	if s.Kind != domain.KindCounter {
		return Snapshot{}, fmt.Errorf("%w: %s is a %s, not a counter", domain.ErrInvalidRollupData, s.Key, s.Kind)
	}
	var c domain.Counter
	if err := json.Unmarshal(s.Body, &c); err != nil {
		return Snapshot{}, fmt.Errorf("%w: decode counter %s: %v", domain.ErrInvalidRollupData, s.Key, err)
	}
	c.Value = safemath.WrappingInc(c.Value, c.Ceiling)
	c.UpdatedAt = now
	body, err := json.Marshal(&c)
	if err != nil {
		return Snapshot{}, err
	}
	s.Body = body
	s.Ops++
	s.UpdatedAt = now
	return s, nil
}
