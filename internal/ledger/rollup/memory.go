package rollup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/radieske/sports-bet-ledger/internal/ledger/address"
	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
)

type MemoryContext struct {
	mu      sync.Mutex
	snaps   map[address.Key]Snapshot
	applied map[address.Key]map[string]struct{} // opIDs aplicados no epoch corrente
	now     func() time.Time
}

func NewMemoryContext(now func() time.Time) *MemoryContext {
	if now == nil {
		now = time.Now
	}
	return &MemoryContext{
		snaps:   make(map[address.Key]Snapshot),
		applied: make(map[address.Key]map[string]struct{}),
		now:     now,
	}
}

func (m *MemoryContext) Accept(_ context.Context, s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.snaps[s.Key]; ok && cur.Epoch >= s.Epoch {
		return fmt.Errorf("%w: %s already held at epoch %d", domain.ErrInvalidRollupData, s.Key, cur.Epoch)
	}
	s.Body = append([]byte(nil), s.Body...)
	s.Sealed, s.Replayed = false, false
	m.snaps[s.Key] = s
	delete(m.applied, s.Key)
	return nil
}

func (m *MemoryContext) Increment(_ context.Context, key address.Key, opID string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.snaps[key]
	if !ok {
		return Snapshot{}, notDelegated(key)
	}
	if _, seen := m.applied[key][opID]; opID != "" && seen {
		cur.Body = append([]byte(nil), cur.Body...)
		cur.Replayed = true
		return cur, nil
	}
	next, err := increment(cur, m.now())
	if err != nil {
		return Snapshot{}, err
	}
	m.snaps[key] = next
	if opID != "" {
		if m.applied[key] == nil {
			m.applied[key] = make(map[string]struct{})
		}
		m.applied[key][opID] = struct{}{}
	}
	next.Body = append([]byte(nil), next.Body...)
	return next, nil
}

func (m *MemoryContext) Current(_ context.Context, key address.Key) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.snaps[key]
	if !ok {
		return Snapshot{}, notDelegated(key)
	}
	cur.Body = append([]byte(nil), cur.Body...)
	return cur, nil
}

func (m *MemoryContext) Seal(_ context.Context, key address.Key, epoch uint64) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.snaps[key]
	if !ok {
		return Snapshot{}, notDelegated(key)
	}
	if cur.Epoch != epoch {
		return Snapshot{}, wrongEpoch(key, epoch, cur.Epoch)
	}
	cur.Sealed = true
	m.snaps[key] = cur
	cur.Body = append([]byte(nil), cur.Body...)
	return cur, nil
}

func (m *MemoryContext) Unseal(_ context.Context, key address.Key, epoch uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.snaps[key]
	if !ok {
		return notDelegated(key)
	}
	if cur.Epoch != epoch {
		return wrongEpoch(key, epoch, cur.Epoch)
	}
	cur.Sealed = false
	m.snaps[key] = cur
	return nil
}

func (m *MemoryContext) Release(_ context.Context, key address.Key, epoch uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.snaps[key]
	if !ok {
		return notDelegated(key)
	}
	if cur.Epoch != epoch {
		return wrongEpoch(key, epoch, cur.Epoch)
	}
	delete(m.snaps, key)
	delete(m.applied, key)
	return nil
}
