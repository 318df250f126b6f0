package engine

import (
	"context"

	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
	"github.com/radieske/sports-bet-ledger/internal/ledger/store"
)

// Matches lista todas as partidas, ordenadas pela chave.
func (e *Engine) Matches(ctx context.Context) ([]*domain.Match, error) {
	return list[*domain.Match](ctx, e.store, domain.KindMatch, nil)
}

// Bets lista as apostas; matchID vazio traz todas.
func (e *Engine) Bets(ctx context.Context, matchID string) ([]*domain.Bet, error) {
	return list(ctx, e.store, domain.KindBet, func(b *domain.Bet) bool {
		return matchID == "" || b.MatchID == matchID
	})
}

func (e *Engine) Users(ctx context.Context) ([]*domain.UserAccount, error) {
	return list[*domain.UserAccount](ctx, e.store, domain.KindUser, nil)
}

func list[T domain.Record](ctx context.Context, s store.Store, kind domain.Kind, keep func(T) bool) ([]T, error) {
	entries, err := s.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(entries))
	for _, entry := range entries {
		rec, err := store.DecodeAny(entry)
		if err != nil {
			return nil, err
		}
		v, ok := rec.(T)
		if !ok || (keep != nil && !keep(v)) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
