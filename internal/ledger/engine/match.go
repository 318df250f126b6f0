package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/radieske/sports-bet-ledger/internal/ledger/address"
	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
	"github.com/radieske/sports-bet-ledger/internal/ledger/store"
	"github.com/radieske/sports-bet-ledger/pkg/contracts/events"
)

type CreateMatchParams struct {
	MatchID       string
	TeamA         string
	TeamB         string
	StartTime     time.Time
	OracleAccount string
}

func (p CreateMatchParams) validate() error {
	switch {
	case strings.TrimSpace(p.MatchID) == "" || len(p.MatchID) > domain.MaxMatchIDLength:
		return fmt.Errorf("%w: match id must have 1..%d bytes", domain.ErrInvalidGameData, domain.MaxMatchIDLength)
	case strings.TrimSpace(p.TeamA) == "" || strings.TrimSpace(p.TeamB) == "":
		return fmt.Errorf("%w: team names are required", domain.ErrInvalidGameData)
	case len(p.TeamA) > domain.MaxTeamNameLength || len(p.TeamB) > domain.MaxTeamNameLength:
		return fmt.Errorf("%w: team names are limited to %d bytes", domain.ErrInvalidGameData, domain.MaxTeamNameLength)
	case p.TeamA == p.TeamB:
		return fmt.Errorf("%w: a match needs two distinct teams", domain.ErrInvalidGameData)
	case p.StartTime.IsZero():
		return fmt.Errorf("%w: start time is required", domain.ErrInvalidGameData)
	}
	return nil
}

// CreateMatch registra a partida em status Pending e abre a conta de escrow dela.
func (e *Engine) CreateMatch(ctx context.Context, signer string, p CreateMatchParams) (*domain.Match, error) {
	var out *domain.Match
	err := e.exec(ctx, "createMatch", signer, func(tx store.Tx, fx *effects) error {
		if err := p.validate(); err != nil {
			return err
		}
		if _, err := e.loadPlatform(ctx, tx); err != nil {
			return err
		}
		key, err := derive(func() (address.Key, error) { return address.MatchKey(p.MatchID) })
		if err != nil {
			return err
		}
		exists, err := store.Exists(ctx, tx, key)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateMatch, p.MatchID)
		}

		escrowKey, err := derive(func() (address.Key, error) { return address.EscrowKey(p.MatchID) })
		if err != nil {
			return err
		}
		if _, err := e.custody.OpenAccount(ctx, tx, escrowKey, "escrow:"+p.MatchID, platformAuthority()); err != nil {
			return err
		}

		now := e.now()
		m := &domain.Match{
			Meta:          domain.Meta{Key: key, CreatedAt: now, UpdatedAt: now},
			MatchID:       p.MatchID,
			TeamA:         p.TeamA,
			TeamB:         p.TeamB,
			StartTime:     p.StartTime.UTC(),
			Status:        domain.MatchPending,
			Authority:     signer,
			OracleAccount: p.OracleAccount,
		}
		if err := store.Put(ctx, tx, m); err != nil {
			return err
		}
		ev := e.event(events.MatchCreated, "createMatch", key)
		ev.MatchID = p.MatchID
		fx.emit(ev)
		out = m
		return nil
	})
	return out, err
}

// SettleMatch grava o vencedor. Só a authority da plataforma liquida, uma única vez.
func (e *Engine) SettleMatch(ctx context.Context, signer, matchID, winner string) (*domain.Match, error) {
	var out *domain.Match
	err := e.exec(ctx, "settleMatch", signer, func(tx store.Tx, fx *effects) error {
		platform, err := e.loadPlatform(ctx, tx)
		if err != nil {
			return err
		}
		key, err := derive(func() (address.Key, error) { return address.MatchKey(matchID) })
		if err != nil {
			return err
		}
		m, err := e.loadMatch(ctx, tx, key)
		if err != nil {
			return err
		}
		if m.Status != domain.MatchPending {
			return domain.ErrGameAlreadySettled
		}
		if signer != platform.Authority {
			return fmt.Errorf("%w: only the platform authority settles matches", domain.ErrUnauthorized)
		}
		if !m.HasTeam(winner) {
			return fmt.Errorf("%w: winner %q is not playing %s", domain.ErrInvalidGameData, winner, matchID)
		}
		if err := domain.EnsureOwned(m); err != nil {
			return err
		}

		now := e.now()
		m.Winner = winner
		m.Status = domain.MatchCompleted
		m.SettledAt = &now
		touch(&m.Meta, now)
		if err := store.Put(ctx, tx, m); err != nil {
			return err
		}
		ev := e.event(events.MatchSettled, "settleMatch", key)
		ev.MatchID = matchID
		fx.emit(ev)
		out = m
		return nil
	})
	return out, err
}

// FundEscrow transfere liquidez do signer para o escrow da partida, cobrindo os pagamentos 2x.
func (e *Engine) FundEscrow(ctx context.Context, signer, matchID string, amount uint64) (*domain.TokenAccount, error) {
	var out *domain.TokenAccount
	err := e.exec(ctx, "fundEscrow", signer, func(tx store.Tx, fx *effects) error {
		if amount == 0 {
			return fmt.Errorf("%w: funding amount must be positive", domain.ErrInvalidAmount)
		}
		key, err := derive(func() (address.Key, error) { return address.MatchKey(matchID) })
		if err != nil {
			return err
		}
		if _, err := e.loadMatch(ctx, tx, key); err != nil {
			return err
		}
		escrowKey, _ := address.EscrowKey(matchID)
		from, err := e.userCustody(ctx, tx, signer)
		if err != nil {
			return err
		}
		r, err := e.custody.Transfer(ctx, tx, from.Key, escrowKey, signer, amount, "fund:"+matchID)
		if err != nil {
			return err
		}
		if out, err = e.custody.Account(ctx, tx, escrowKey); err != nil {
			return err
		}
		ev := e.event(events.EscrowFunded, "fundEscrow", escrowKey)
		ev.MatchID = matchID
		ev.Amount = amount
		ev.Transfers = []events.Transfer{{From: r.From.String(), To: r.To.String(), Amount: r.Amount}}
		fx.emit(ev)
		return nil
	})
	return out, err
}

func (e *Engine) Match(ctx context.Context, matchID string) (*domain.Match, error) {
	var out *domain.Match
	err := e.view(ctx, func(tx store.Tx) error {
		key, err := derive(func() (address.Key, error) { return address.MatchKey(matchID) })
		if err != nil {
			return err
		}
		out, err = e.loadMatch(ctx, tx, key)
		return err
	})
	return out, err
}

// Escrow retorna a conta de custódia da partida.
func (e *Engine) Escrow(ctx context.Context, matchID string) (*domain.TokenAccount, error) {
	var out *domain.TokenAccount
	err := e.view(ctx, func(tx store.Tx) error {
		key, err := derive(func() (address.Key, error) { return address.EscrowKey(matchID) })
		if err != nil {
			return err
		}
		out, err = e.custody.Account(ctx, tx, key)
		return err
	})
	return out, err
}
