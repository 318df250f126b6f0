package engine

import (
	"context"
	"fmt"

	"github.com/radieske/sports-bet-ledger/internal/ledger/address"
	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
	"github.com/radieske/sports-bet-ledger/internal/ledger/oracle"
	"github.com/radieske/sports-bet-ledger/internal/ledger/safemath"
	"github.com/radieske/sports-bet-ledger/internal/ledger/store"
	"github.com/radieske/sports-bet-ledger/pkg/contracts/events"
)

type PlaceBetParams struct {
	MatchID         string
	Amount          uint64
	PredictedWinner string
	// BetType vazio é "winner". Outros tipos (ex: "points") exigem PlayerName e usam StatValue como linha.
	BetType    string
	PlayerName string
	StatValue  uint64
}

func (p PlaceBetParams) betType() string {
	if p.BetType == "" {
		return domain.BetTypeWinner
	}
	return p.BetType
}

func (p PlaceBetParams) query() oracle.Query {
	q := oracle.Query{MatchID: p.MatchID, BetType: p.betType(), Subject: p.PredictedWinner}
	if p.betType() != domain.BetTypeWinner {
		q.Subject = p.PlayerName
		q.Threshold = p.StatValue
	}
	return q
}

// PlaceBet debita amount da custódia do signer para o escrow da partida e grava a aposta
// com a odd corrente do oráculo.
func (e *Engine) PlaceBet(ctx context.Context, signer string, p PlaceBetParams) (*domain.Bet, error) {
	var out *domain.Bet
	err := e.exec(ctx, "placeBet", signer, func(tx store.Tx, fx *effects) error {
		if p.Amount == 0 {
			return domain.ErrInvalidBetAmount
		}
		platform, err := e.loadPlatform(ctx, tx)
		if err != nil {
			return err
		}
		matchKey, err := derive(func() (address.Key, error) { return address.MatchKey(p.MatchID) })
		if err != nil {
			return err
		}
		m, err := e.loadMatch(ctx, tx, matchKey)
		if err != nil {
			return err
		}
		if m.Status != domain.MatchPending {
			return domain.ErrGameAlreadySettled
		}
		now := e.now()
		if !now.Before(m.StartTime) {
			return domain.ErrGameAlreadyStarted
		}
		if !m.HasTeam(p.PredictedWinner) {
			return fmt.Errorf("%w: %q is not playing %s", domain.ErrInvalidGameData, p.PredictedWinner, p.MatchID)
		}
		if p.betType() != domain.BetTypeWinner && p.PlayerName == "" {
			return fmt.Errorf("%w: %s bets need a player name", domain.ErrInvalidGameData, p.betType())
		}

		betKey, err := derive(func() (address.Key, error) { return address.BetKey(signer, p.MatchID) })
		if err != nil {
			return err
		}
		exists, err := store.Exists(ctx, tx, betKey)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s on %s", domain.ErrDuplicateBet, signer, p.MatchID)
		}
		for _, r := range []domain.Record{platform, m} {
			if err := domain.EnsureOwned(r); err != nil {
				return err
			}
		}
		user, err := e.loadOrCreateUser(ctx, tx, signer)
		if err != nil {
			return err
		}
		if err := domain.EnsureOwned(user); err != nil {
			return err
		}

		odds, err := e.oracle.GetOdds(ctx, p.query())
		if err != nil {
			return err
		}

		// custódia antes do registro da aposta, na mesma transação
		from, err := e.userCustody(ctx, tx, signer)
		if err != nil {
			return err
		}
		escrowKey, _ := address.EscrowKey(p.MatchID)
		r, err := e.custody.Transfer(ctx, tx, from.Key, escrowKey, signer, p.Amount, "bet:"+p.MatchID)
		if err != nil {
			return err
		}

		if platform.TotalBets, err = safemath.Inc(platform.TotalBets); err != nil {
			return err
		}
		if platform.TotalVolume, err = safemath.Add(platform.TotalVolume, p.Amount); err != nil {
			return err
		}
		if m.TotalBets, err = safemath.Inc(m.TotalBets); err != nil {
			return err
		}
		if m.TotalStaked, err = safemath.Add(m.TotalStaked, p.Amount); err != nil {
			return err
		}
		if user.ActiveBets, err = safemath.Inc(user.ActiveBets); err != nil {
			return err
		}
		if user.TotalBets, err = safemath.Inc(user.TotalBets); err != nil {
			return err
		}
		user.TokenBalance = r.FromAfter

		bet := &domain.Bet{
			Meta:            domain.Meta{Key: betKey, CreatedAt: now, UpdatedAt: now},
			Bettor:          signer,
			MatchKey:        matchKey,
			MatchID:         p.MatchID,
			Amount:          p.Amount,
			PredictedWinner: p.PredictedWinner,
			BetType:         p.betType(),
			PlayerName:      p.PlayerName,
			StatValue:       p.StatValue,
			Odds:            odds,
			Status:          domain.BetActive,
			PlacedAt:        now,
		}
		touch(&platform.Meta, now)
		touch(&m.Meta, now)
		touch(&user.Meta, now)
		for _, rec := range []domain.Record{bet, platform, m, user} {
			if err := store.Put(ctx, tx, rec); err != nil {
				return err
			}
		}

		ev := e.event(events.BetPlaced, "placeBet", betKey)
		ev.MatchID = p.MatchID
		ev.Amount = p.Amount
		ev.Transfers = []events.Transfer{{From: r.From.String(), To: r.To.String(), Amount: r.Amount}}
		fx.emit(ev)
		out = bet
		return nil
	})
	return out, err
}

// Bet busca a aposta pela chave derivada (address.BetKey).
func (e *Engine) Bet(ctx context.Context, key string) (*domain.Bet, error) {
	var out *domain.Bet
	err := e.view(ctx, func(tx store.Tx) error {
		k, err := parseKey(key)
		if err != nil {
			return err
		}
		out, err = e.loadBet(ctx, tx, k)
		return err
	})
	return out, err
}

func (e *Engine) User(ctx context.Context, owner string) (*domain.UserAccount, error) {
	var out domain.UserAccount
	err := e.view(ctx, func(tx store.Tx) error {
		key, err := derive(func() (address.Key, error) { return address.UserKey(owner) })
		if err != nil {
			return err
		}
		return store.Get(ctx, tx, key, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
