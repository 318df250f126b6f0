package engine

import (
	"context"
	"fmt"

	"github.com/radieske/sports-bet-ledger/internal/ledger/address"
	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
	"github.com/radieske/sports-bet-ledger/internal/ledger/safemath"
	"github.com/radieske/sports-bet-ledger/internal/ledger/store"
	"github.com/radieske/sports-bet-ledger/pkg/contracts/events"
)

// Payout é a divisão de um pagamento vencedor.
type Payout struct {
	Gross uint64 // 2x o valor apostado
	Fee   uint64 // floor(amount * feeBps / 10000), vai para a tesouraria
	Net   uint64 // Gross - Fee, vai para o vencedor
}

// Split calcula o pagamento de uma aposta vencedora. Fee + Net == Gross sempre;
// qualquer divisão que não conserve o valor falha com InvalidFeeAmount.
func Split(amount, feeBps uint64) (Payout, error) {
	if feeBps >= domain.MaxFeeBps {
		return Payout{}, fmt.Errorf("%w: %d bps", domain.ErrInvalidPlatformFee, feeBps)
	}
	fee, err := safemath.MulDiv(amount, feeBps, domain.MaxFeeBps)
	if err != nil {
		return Payout{}, err
	}
	gross, err := safemath.Mul(amount, 2)
	if err != nil {
		return Payout{}, err
	}
	net, err := safemath.Sub(gross, fee)
	if err != nil {
		return Payout{}, fmt.Errorf("%w: fee %d exceeds gross %d", domain.ErrInvalidFeeAmount, fee, gross)
	}
	if sum, err := safemath.Add(net, fee); err != nil || sum != gross {
		return Payout{}, fmt.Errorf("%w: %d + %d != %d", domain.ErrInvalidFeeAmount, net, fee, gross)
	}
	return Payout{Gross: gross, Fee: fee, Net: net}, nil
}

// ClaimWinnings liquida a aposta do signer numa partida concluída.
// Aposta perdedora é gravada como Settled com payout 0 e a instrução retorna ErrNotWinner.
func (e *Engine) ClaimWinnings(ctx context.Context, signer, betKey string) (*domain.Bet, error) {
	var out *domain.Bet
	err := e.exec(ctx, "claimWinnings", signer, func(tx store.Tx, fx *effects) error {
		key, err := parseKey(betKey)
		if err != nil {
			return err
		}
		bet, err := e.loadBet(ctx, tx, key)
		if err != nil {
			return err
		}
		if bet.Bettor != signer {
			return fmt.Errorf("%w: bet belongs to another bettor", domain.ErrUnauthorized)
		}
		m, err := e.loadMatch(ctx, tx, bet.MatchKey)
		if err != nil {
			return err
		}
		if m.Status != domain.MatchCompleted {
			return domain.ErrGameNotStarted
		}
		if bet.Status != domain.BetActive {
			return domain.ErrBetAlreadySettled
		}
		platform, err := e.loadPlatform(ctx, tx)
		if err != nil {
			return err
		}
		user, err := e.loadOrCreateUser(ctx, tx, signer)
		if err != nil {
			return err
		}
		for _, r := range []domain.Record{bet, user} {
			if err := domain.EnsureOwned(r); err != nil {
				return err
			}
		}

		now := e.now()
		bet.Status = domain.BetSettled
		bet.SettledAt = &now
		touch(&bet.Meta, now)
		if user.ActiveBets, err = safemath.Dec(user.ActiveBets); err != nil {
			return err
		}
		touch(&user.Meta, now)

		if bet.PredictedWinner != m.Winner {
			bet.Won = false
			bet.Payout = 0
			if err := store.Put(ctx, tx, bet); err != nil {
				return err
			}
			if err := store.Put(ctx, tx, user); err != nil {
				return err
			}
			ev := e.event(events.BetLost, "claimWinnings", key)
			ev.MatchID = bet.MatchID
			ev.Amount = bet.Amount
			fx.emit(ev)
			fx.outcome = domain.ErrNotWinner
			out = bet
			return nil
		}

		split, err := Split(bet.Amount, platform.FeeBps)
		if err != nil {
			return err
		}
		escrowKey, err := derive(func() (address.Key, error) { return address.EscrowKey(bet.MatchID) })
		if err != nil {
			return err
		}
		winner, err := e.userCustody(ctx, tx, signer)
		if err != nil {
			return err
		}
		treasury, err := e.userCustody(ctx, tx, platform.Treasury)
		if err != nil {
			return err
		}
		toWinner, err := e.custody.Transfer(ctx, tx, escrowKey, winner.Key, platformAuthority(), split.Net, "payout:"+bet.MatchID)
		if err != nil {
			return err
		}
		toTreasury, err := e.custody.Transfer(ctx, tx, escrowKey, treasury.Key, platformAuthority(), split.Fee, "fee:"+bet.MatchID)
		if err != nil {
			return err
		}

		bet.Won = true
		bet.Payout = split.Net
		bet.Fee = split.Fee
		if user.WonBets, err = safemath.Inc(user.WonBets); err != nil {
			return err
		}
		if err := e.syncUserBalance(ctx, tx, user); err != nil {
			return err
		}
		if err := store.Put(ctx, tx, bet); err != nil {
			return err
		}
		if err := store.Put(ctx, tx, user); err != nil {
			return err
		}

		ev := e.event(events.BetClaimed, "claimWinnings", key)
		ev.MatchID = bet.MatchID
		ev.Amount = split.Net
		ev.Fee = split.Fee
		ev.Transfers = []events.Transfer{
			{From: toWinner.From.String(), To: toWinner.To.String(), Amount: toWinner.Amount},
			{From: toTreasury.From.String(), To: toTreasury.To.String(), Amount: toTreasury.Amount},
		}
		fx.emit(ev)
		out = bet
		return nil
	})
	return out, err
}
