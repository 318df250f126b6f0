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

// RefundBet devolve o valor apostado quando a partida segue Pending depois de
// StartTime + RefundGrace. A aposta fica Settled com Refunded=true e sai dos totais da
// partida; os contadores da plataforma e do usuário são de volume histórico e ficam.
func (e *Engine) RefundBet(ctx context.Context, signer, betKey string) (*domain.Bet, error) {
	var out *domain.Bet
	err := e.exec(ctx, "refundBet", signer, func(tx store.Tx, fx *effects) error {
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
		if bet.Status != domain.BetActive {
			return domain.ErrBetAlreadySettled
		}
		m, err := e.loadMatch(ctx, tx, bet.MatchKey)
		if err != nil {
			return err
		}
		platform, err := e.loadPlatform(ctx, tx)
		if err != nil {
			return err
		}
		now := e.now()
		if m.Status != domain.MatchPending {
			return fmt.Errorf("%w: match %s was settled", domain.ErrRefundUnavailable, m.MatchID)
		}
		if deadline := m.StartTime.Add(platform.RefundGrace()); now.Before(deadline) {
			return fmt.Errorf("%w: refunds open at %s", domain.ErrRefundUnavailable, deadline.Format("2006-01-02T15:04:05Z07:00"))
		}
		user, err := e.loadOrCreateUser(ctx, tx, signer)
		if err != nil {
			return err
		}
		for _, r := range []domain.Record{bet, user, m} {
			if err := domain.EnsureOwned(r); err != nil {
				return err
			}
		}

		escrowKey, _ := address.EscrowKey(bet.MatchID)
		to, err := e.userCustody(ctx, tx, signer)
		if err != nil {
			return err
		}
		r, err := e.custody.Transfer(ctx, tx, escrowKey, to.Key, platformAuthority(), bet.Amount, "refund:"+bet.MatchID)
		if err != nil {
			return err
		}

		bet.Status = domain.BetSettled
		bet.Refunded = true
		bet.Payout = bet.Amount
		bet.SettledAt = &now
		touch(&bet.Meta, now)
		if user.ActiveBets, err = safemath.Dec(user.ActiveBets); err != nil {
			return err
		}
		user.TokenBalance = r.ToAfter
		touch(&user.Meta, now)
		if m.TotalBets, err = safemath.Dec(m.TotalBets); err != nil {
			return err
		}
		if m.TotalStaked, err = safemath.Sub(m.TotalStaked, bet.Amount); err != nil {
			return err
		}
		touch(&m.Meta, now)
		if err := store.Put(ctx, tx, bet); err != nil {
			return err
		}
		if err := store.Put(ctx, tx, m); err != nil {
			return err
		}
		if err := store.Put(ctx, tx, user); err != nil {
			return err
		}

		ev := e.event(events.BetRefunded, "refundBet", key)
		ev.MatchID = bet.MatchID
		ev.Amount = bet.Amount
		ev.Transfers = []events.Transfer{{From: r.From.String(), To: r.To.String(), Amount: r.Amount}}
		fx.emit(ev)
		out = bet
		return nil
	})
	return out, err
}
