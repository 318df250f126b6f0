// Package report imprime tabelas de partidas, apostas e usuários a partir do ledger.
package report

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
)

// Source é o subconjunto de leitura do *engine.Engine usado pelos relatórios.
type Source interface {
	Platform(ctx context.Context) (*domain.PlatformConfig, error)
	Matches(ctx context.Context) ([]*domain.Match, error)
	Bets(ctx context.Context, matchID string) ([]*domain.Bet, error)
	Users(ctx context.Context) ([]*domain.UserAccount, error)
}

type Reporter struct {
	Src Source
	Out io.Writer
}

func New(src Source, out io.Writer) *Reporter {
	return &Reporter{Src: src, Out: out}
}

// Platform imprime a configuração e os contadores globais.
func (r *Reporter) Platform(ctx context.Context) error {
	p, err := r.Src.Platform(ctx)
	if err != nil {
		return err
	}
	t := tablewriter.NewWriter(r.Out)
	t.Header("Authority", "Fee (bps)", "Treasury", "Refund grace", "Bets", "Volume")
	if err := t.Append(
		p.Authority,
		u64(p.FeeBps),
		p.Treasury,
		p.RefundGrace().String(),
		u64(p.TotalBets),
		u64(p.TotalVolume),
	); err != nil {
		return err
	}
	return t.Render()
}

func (r *Reporter) Matches(ctx context.Context) error {
	matches, err := r.Src.Matches(ctx)
	if err != nil {
		return err
	}
	t := tablewriter.NewWriter(r.Out)
	t.Header("Match", "Team A", "Team B", "Start", "Status", "Winner", "Bets", "Staked", "Delegated")
	for _, m := range matches {
		if err := t.Append(
			m.MatchID,
			m.TeamA,
			m.TeamB,
			m.StartTime.UTC().Format(time.RFC3339),
			string(m.Status),
			dash(m.Winner),
			u64(m.TotalBets),
			u64(m.TotalStaked),
			delegated(m.Delegation),
		); err != nil {
			return err
		}
	}
	return t.Render()
}

// Bets imprime as apostas; matchID vazio lista todas.
func (r *Reporter) Bets(ctx context.Context, matchID string) error {
	bets, err := r.Src.Bets(ctx, matchID)
	if err != nil {
		return err
	}
	t := tablewriter.NewWriter(r.Out)
	t.Header("Bet", "Match", "Bettor", "Pick", "Amount", "Odds", "Status", "Result", "Payout", "Fee")
	for _, b := range bets {
		if err := t.Append(
			shortKey(b.Key.String()),
			b.MatchID,
			b.Bettor,
			b.PredictedWinner,
			u64(b.Amount),
			b.Odds.StringFixed(2),
			string(b.Status),
			result(b),
			u64(b.Payout),
			u64(b.Fee),
		); err != nil {
			return err
		}
	}
	return t.Render()
}

func (r *Reporter) Users(ctx context.Context) error {
	users, err := r.Src.Users(ctx)
	if err != nil {
		return err
	}
	t := tablewriter.NewWriter(r.Out)
	t.Header("Owner", "Balance", "Active", "Total", "Won")
	for _, u := range users {
		if err := t.Append(
			u.Owner,
			u64(u.TokenBalance),
			u64(u.ActiveBets),
			u64(u.TotalBets),
			u64(u.WonBets),
		); err != nil {
			return err
		}
	}
	return t.Render()
}

func result(b *domain.Bet) string {
	switch {
	case b.Status == domain.BetActive:
		return "-"
	case b.Refunded:
		return "refunded"
	case b.Won:
		return "won"
	}
	return "lost"
}

func delegated(d domain.Delegation) string {
	if d.IsDelegated() {
		return fmt.Sprintf("epoch %d", d.Epoch)
	}
	return "-"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// shortKey abrevia chaves base58 longas para caber na tabela.
func shortKey(k string) string {
	if len(k) <= 12 {
		return k
	}
	return k[:6] + ".." + k[len(k)-4:]
}

func u64(v uint64) string { return strconv.FormatUint(v, 10) }
