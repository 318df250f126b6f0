// Package token é a custódia de tokens fungíveis: contas, mint e transferências.
// Toda operação roda dentro da store.Tx da instrução que a chamou, então uma falha
// posterior na instrução desfaz também os movimentos de saldo.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/radieske/sports-bet-ledger/internal/ledger/address"
	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
	"github.com/radieske/sports-bet-ledger/internal/ledger/safemath"
	"github.com/radieske/sports-bet-ledger/internal/ledger/store"
)

// Receipt registra o saldo antes/depois das duas contas de uma transferência.
type Receipt struct {
	From        address.Key `json:"from"`
	To          address.Key `json:"to"`
	Amount      uint64      `json:"amount"`
	FromBefore  uint64      `json:"fromBefore"`
	FromAfter   uint64      `json:"fromAfter"`
	ToBefore    uint64      `json:"toBefore"`
	ToAfter     uint64      `json:"toAfter"`
	ExecutedAt  time.Time   `json:"executedAt"`
	Description string      `json:"description,omitempty"`
}

var ErrSameAccount = errors.New("token: source and destination are the same account")

// Ledger implementa a custódia sobre o store do ledger.
type Ledger struct {
	now func() time.Time
}

func NewLedger(now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{now: now}
}

// OpenAccount cria a conta em key se ainda não existir (init-if-needed) e a retorna.
func (l *Ledger) OpenAccount(ctx context.Context, tx store.Tx, key address.Key, owner, authority string) (*domain.TokenAccount, error) {
	acc, err := l.Account(ctx, tx, key)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	now := l.now()
	acc = &domain.TokenAccount{
		Meta:      domain.Meta{Key: key, CreatedAt: now, UpdatedAt: now},
		Owner:     owner,
		Authority: authority,
	}
	if err := store.Put(ctx, tx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

func (l *Ledger) Account(ctx context.Context, tx store.Tx, key address.Key) (*domain.TokenAccount, error) {
	var acc domain.TokenAccount
	if err := store.Get(ctx, tx, key, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// Transfer move amount de from para to. signer deve ser a authority da conta de origem.
// amount zero é no-op e não toca nas contas.
func (l *Ledger) Transfer(ctx context.Context, tx store.Tx, from, to address.Key, signer string, amount uint64, desc string) (*Receipt, error) {
	if from == to {
		return nil, fmt.Errorf("%w: %s", ErrSameAccount, from)
	}
	src, err := l.Account(ctx, tx, from)
	if err != nil {
		return nil, fmt.Errorf("load source %s: %w", from, err)
	}
	dst, err := l.Account(ctx, tx, to)
	if err != nil {
		return nil, fmt.Errorf("load destination %s: %w", to, err)
	}
	if src.Authority != signer {
		return nil, fmt.Errorf("%w: signer %q cannot debit %s", domain.ErrUnauthorized, signer, from)
	}

	r := &Receipt{
		From: from, To: to, Amount: amount,
		FromBefore: src.Balance, FromAfter: src.Balance,
		ToBefore: dst.Balance, ToAfter: dst.Balance,
		ExecutedAt: l.now(), Description: desc,
	}
	if amount == 0 {
		return r, nil
	}
	if err := domain.EnsureOwned(src); err != nil {
		return nil, err
	}
	if err := domain.EnsureOwned(dst); err != nil {
		return nil, err
	}

	if src.Balance < amount {
		return nil, fmt.Errorf("%w: %s has %d, needs %d", domain.ErrInsufficientBalance, from, src.Balance, amount)
	}
	if src.Balance, err = safemath.Sub(src.Balance, amount); err != nil {
		return nil, err
	}
	if dst.Balance, err = safemath.Add(dst.Balance, amount); err != nil {
		return nil, err
	}
	src.UpdatedAt, dst.UpdatedAt = r.ExecutedAt, r.ExecutedAt

	if err := store.Put(ctx, tx, src); err != nil {
		return nil, err
	}
	if err := store.Put(ctx, tx, dst); err != nil {
		return nil, err
	}
	r.FromAfter, r.ToAfter = src.Balance, dst.Balance
	return r, nil
}

// MintParams descreve o token emitido pela plataforma.
type MintParams struct {
	Name      string
	Symbol    string
	URI       string
	Decimals  uint8
	Authority string
}

// CreateMint cria o mint único da plataforma.
func (l *Ledger) CreateMint(ctx context.Context, tx store.Tx, p MintParams) (*domain.Mint, error) {
	key := address.MintKey()
	exists, err := store.Exists(ctx, tx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: mint already created", domain.ErrAccountAlreadyExists)
	}

	now := l.now()
	m := &domain.Mint{
		Meta:      domain.Meta{Key: key, CreatedAt: now, UpdatedAt: now},
		Name:      p.Name,
		Symbol:    p.Symbol,
		URI:       p.URI,
		Decimals:  p.Decimals,
		Authority: p.Authority,
	}
	if err := store.Put(ctx, tx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (l *Ledger) Mint(ctx context.Context, tx store.Tx) (*domain.Mint, error) {
	var m domain.Mint
	if err := store.Get(ctx, tx, address.MintKey(), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// MintTo emite amount unidades base na conta to. signer deve ser a authority do mint.
func (l *Ledger) MintTo(ctx context.Context, tx store.Tx, to address.Key, signer string, amount uint64) (*Receipt, error) {
	if amount == 0 {
		return nil, fmt.Errorf("%w: mint amount must be positive", domain.ErrInvalidAmount)
	}
	m, err := l.Mint(ctx, tx)
	if err != nil {
		return nil, err
	}
	if m.Authority != signer {
		return nil, fmt.Errorf("%w: signer %q is not the mint authority", domain.ErrUnauthorized, signer)
	}
	dst, err := l.Account(ctx, tx, to)
	if err != nil {
		return nil, fmt.Errorf("load destination %s: %w", to, err)
	}
	if err := domain.EnsureOwned(dst); err != nil {
		return nil, err
	}

	now := l.now()
	r := &Receipt{From: m.Key, To: to, Amount: amount, ToBefore: dst.Balance, ExecutedAt: now, Description: "mint"}
	if m.Supply, err = safemath.Add(m.Supply, amount); err != nil {
		return nil, err
	}
	if dst.Balance, err = safemath.Add(dst.Balance, amount); err != nil {
		return nil, err
	}
	m.UpdatedAt, dst.UpdatedAt = now, now

	if err := store.Put(ctx, tx, m); err != nil {
		return nil, err
	}
	if err := store.Put(ctx, tx, dst); err != nil {
		return nil, err
	}
	r.ToAfter = dst.Balance
	return r, nil
}
