package engine

import (
	"context"
	"fmt"

	"github.com/radieske/sports-bet-ledger/internal/ledger/address"
	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
	"github.com/radieske/sports-bet-ledger/internal/ledger/safemath"
	"github.com/radieske/sports-bet-ledger/internal/ledger/store"
	"github.com/radieske/sports-bet-ledger/internal/ledger/token"
	"github.com/radieske/sports-bet-ledger/pkg/contracts/events"
)

// MaxMintDecimals mantém 10^decimals dentro de uint64.
const MaxMintDecimals = 19

type CreateMintParams struct {
	Name     string
	Symbol   string
	URI      string
	Decimals uint8
}

// CreateMint cria o token da plataforma. A authority do mint é a chave da plataforma,
// então só o próprio ledger emite (via MintToken).
func (e *Engine) CreateMint(ctx context.Context, signer string, p CreateMintParams) (*domain.Mint, error) {
	var out *domain.Mint
	err := e.exec(ctx, "createMint", signer, func(tx store.Tx, fx *effects) error {
		platform, err := e.loadPlatform(ctx, tx)
		if err != nil {
			return err
		}
		if signer != platform.Authority {
			return fmt.Errorf("%w: only the platform authority creates the mint", domain.ErrUnauthorized)
		}
		if p.Name == "" || p.Symbol == "" {
			return fmt.Errorf("%w: mint name and symbol are required", domain.ErrInvalidGameData)
		}
		if p.Decimals > MaxMintDecimals {
			return fmt.Errorf("%w: decimals above %d", domain.ErrInvalidAmount, MaxMintDecimals)
		}
		m, err := e.custody.CreateMint(ctx, tx, token.MintParams{
			Name:      p.Name,
			Symbol:    p.Symbol,
			URI:       p.URI,
			Decimals:  p.Decimals,
			Authority: platformAuthority(),
		})
		if err != nil {
			return err
		}
		fx.emit(e.event(events.MintCreated, "createMint", m.Key))
		out = m
		return nil
	})
	return out, err
}

// MintToken emite amount * 10^decimals na custódia do signer, abrindo a conta se preciso.
func (e *Engine) MintToken(ctx context.Context, signer string, amount uint64) (*domain.TokenAccount, error) {
	var out *domain.TokenAccount
	err := e.exec(ctx, "mintToken", signer, func(tx store.Tx, fx *effects) error {
		if amount == 0 {
			return fmt.Errorf("%w: mint amount must be positive", domain.ErrInvalidAmount)
		}
		m, err := e.custody.Mint(ctx, tx)
		if err != nil {
			return err
		}
		scale, err := safemath.Pow10(m.Decimals)
		if err != nil {
			return err
		}
		units, err := safemath.Mul(amount, scale)
		if err != nil {
			return err
		}
		acc, err := e.userCustody(ctx, tx, signer)
		if err != nil {
			return err
		}
		r, err := e.custody.MintTo(ctx, tx, acc.Key, platformAuthority(), units)
		if err != nil {
			return err
		}

		// espelha o saldo se o dono já apostou
		userKey, _ := address.UserKey(signer)
		var u domain.UserAccount
		if err := store.Get(ctx, tx, userKey, &u); err == nil {
			u.TokenBalance = r.ToAfter
			touch(&u.Meta, e.now())
			if err := store.Put(ctx, tx, &u); err != nil {
				return err
			}
		}

		if out, err = e.custody.Account(ctx, tx, acc.Key); err != nil {
			return err
		}
		ev := e.event(events.TokensMinted, "mintToken", acc.Key)
		ev.Amount = units
		fx.emit(ev)
		return nil
	})
	return out, err
}

// TokenAccount retorna a conta de custódia de owner.
func (e *Engine) TokenAccount(ctx context.Context, owner string) (*domain.TokenAccount, error) {
	var out *domain.TokenAccount
	err := e.view(ctx, func(tx store.Tx) error {
		key, err := derive(func() (address.Key, error) { return address.TokenKey(owner) })
		if err != nil {
			return err
		}
		out, err = e.custody.Account(ctx, tx, key)
		return err
	})
	return out, err
}

func (e *Engine) Mint(ctx context.Context) (*domain.Mint, error) {
	var out *domain.Mint
	err := e.view(ctx, func(tx store.Tx) (err error) {
		out, err = e.custody.Mint(ctx, tx)
		return err
	})
	return out, err
}
