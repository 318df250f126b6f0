package engine

import (
	"context"
	"fmt"

	"github.com/radieske/sports-bet-ledger/internal/ledger/address"
	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
	"github.com/radieske/sports-bet-ledger/internal/ledger/store"
	"github.com/radieske/sports-bet-ledger/pkg/contracts/events"
)

// DefaultRefundGraceSeconds é a janela padrão após o início de uma partida não liquidada
// a partir da qual as apostas podem ser reembolsadas.
const DefaultRefundGraceSeconds = 24 * 60 * 60

type InitParams struct {
	FeeBps             uint64
	Treasury           string // default: o próprio signer
	RefundGraceSeconds int64  // <= 0 usa DefaultRefundGraceSeconds
}

// InitializePlatform cria o PlatformConfig. O signer vira a authority da plataforma.
func (e *Engine) InitializePlatform(ctx context.Context, signer string, p InitParams) (*domain.PlatformConfig, error) {
	var out *domain.PlatformConfig
	err := e.exec(ctx, "initializePlatform", signer, func(tx store.Tx, fx *effects) error {
		if p.FeeBps >= domain.MaxFeeBps {
			return fmt.Errorf("%w: %d bps (must be below %d)", domain.ErrInvalidPlatformFee, p.FeeBps, domain.MaxFeeBps)
		}
		key := address.PlatformKey()
		exists, err := store.Exists(ctx, tx, key)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrPlatformAlreadyInitialized
		}

		treasury := p.Treasury
		if treasury == "" {
			treasury = signer
		}
		grace := p.RefundGraceSeconds
		if grace <= 0 {
			grace = DefaultRefundGraceSeconds
		}
		if _, err := e.userCustody(ctx, tx, treasury); err != nil {
			return err
		}

		now := e.now()
		cfg := &domain.PlatformConfig{
			Meta:               domain.Meta{Key: key, CreatedAt: now, UpdatedAt: now},
			Authority:          signer,
			FeeBps:             p.FeeBps,
			Initialized:        true,
			Treasury:           treasury,
			RefundGraceSeconds: grace,
		}
		if err := store.Put(ctx, tx, cfg); err != nil {
			return err
		}
		ev := e.event(events.PlatformInitialized, "initializePlatform", key)
		ev.Fee = p.FeeBps
		fx.emit(ev)
		out = cfg
		return nil
	})
	return out, err
}

func (e *Engine) Platform(ctx context.Context) (*domain.PlatformConfig, error) {
	var out *domain.PlatformConfig
	err := e.view(ctx, func(tx store.Tx) (err error) {
		out, err = e.loadPlatform(ctx, tx)
		return err
	})
	return out, err
}
