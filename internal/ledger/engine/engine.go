// Package engine executa as instruções do ledger de apostas.
//
// Cada instrução roda numa única store.Tx: validação de estado e autorização, cálculo
// checado, movimentos de custódia e gravação dos registros são aplicados juntos no Commit
// ou descartados juntos. Eventos e hooks pós-commit só rodam depois do Commit.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sports-bet-ledger/internal/ledger/address"
	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
	"github.com/radieske/sports-bet-ledger/internal/ledger/oracle"
	"github.com/radieske/sports-bet-ledger/internal/ledger/rollup"
	"github.com/radieske/sports-bet-ledger/internal/ledger/store"
	"github.com/radieske/sports-bet-ledger/internal/ledger/token"
	"github.com/radieske/sports-bet-ledger/pkg/contracts/events"
)

// Publisher recebe os eventos das instruções confirmadas.
type Publisher interface {
	Publish(ctx context.Context, ev events.LedgerEvent) error
}

// Observer recebe o resultado (Code) e a duração de cada instrução.
type Observer interface {
	Observe(instruction, result string, d time.Duration)
}

type Deps struct {
	Store     store.Store
	Oracle    oracle.Oracle
	Rollup    rollup.Context
	Publisher Publisher // opcional
	Observer  Observer  // opcional
	Log       *zap.Logger
	Now       func() time.Time
	// Delegate é a identidade registrada como delegada quando o chamador não informa uma.
	Delegate string
}

type Engine struct {
	store    store.Store
	custody  *token.Ledger
	oracle   oracle.Oracle
	rollup   rollup.Context
	pub      Publisher
	obs      Observer
	log      *zap.Logger
	now      func() time.Time
	delegate string
}

func New(d Deps) (*Engine, error) {
	if d.Store == nil || d.Oracle == nil || d.Rollup == nil {
		return nil, errors.New("engine: store, oracle and rollup are required")
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Delegate == "" {
		d.Delegate = "rollup"
	}
	return &Engine{
		store:    d.Store,
		custody:  token.NewLedger(d.Now),
		oracle:   d.Oracle,
		rollup:   d.Rollup,
		pub:      d.Publisher,
		obs:      d.Observer,
		log:      d.Log,
		now:      d.Now,
		delegate: d.Delegate,
	}, nil
}

// effects acumula o que a instrução produz além das escritas no store.
type effects struct {
	events      []events.LedgerEvent
	afterCommit []func(ctx context.Context) error
	onAbort     []func(ctx context.Context)
	// outcome é devolvido ao chamador mesmo com a transação confirmada (ex: NotWinner).
	outcome error
}

func (fx *effects) emit(ev events.LedgerEvent) { fx.events = append(fx.events, ev) }

// exec abre a transação, roda fn e confirma. Erro de fn desfaz tudo.
func (e *Engine) exec(ctx context.Context, instruction, signer string, fn func(tx store.Tx, fx *effects) error) (err error) {
	start := time.Now()
	fx := &effects{}
	committed := false
	defer func() {
		if err != nil && !committed {
			for _, undo := range fx.onAbort {
				undo(context.WithoutCancel(ctx))
			}
		}
		e.finish(instruction, signer, err, time.Since(start))
	}()

	if signer == "" {
		return fmt.Errorf("%w: missing signer", domain.ErrUnauthorized)
	}

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx, fx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", instruction, err)
	}
	committed = true

	for _, hook := range fx.afterCommit {
		if herr := hook(ctx); herr != nil {
			e.log.Warn("post-commit hook failed", zap.String("instruction", instruction), zap.Error(herr))
		}
	}
	for _, ev := range fx.events {
		ev.Signer = signer
		e.publish(ctx, ev)
	}
	return fx.outcome
}

func (e *Engine) finish(instruction, signer string, err error, d time.Duration) {
	code := domain.CodeOf(err)
	if e.obs != nil {
		e.obs.Observe(instruction, string(code), d)
	}
	fields := []zap.Field{
		zap.String("instruction", instruction),
		zap.String("signer", signer),
		zap.String("code", string(code)),
		zap.Duration("elapsed", d),
	}
	switch {
	case err == nil:
		e.log.Info("instruction executed", fields...)
	case code == domain.CodeInternal:
		e.log.Error("instruction failed", append(fields, zap.Error(err))...)
	default:
		e.log.Warn("instruction rejected", append(fields, zap.Error(err))...)
	}
}

func (e *Engine) publish(ctx context.Context, ev events.LedgerEvent) {
	if e.pub == nil {
		return
	}
	if err := e.pub.Publish(ctx, ev); err != nil {
		e.log.Warn("ledger event publish failed", zap.String("type", ev.Type), zap.Error(err))
	}
}

func (e *Engine) event(typ, instruction string, key address.Key) events.LedgerEvent {
	return events.NewLedgerEvent(typ, instruction, key.String(), e.now())
}

// view roda uma leitura numa transação descartada.
func (e *Engine) view(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return fn(tx)
}

// derive converte erros do deriver (seed longa demais) em InvalidGameData.
func derive(fn func() (address.Key, error)) (address.Key, error) {
	k, err := fn()
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidGameData, err)
	}
	return k, nil
}

// parseKey valida uma chave recebida de fora (ex: path HTTP).
func parseKey(s string) (address.Key, error) {
	if !address.Valid(s) {
		return "", fmt.Errorf("%w: malformed key %q", domain.ErrAccountNotFound, s)
	}
	return address.Key(s), nil
}

// platformAuthority é a identidade que assina pelos pools do programa (escrow, mint).
func platformAuthority() string { return address.PlatformKey().String() }

func (e *Engine) loadPlatform(ctx context.Context, tx store.Tx) (*domain.PlatformConfig, error) {
	var p domain.PlatformConfig
	if err := store.Get(ctx, tx, address.PlatformKey(), &p); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrPlatformNotInitialized
		}
		return nil, err
	}
	if !p.Initialized {
		return nil, domain.ErrPlatformNotInitialized
	}
	return &p, nil
}

func (e *Engine) loadMatch(ctx context.Context, tx store.Tx, key address.Key) (*domain.Match, error) {
	var m domain.Match
	if err := store.Get(ctx, tx, key, &m); err != nil {
		return nil, fmt.Errorf("match %s: %w", key, err)
	}
	return &m, nil
}

func (e *Engine) loadBet(ctx context.Context, tx store.Tx, key address.Key) (*domain.Bet, error) {
	var b domain.Bet
	if err := store.Get(ctx, tx, key, &b); err != nil {
		return nil, fmt.Errorf("bet %s: %w", key, err)
	}
	return &b, nil
}

// loadOrCreateUser cria o UserAccount na primeira aposta do dono.
func (e *Engine) loadOrCreateUser(ctx context.Context, tx store.Tx, owner string) (*domain.UserAccount, error) {
	key, err := derive(func() (address.Key, error) { return address.UserKey(owner) })
	if err != nil {
		return nil, err
	}
	var u domain.UserAccount
	err = store.Get(ctx, tx, key, &u)
	if errors.Is(err, domain.ErrAccountNotFound) {
		now := e.now()
		return &domain.UserAccount{Meta: domain.Meta{Key: key, CreatedAt: now, UpdatedAt: now}, Owner: owner}, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// userCustody abre (se preciso) a conta de custódia do dono; a authority é o próprio dono.
func (e *Engine) userCustody(ctx context.Context, tx store.Tx, owner string) (*domain.TokenAccount, error) {
	key, err := derive(func() (address.Key, error) { return address.TokenKey(owner) })
	if err != nil {
		return nil, err
	}
	return e.custody.OpenAccount(ctx, tx, key, owner, owner)
}

// syncUserBalance espelha o saldo de custódia no UserAccount, se ele existir.
func (e *Engine) syncUserBalance(ctx context.Context, tx store.Tx, u *domain.UserAccount) error {
	key, err := address.TokenKey(u.Owner)
	if err != nil {
		return err
	}
	acc, err := e.custody.Account(ctx, tx, key)
	if err != nil {
		return err
	}
	u.TokenBalance = acc.Balance
	return nil
}

func touch(m *domain.Meta, now time.Time) { m.UpdatedAt = now }
