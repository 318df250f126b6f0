package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/sports-bet-ledger/internal/ledger/address"
	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
	"github.com/radieske/sports-bet-ledger/internal/ledger/engine"
	"github.com/radieske/sports-bet-ledger/internal/ledger/oracle"
	"github.com/radieske/sports-bet-ledger/internal/ledger/rollup"
	"github.com/radieske/sports-bet-ledger/internal/ledger/store"
	"github.com/radieske/sports-bet-ledger/internal/ledger/store/memory"
	"github.com/radieske/sports-bet-ledger/pkg/contracts/events"
)

const (
	admin    = "admin"
	treasury = "treasury"
	house    = "house"
	alice    = "alice"
	bob      = "bob"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	events []events.LedgerEvent
	obs    map[string]int
}

func (r *recorder) Publish(_ context.Context, ev events.LedgerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) Observe(instruction, result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.obs == nil {
		r.obs = make(map[string]int)
	}
	r.obs[instruction+"/"+result]++
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type harness struct {
	t      *testing.T
	ctx    context.Context
	eng    *engine.Engine
	clock  *clock
	rec    *recorder
	rollup *rollup.MemoryContext
	start  time.Time
}

type option func(*engine.Deps)

func withOracle(o oracle.Oracle) option { return func(d *engine.Deps) { d.Oracle = o } }

// newHarness inicializa a plataforma (150 bps), cria o mint (0 decimais) e a partida "m1"
// entre A e B que começa em uma hora.
func newHarness(t *testing.T, opts ...option) *harness {
	t.Helper()
	c := &clock{t: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	rec := &recorder{}
	rc := rollup.NewMemoryContext(c.Now)
	deps := engine.Deps{
		Store:     memory.New(),
		Oracle:    oracle.NewStatic(decimal.RequireFromString("1.90")),
		Rollup:    rc,
		Publisher: rec,
		Observer:  rec,
		Now:       c.Now,
		Delegate:  "rollup-worker",
	}
	for _, o := range opts {
		o(&deps)
	}
	eng, err := engine.New(deps)
	require.NoError(t, err)

	h := &harness{t: t, ctx: context.Background(), eng: eng, clock: c, rec: rec, rollup: rc}
	h.start = c.Now().Add(time.Hour)

	_, err = eng.InitializePlatform(h.ctx, admin, engine.InitParams{FeeBps: 150, Treasury: treasury, RefundGraceSeconds: 3600})
	require.NoError(t, err)
	_, err = eng.CreateMint(h.ctx, admin, engine.CreateMintParams{Name: "Bet Token", Symbol: "BET", Decimals: 0})
	require.NoError(t, err)
	_, err = eng.CreateMatch(h.ctx, admin, engine.CreateMatchParams{MatchID: "m1", TeamA: "A", TeamB: "B", StartTime: h.start})
	require.NoError(t, err)
	return h
}

func (h *harness) mint(owner string, amount uint64) {
	h.t.Helper()
	_, err := h.eng.MintToken(h.ctx, owner, amount)
	require.NoError(h.t, err)
}

func (h *harness) fund(amount uint64) {
	h.t.Helper()
	h.mint(house, amount)
	_, err := h.eng.FundEscrow(h.ctx, house, "m1", amount)
	require.NoError(h.t, err)
}

func (h *harness) bet(owner, winner string, amount uint64) *domain.Bet {
	h.t.Helper()
	b, err := h.eng.PlaceBet(h.ctx, owner, engine.PlaceBetParams{MatchID: "m1", Amount: amount, PredictedWinner: winner})
	require.NoError(h.t, err)
	return b
}

func (h *harness) balance(owner string) uint64 {
	h.t.Helper()
	acc, err := h.eng.TokenAccount(h.ctx, owner)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return 0
	}
	require.NoError(h.t, err)
	return acc.Balance
}

func (h *harness) escrow() uint64 {
	h.t.Helper()
	acc, err := h.eng.Escrow(h.ctx, "m1")
	require.NoError(h.t, err)
	return acc.Balance
}

func (h *harness) supply() uint64 {
	h.t.Helper()
	m, err := h.eng.Mint(h.ctx)
	require.NoError(h.t, err)
	return m.Supply
}

func TestEndToEnd_WinnerPaidWithFee(t *testing.T) {
	h := newHarness(t)
	h.mint(alice, 1000)
	h.fund(1000)

	b := h.bet(alice, "A", 1000)
	assert.Equal(t, domain.BetActive, b.Status)
	assert.True(t, b.Odds.Equal(decimal.RequireFromString("1.90")))
	assert.Equal(t, uint64(0), h.balance(alice))
	assert.Equal(t, uint64(2000), h.escrow())

	_, err := h.eng.SettleMatch(h.ctx, admin, "m1", "A")
	require.NoError(t, err)

	claimed, err := h.eng.ClaimWinnings(h.ctx, alice, b.Key.String())
	require.NoError(t, err)
	assert.Equal(t, domain.BetSettled, claimed.Status)
	assert.True(t, claimed.Won)
	assert.Equal(t, uint64(1985), claimed.Payout)
	assert.Equal(t, uint64(15), claimed.Fee)

	assert.Equal(t, uint64(1985), h.balance(alice))
	assert.Equal(t, uint64(15), h.balance(treasury))
	assert.Equal(t, uint64(0), h.escrow())
	// conservação: nada criado nem destruído fora do mint
	assert.Equal(t, h.supply(), h.balance(alice)+h.balance(treasury)+h.balance(house)+h.escrow())

	u, err := h.eng.User(h.ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(1985), u.TokenBalance)
	assert.Equal(t, uint64(0), u.ActiveBets)
	assert.Equal(t, uint64(1), u.WonBets)

	p, err := h.eng.Platform(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), p.TotalBets)
	assert.Equal(t, uint64(1000), p.TotalVolume)

	assert.Contains(t, h.rec.types(), events.BetClaimed)
	assert.Equal(t, 1, h.rec.obs["claimWinnings/OK"])
}

func TestClaim_NotWinnerIsRecorded(t *testing.T) {
	h := newHarness(t)
	h.mint(bob, 500)
	b := h.bet(bob, "B", 500)

	_, err := h.eng.SettleMatch(h.ctx, admin, "m1", "A")
	require.NoError(t, err)

	lost, err := h.eng.ClaimWinnings(h.ctx, bob, b.Key.String())
	assert.ErrorIs(t, err, domain.ErrNotWinner)
	require.NotNil(t, lost)

	stored, err := h.eng.Bet(h.ctx, b.Key.String())
	require.NoError(t, err)
	assert.Equal(t, domain.BetSettled, stored.Status)
	assert.False(t, stored.Won)
	assert.Zero(t, stored.Payout)
	assert.Equal(t, uint64(500), h.escrow())

	_, err = h.eng.ClaimWinnings(h.ctx, bob, b.Key.String())
	assert.ErrorIs(t, err, domain.ErrBetAlreadySettled)
	assert.Equal(t, 1, h.rec.obs["claimWinnings/NotWinner"])
}

func TestClaim_Preconditions(t *testing.T) {
	h := newHarness(t)
	h.mint(alice, 100)
	h.fund(100)
	b := h.bet(alice, "A", 100)

	_, err := h.eng.ClaimWinnings(h.ctx, alice, b.Key.String())
	assert.ErrorIs(t, err, domain.ErrGameNotStarted)

	_, err = h.eng.SettleMatch(h.ctx, admin, "m1", "A")
	require.NoError(t, err)

	_, err = h.eng.ClaimWinnings(h.ctx, bob, b.Key.String())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = h.eng.ClaimWinnings(h.ctx, alice, b.Key.String())
	require.NoError(t, err)
	_, err = h.eng.ClaimWinnings(h.ctx, alice, b.Key.String())
	assert.ErrorIs(t, err, domain.ErrBetAlreadySettled)
	assert.Equal(t, uint64(199), h.balance(alice))

	_, err = h.eng.ClaimWinnings(h.ctx, alice, "not-a-key")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

// failingStore faz o Save de failKey falhar, simulando erro de escrita no meio da instrução.
type failingStore struct {
	store.Store
	mu      sync.Mutex
	failKey address.Key
}

func (s *failingStore) failOn(key address.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failKey = key
}

func (s *failingStore) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &failingTx{Tx: tx, s: s}, nil
}

type failingTx struct {
	store.Tx
	s *failingStore
}

func (t *failingTx) Save(ctx context.Context, e store.Entry) error {
	t.s.mu.Lock()
	fail := t.s.failKey != "" && e.Key == t.s.failKey
	t.s.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return t.Tx.Save(ctx, e)
}

func TestClaim_RollsBackWhenTreasuryLegFails(t *testing.T) {
	fs := &failingStore{Store: memory.New()}
	h := newHarness(t, func(d *engine.Deps) { d.Store = fs })
	h.mint(alice, 100)
	h.mint(treasury, 1)
	h.fund(100)
	b := h.bet(alice, "A", 100)
	_, err := h.eng.SettleMatch(h.ctx, admin, "m1", "A")
	require.NoError(t, err)

	// a perna do escrow para o vencedor já foi gravada quando a da tesouraria falha
	treasuryKey, _ := address.TokenKey(treasury)
	fs.failOn(treasuryKey)
	_, err = h.eng.ClaimWinnings(h.ctx, alice, b.Key.String())
	require.Error(t, err)
	assert.Equal(t, domain.CodeInternal, domain.CodeOf(err))

	stored, err := h.eng.Bet(h.ctx, b.Key.String())
	require.NoError(t, err)
	assert.Equal(t, domain.BetActive, stored.Status)
	assert.Equal(t, uint64(0), h.balance(alice))
	assert.Equal(t, uint64(200), h.escrow())

	fs.failOn("")
	_, err = h.eng.ClaimWinnings(h.ctx, alice, b.Key.String())
	require.NoError(t, err)
	assert.Equal(t, uint64(199), h.balance(alice))
	assert.Equal(t, uint64(2), h.balance(treasury))
}

func TestClaim_UnfundedEscrowRollsBack(t *testing.T) {
	h := newHarness(t)
	h.mint(alice, 100)
	b := h.bet(alice, "A", 100)
	_, err := h.eng.SettleMatch(h.ctx, admin, "m1", "A")
	require.NoError(t, err)

	_, err = h.eng.ClaimWinnings(h.ctx, alice, b.Key.String())
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, uint64(100), h.escrow())

	stored, err := h.eng.Bet(h.ctx, b.Key.String())
	require.NoError(t, err)
	assert.Equal(t, domain.BetActive, stored.Status)
}

func TestSettleMatch(t *testing.T) {
	h := newHarness(t)

	_, err := h.eng.SettleMatch(h.ctx, alice, "m1", "A")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = h.eng.SettleMatch(h.ctx, admin, "m1", "C")
	assert.ErrorIs(t, err, domain.ErrInvalidGameData)

	m, err := h.eng.SettleMatch(h.ctx, admin, "m1", "B")
	require.NoError(t, err)
	assert.Equal(t, domain.MatchCompleted, m.Status)
	assert.Equal(t, "B", m.Winner)
	require.NotNil(t, m.SettledAt)

	_, err = h.eng.SettleMatch(h.ctx, admin, "m1", "A")
	assert.ErrorIs(t, err, domain.ErrGameAlreadySettled)

	stored, err := h.eng.Match(h.ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "B", stored.Winner)

	_, err = h.eng.SettleMatch(h.ctx, admin, "missing", "A")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestCreateMatch_Validation(t *testing.T) {
	h := newHarness(t)
	start := h.start

	_, err := h.eng.CreateMatch(h.ctx, admin, engine.CreateMatchParams{MatchID: "m1", TeamA: "A", TeamB: "B", StartTime: start})
	assert.ErrorIs(t, err, domain.ErrDuplicateMatch)

	bad := []engine.CreateMatchParams{
		{MatchID: "", TeamA: "A", TeamB: "B", StartTime: start},
		{MatchID: "m2", TeamA: "", TeamB: "B", StartTime: start},
		{MatchID: "m2", TeamA: "A", TeamB: "A", StartTime: start},
		{MatchID: "m2", TeamA: "A", TeamB: "B"},
		{MatchID: "m2", TeamA: "A", TeamB: "a-team-name-that-is-way-too-long-for-the-record", StartTime: start},
		{MatchID: "a-match-identifier-longer-than-32-bytes", TeamA: "A", TeamB: "B", StartTime: start},
	}
	for _, p := range bad {
		_, err := h.eng.CreateMatch(h.ctx, admin, p)
		assert.ErrorIs(t, err, domain.ErrInvalidGameData, "%+v", p)
	}

	m, err := h.eng.CreateMatch(h.ctx, alice, engine.CreateMatchParams{MatchID: "m2", TeamA: "X", TeamB: "Y", StartTime: start})
	require.NoError(t, err)
	assert.Equal(t, alice, m.Authority)
	assert.Equal(t, domain.MatchPending, m.Status)

	escrow, err := h.eng.Escrow(h.ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, address.PlatformKey().String(), escrow.Authority)
}

func TestPlaceBet_Validation(t *testing.T) {
	h := newHarness(t)
	h.mint(alice, 100)

	_, err := h.eng.PlaceBet(h.ctx, alice, engine.PlaceBetParams{MatchID: "m1", Amount: 0, PredictedWinner: "A"})
	assert.ErrorIs(t, err, domain.ErrInvalidBetAmount)
	key, _ := address.BetKey(alice, "m1")
	_, err = h.eng.Bet(h.ctx, key.String())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = h.eng.PlaceBet(h.ctx, alice, engine.PlaceBetParams{MatchID: "m1", Amount: 10, PredictedWinner: "Z"})
	assert.ErrorIs(t, err, domain.ErrInvalidGameData)

	_, err = h.eng.PlaceBet(h.ctx, alice, engine.PlaceBetParams{MatchID: "m1", Amount: 10, PredictedWinner: "A", BetType: "points"})
	assert.ErrorIs(t, err, domain.ErrInvalidGameData)

	_, err = h.eng.PlaceBet(h.ctx, alice, engine.PlaceBetParams{MatchID: "m1", Amount: 101, PredictedWinner: "A"})
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	_, err = h.eng.PlaceBet(h.ctx, "", engine.PlaceBetParams{MatchID: "m1", Amount: 10, PredictedWinner: "A"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	h.bet(alice, "A", 10)
	_, err = h.eng.PlaceBet(h.ctx, alice, engine.PlaceBetParams{MatchID: "m1", Amount: 10, PredictedWinner: "B"})
	assert.ErrorIs(t, err, domain.ErrDuplicateBet)
	assert.Equal(t, uint64(90), h.balance(alice))

	m, err := h.eng.Match(h.ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), m.TotalBets)
	assert.Equal(t, uint64(10), m.TotalStaked)
}

func TestPlaceBet_AfterStart(t *testing.T) {
	h := newHarness(t)
	h.mint(alice, 100)

	h.clock.Advance(time.Hour)
	_, err := h.eng.PlaceBet(h.ctx, alice, engine.PlaceBetParams{MatchID: "m1", Amount: 10, PredictedWinner: "A"})
	assert.ErrorIs(t, err, domain.ErrGameAlreadyStarted)
}

func TestPlaceBet_OnSettledMatch(t *testing.T) {
	h := newHarness(t)
	h.mint(alice, 100)
	_, err := h.eng.SettleMatch(h.ctx, admin, "m1", "A")
	require.NoError(t, err)

	_, err = h.eng.PlaceBet(h.ctx, alice, engine.PlaceBetParams{MatchID: "m1", Amount: 10, PredictedWinner: "A"})
	assert.ErrorIs(t, err, domain.ErrGameAlreadySettled)
}

func TestPlaceBet_OracleFailureCreatesNothing(t *testing.T) {
	down := oracle.Func(func(context.Context, oracle.Query) (decimal.Decimal, error) {
		return decimal.Zero, errors.New("feed unavailable")
	})
	h := newHarness(t, withOracle(down))
	h.mint(alice, 100)

	_, err := h.eng.PlaceBet(h.ctx, alice, engine.PlaceBetParams{MatchID: "m1", Amount: 10, PredictedWinner: "A"})
	assert.ErrorIs(t, err, domain.ErrOracleVerificationFailed)

	key, _ := address.BetKey(alice, "m1")
	_, err = h.eng.Bet(h.ctx, key.String())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.Equal(t, uint64(100), h.balance(alice))
	assert.Equal(t, uint64(0), h.escrow())
}

func TestPlaceBet_PlayerStatUsesOracleThreshold(t *testing.T) {
	quotes := oracle.NewStatic(decimal.Zero)
	quotes.Set(oracle.Query{MatchID: "m1", BetType: "points", Subject: "Jordan", Threshold: 30}, decimal.RequireFromString("3.25"))
	h := newHarness(t, withOracle(quotes))
	h.mint(alice, 100)

	b, err := h.eng.PlaceBet(h.ctx, alice, engine.PlaceBetParams{
		MatchID: "m1", Amount: 10, PredictedWinner: "A", BetType: "points", PlayerName: "Jordan", StatValue: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, "3.25", b.Odds.String())
	assert.Equal(t, "points", b.BetType)
}

func TestRefundBet(t *testing.T) {
	h := newHarness(t)
	h.mint(alice, 100)
	b := h.bet(alice, "A", 100)

	_, err := h.eng.RefundBet(h.ctx, alice, b.Key.String())
	assert.ErrorIs(t, err, domain.ErrRefundUnavailable)

	// início + 1h de carência
	h.clock.Advance(2 * time.Hour)
	_, err = h.eng.RefundBet(h.ctx, bob, b.Key.String())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	refunded, err := h.eng.RefundBet(h.ctx, alice, b.Key.String())
	require.NoError(t, err)
	assert.True(t, refunded.Refunded)
	assert.Equal(t, domain.BetSettled, refunded.Status)
	assert.Equal(t, uint64(100), h.balance(alice))
	assert.Equal(t, uint64(0), h.escrow())

	// aposta reembolsada sai dos totais da partida; o volume da plataforma é histórico
	m, err := h.eng.Match(h.ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), m.TotalBets)
	assert.Equal(t, uint64(0), m.TotalStaked)
	p, err := h.eng.Platform(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), p.TotalBets)
	assert.Equal(t, uint64(100), p.TotalVolume)

	_, err = h.eng.RefundBet(h.ctx, alice, b.Key.String())
	assert.ErrorIs(t, err, domain.ErrBetAlreadySettled)
}

func TestRefundBet_SettledMatch(t *testing.T) {
	h := newHarness(t)
	h.mint(alice, 100)
	b := h.bet(alice, "A", 100)
	_, err := h.eng.SettleMatch(h.ctx, admin, "m1", "B")
	require.NoError(t, err)
	h.clock.Advance(48 * time.Hour)

	_, err = h.eng.RefundBet(h.ctx, alice, b.Key.String())
	assert.ErrorIs(t, err, domain.ErrRefundUnavailable)
}

func TestInitializePlatform(t *testing.T) {
	h := newHarness(t)

	_, err := h.eng.InitializePlatform(h.ctx, admin, engine.InitParams{FeeBps: 100})
	assert.ErrorIs(t, err, domain.ErrPlatformAlreadyInitialized)

	fresh, err := engine.New(engine.Deps{
		Store:  memory.New(),
		Oracle: oracle.NewStatic(decimal.NewFromInt(2)),
		Rollup: rollup.NewMemoryContext(nil),
	})
	require.NoError(t, err)

	_, err = fresh.CreateMatch(h.ctx, admin, engine.CreateMatchParams{MatchID: "m", TeamA: "A", TeamB: "B", StartTime: h.start})
	assert.ErrorIs(t, err, domain.ErrPlatformNotInitialized)

	_, err = fresh.InitializePlatform(h.ctx, admin, engine.InitParams{FeeBps: domain.MaxFeeBps})
	assert.ErrorIs(t, err, domain.ErrInvalidPlatformFee)

	p, err := fresh.InitializePlatform(h.ctx, admin, engine.InitParams{FeeBps: 0})
	require.NoError(t, err)
	assert.Equal(t, admin, p.Treasury)
	assert.Equal(t, int64(engine.DefaultRefundGraceSeconds), p.RefundGraceSeconds)
}

func TestMintToken(t *testing.T) {
	h := newHarness(t)

	_, err := h.eng.CreateMint(h.ctx, admin, engine.CreateMintParams{Name: "Other", Symbol: "OTH"})
	assert.ErrorIs(t, err, domain.ErrAccountAlreadyExists)

	_, err = h.eng.MintToken(h.ctx, alice, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	acc, err := h.eng.MintToken(h.ctx, alice, 42)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), acc.Balance)
	assert.Equal(t, alice, acc.Authority)
	assert.Equal(t, uint64(42), h.supply())
}

func TestMintToken_ScalesByDecimals(t *testing.T) {
	eng, err := engine.New(engine.Deps{
		Store:  memory.New(),
		Oracle: oracle.NewStatic(decimal.NewFromInt(2)),
		Rollup: rollup.NewMemoryContext(nil),
	})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = eng.InitializePlatform(ctx, admin, engine.InitParams{FeeBps: 150})
	require.NoError(t, err)
	_, err = eng.CreateMint(ctx, alice, engine.CreateMintParams{Name: "T", Symbol: "T", Decimals: 6})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = eng.CreateMint(ctx, admin, engine.CreateMintParams{Name: "T", Symbol: "T", Decimals: 20})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = eng.CreateMint(ctx, admin, engine.CreateMintParams{Name: "T", Symbol: "T", Decimals: 6})
	require.NoError(t, err)

	acc, err := eng.MintToken(ctx, alice, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000), acc.Balance)

	_, err = eng.MintToken(ctx, alice, 1<<62)
	assert.ErrorIs(t, err, domain.ErrNumericalOverflow)
}

func TestListQueries(t *testing.T) {
	h := newHarness(t)
	h.mint(alice, 10)
	h.mint(bob, 10)
	h.bet(alice, "A", 5)
	h.bet(bob, "B", 5)

	matches, err := h.eng.Matches(h.ctx)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	bets, err := h.eng.Bets(h.ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, bets, 2)

	none, err := h.eng.Bets(h.ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)

	users, err := h.eng.Users(h.ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
