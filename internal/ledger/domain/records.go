package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/sports-bet-ledger/internal/ledger/address"
)

// Kind identifica o schema de um registro persistido.
type Kind string

const (
	KindPlatformConfig Kind = "platform_config"
	KindMatch          Kind = "match"
	KindBet            Kind = "bet"
	KindUser           Kind = "user"
	KindTokenAccount   Kind = "token_account"
	KindMint           Kind = "mint"
	KindCounter        Kind = "counter"
)

type MatchStatus string

const (
	MatchPending   MatchStatus = "PENDING"
	MatchCompleted MatchStatus = "COMPLETED"
)

type BetStatus string

const (
	BetActive  BetStatus = "ACTIVE"
	BetSettled BetStatus = "SETTLED"
)

// BetTypeWinner é a aposta simples no vencedor da partida.
const BetTypeWinner = "winner"

// Limites de tamanho herdados do layout fixo dos registros.
const (
	MaxTeamNameLength = 32
	MaxMatchIDLength  = 32
	MaxFeeBps         = 10_000
)

// Record é implementado por todo registro endereçável do ledger.
type Record interface {
	RecordKey() address.Key
	Kind() Kind
	Header() *Meta
}

// Delegable é implementado pelos registros que podem ser entregues ao contexto de rollup.
// OwnerAuthority é a identidade autorizada a delegar o registro.
type Delegable interface {
	Record
	OwnerAuthority() string
}

// Meta é o cabeçalho comum de todos os registros.
type Meta struct {
	Key        address.Key `json:"key"`
	Delegation Delegation  `json:"delegation"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

func (m *Meta) RecordKey() address.Key { return m.Key }
func (m *Meta) Header() *Meta          { return m }

// PlatformConfig é o singleton de configuração e contadores globais da plataforma.
type PlatformConfig struct {
	Meta
	Authority          string `json:"authority"`
	FeeBps             uint64 `json:"feeBps"`
	Initialized        bool   `json:"initialized"`
	TotalBets          uint64 `json:"totalBets"`
	TotalVolume        uint64 `json:"totalVolume"`
	Treasury           string `json:"treasury"`
	RefundGraceSeconds int64  `json:"refundGraceSeconds"`
}

func (*PlatformConfig) Kind() Kind { return KindPlatformConfig }

// RefundGrace retorna a janela após o início da partida a partir da qual apostas não liquidadas podem ser reembolsadas.
func (p *PlatformConfig) RefundGrace() time.Duration {
	return time.Duration(p.RefundGraceSeconds) * time.Second
}

type Match struct {
	Meta
	MatchID       string      `json:"matchId"`
	TeamA         string      `json:"teamA"`
	TeamB         string      `json:"teamB"`
	StartTime     time.Time   `json:"startTime"`
	Status        MatchStatus `json:"status"`
	Winner        string      `json:"winner"`
	TotalBets     uint64      `json:"totalBets"`
	TotalStaked   uint64      `json:"totalStaked"`
	Authority     string      `json:"authority"`
	OracleAccount string      `json:"oracleAccount,omitempty"`
	SettledAt     *time.Time  `json:"settledAt,omitempty"`
}

func (*Match) Kind() Kind                 { return KindMatch }
func (m *Match) OwnerAuthority() string   { return m.Authority }
func (m *Match) HasTeam(name string) bool { return name != "" && (name == m.TeamA || name == m.TeamB) }

type UserAccount struct {
	Meta
	Owner        string `json:"owner"`
	TokenBalance uint64 `json:"tokenBalance"`
	ActiveBets   uint64 `json:"activeBets"`
	TotalBets    uint64 `json:"totalBets"`
	WonBets      uint64 `json:"wonBets"`
}

func (*UserAccount) Kind() Kind               { return KindUser }
func (u *UserAccount) OwnerAuthority() string { return u.Owner }

type Bet struct {
	Meta
	Bettor          string          `json:"bettor"`
	MatchKey        address.Key     `json:"matchKey"`
	MatchID         string          `json:"matchId"`
	Amount          uint64          `json:"amount"`
	PredictedWinner string          `json:"predictedWinner"`
	BetType         string          `json:"betType"`
	PlayerName      string          `json:"playerName,omitempty"`
	StatValue       uint64          `json:"statValue,omitempty"`
	Odds            decimal.Decimal `json:"odds"`
	Status          BetStatus       `json:"status"`
	Won             bool            `json:"won"`
	Refunded        bool            `json:"refunded"`
	Payout          uint64          `json:"payout"`
	Fee             uint64          `json:"fee"`
	PlacedAt        time.Time       `json:"placedAt"`
	SettledAt       *time.Time      `json:"settledAt,omitempty"`
}

func (*Bet) Kind() Kind               { return KindBet }
func (b *Bet) OwnerAuthority() string { return b.Bettor }

// TokenAccount é uma conta de custódia. Authority é o único signatário que pode debitá-la.
type TokenAccount struct {
	Meta
	Owner     string `json:"owner"`
	Authority string `json:"authority"`
	Balance   uint64 `json:"balance"`
}

func (*TokenAccount) Kind() Kind               { return KindTokenAccount }
func (t *TokenAccount) OwnerAuthority() string { return t.Owner }

type Mint struct {
	Meta
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	URI       string `json:"uri"`
	Decimals  uint8  `json:"decimals"`
	Supply    uint64 `json:"supply"`
	Authority string `json:"authority"`
}

func (*Mint) Kind() Kind { return KindMint }

// Counter é um registro de contagem que volta a zero ao atingir Ceiling.
type Counter struct {
	Meta
	Owner   string `json:"owner"`
	Name    string `json:"name"`
	Value   uint64 `json:"value"`
	Ceiling uint64 `json:"ceiling"`
}

func (*Counter) Kind() Kind               { return KindCounter }
func (c *Counter) OwnerAuthority() string { return c.Owner }

// New retorna um registro vazio do tipo correspondente a kind, pronto para decode.
func New(kind Kind) (Record, bool) {
	switch kind {
	case KindPlatformConfig:
		return &PlatformConfig{}, true
	case KindMatch:
		return &Match{}, true
	case KindBet:
		return &Bet{}, true
	case KindUser:
		return &UserAccount{}, true
	case KindTokenAccount:
		return &TokenAccount{}, true
	case KindMint:
		return &Mint{}, true
	case KindCounter:
		return &Counter{}, true
	}
	return nil, false
}
