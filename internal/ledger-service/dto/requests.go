package dto

import "time"

// Os limites de formato ficam nas tags; as regras de negócio (valor zero, taxa máxima,
// time inexistente) são do engine, que devolve o Code correspondente.

type InitializePlatformRequest struct {
	FeeBps             uint64 `json:"fee_bps"`
	Treasury           string `json:"treasury,omitempty" validate:"omitempty,max=64"`
	RefundGraceSeconds int64  `json:"refund_grace_seconds,omitempty" validate:"gte=0"`
}

type CreateMatchRequest struct {
	MatchID       string    `json:"match_id" validate:"required,max=32"`
	TeamA         string    `json:"team_a" validate:"required,max=32"`
	TeamB         string    `json:"team_b" validate:"required,max=32"`
	StartTime     time.Time `json:"start_time" validate:"required"`
	OracleAccount string    `json:"oracle_account,omitempty" validate:"omitempty,max=64"`
}

type PlaceBetRequest struct {
	MatchID         string `json:"match_id" validate:"required,max=32"`
	Amount          uint64 `json:"amount"`
	PredictedWinner string `json:"predicted_winner" validate:"required,max=32"`
	BetType         string `json:"bet_type,omitempty" validate:"omitempty,alphanum,max=32"`
	PlayerName      string `json:"player_name,omitempty" validate:"omitempty,max=64"`
	StatValue       uint64 `json:"stat_value,omitempty"`
}

type SettleMatchRequest struct {
	Winner string `json:"winner" validate:"required,max=32"`
}

type AmountRequest struct {
	Amount uint64 `json:"amount"`
}

type CreateMintRequest struct {
	Name     string `json:"name" validate:"required,max=32"`
	Symbol   string `json:"symbol" validate:"required,max=10"`
	URI      string `json:"uri,omitempty" validate:"omitempty,uri,max=200"`
	Decimals uint8  `json:"decimals"`
}

type DelegateRequest struct {
	Delegate string `json:"delegate,omitempty" validate:"omitempty,max=64"`
}

type CreateCounterRequest struct {
	Name    string `json:"name" validate:"required,max=32"`
	Ceiling uint64 `json:"ceiling,omitempty"`
}
