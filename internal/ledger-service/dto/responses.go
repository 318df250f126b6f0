package dto

import (
	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
)

// ErrorResponse é o corpo de toda resposta de erro: Error carrega o Code do ledger.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type DelegationResponse struct {
	Key        string            `json:"key"`
	Delegation domain.Delegation `json:"delegation"`
}

type RecordResponse struct {
	Key    string        `json:"key"`
	Kind   domain.Kind   `json:"kind"`
	Record domain.Record `json:"record"`
}
