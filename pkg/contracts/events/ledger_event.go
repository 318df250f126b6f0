package events

import (
	"time"

	"github.com/google/uuid"
)

// Tipos de evento publicados no tópico "ledger_events", um por instrução confirmada
const (
	PlatformInitialized = "platform.initialized"
	MatchCreated        = "match.created"
	MatchSettled        = "match.settled"
	EscrowFunded        = "escrow.funded"
	BetPlaced           = "bet.placed"
	BetClaimed          = "bet.claimed"
	BetLost             = "bet.lost"
	BetRefunded         = "bet.refunded"
	MintCreated         = "mint.created"
	TokensMinted        = "tokens.minted"
	CounterCreated      = "counter.created"
	CounterIncremented  = "counter.incremented"
	RecordDelegated     = "record.delegated"
	RecordCommitted     = "record.committed"
)

type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type LedgerEvent struct {
	EventID     string     `json:"event_id"`
	Type        string     `json:"type"`
	Instruction string     `json:"instruction"`
	Signer      string     `json:"signer,omitempty"`
	RecordKey   string     `json:"record_key"`
	MatchID     string     `json:"match_id,omitempty"`
	Amount      uint64     `json:"amount,omitempty"`
	Fee         uint64     `json:"fee,omitempty"`
	Transfers   []Transfer `json:"transfers,omitempty"`
	Epoch       uint64     `json:"epoch,omitempty"`
	TsUnixMs    int64      `json:"ts_unix_ms"`
}

// NewLedgerEvent preenche EventID e timestamp.
func NewLedgerEvent(typ, instruction, recordKey string, at time.Time) LedgerEvent {
	return LedgerEvent{
		EventID:     uuid.NewString(),
		Type:        typ,
		Instruction: instruction,
		RecordKey:   recordKey,
		TsUnixMs:    at.UnixMilli(),
	}
}
