package topics

const (
	// Odds
	OddsUpdates = "odds_updates"

	// Ledger
	LedgerEvents  = "ledger_events"
	RollupOps     = "rollup_ops"
	RollupResults = "rollup_results"

	// DLQs
	RollupOpsDLQ = "rollup_ops_dlq"
)

// Canal Redis Pub/Sub usado para o fan-out dos eventos do ledger via WebSocket
const LedgerEventsChannel = "ledger_events_broadcast"
