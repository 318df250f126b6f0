package events

// Operações aceitas pelo rollup-worker no tópico "rollup_ops"
const RollupOpIncrement = "increment"

type RollupOp struct {
	OpID      string `json:"op_id"`
	Op        string `json:"op"`
	RecordKey string `json:"record_key"`
	Signer    string `json:"signer"`
	TsUnixMs  int64  `json:"ts_unix_ms"`
}

// RollupResult é publicado em "rollup_results" após cada operação, aplicada ou rejeitada.
type RollupResult struct {
	OpID      string `json:"op_id"`
	RecordKey string `json:"record_key"`
	Epoch     uint64 `json:"epoch"`
	Ops       uint64 `json:"ops"`
	Replayed  bool   `json:"replayed,omitempty"` // op_id já aplicado antes; nada mudou
	Code      string `json:"code"`
	Error     string `json:"error,omitempty"`
}
