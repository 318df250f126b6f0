package ws

import "github.com/radieske/sports-bet-ledger/pkg/contracts/events"

// AllTopics assina todos os eventos do ledger.
const AllTopics = "*"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// Topic: match_id, chave de registro ou "*"; obrigatório para subscribe/unsubscribe
type ClientMsg struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

// Update é o envelope enviado aos clientes inscritos
type Update struct {
	Topic   string             `json:"topic"`
	Payload events.LedgerEvent `json:"payload"`
}
