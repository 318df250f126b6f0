package events

import "time"

// Evento publicado no tópico "odds_updates": cotação corrente de uma seleção.
// Odds é decimal em string ("1.85") para não perder precisão.
type OddsUpdate struct {
	MatchID   string    `json:"match_id"`
	BetType   string    `json:"bet_type"` // "winner", "points", ...
	Subject   string    `json:"subject"`  // time ou jogador
	Threshold uint64    `json:"threshold"`
	Odds      string    `json:"odds"`
	UpdatedAt time.Time `json:"updated_at"`
	Source    string    `json:"source"`
	Version   int       `json:"version"` // incrementado a cada atualização
}
