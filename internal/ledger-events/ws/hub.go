package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-ledger/pkg/contracts/events"
)

// client serializa as escritas: gorilla/websocket aceita um único writer por conexão
type client struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

func (c *client) write(v any) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub gerencia conexões WebSocket e assinaturas de eventos do ledger
// subs: mapeia tópico (match_id, chave de registro ou "*") para o conjunto de clientes inscritos
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	subs     map[string]map[*client]struct{}
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(log *zap.Logger, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*client]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket
// Permite subscribe/unsubscribe em tópicos e responde a pings
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	c := &client{conn: conn}

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if msg.Topic == "" {
				_ = c.write(map[string]string{"type": "error", "error": "topic required"})
				continue
			}
			h.mu.Lock()
			if _, ok := h.subs[msg.Topic]; !ok {
				h.subs[msg.Topic] = make(map[*client]struct{})
			}
			h.subs[msg.Topic][c] = struct{}{}
			h.mu.Unlock()
		case "unsubscribe":
			h.remove(msg.Topic, c)
		case "ping":
			_ = c.write(map[string]string{"type": "pong"})
		}
	}
	// Remove o cliente de todas as assinaturas ao desconectar
	h.mu.Lock()
	for topic, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, topic)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) remove(topic string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.subs[topic]; ok {
		delete(m, c)
		if len(m) == 0 {
			delete(h.subs, topic)
		}
	}
}

// Subscribers retorna quantos clientes estão inscritos no tópico
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}

// Broadcast envia o evento aos inscritos na partida, no registro e em "*".
// Um cliente inscrito em mais de um desses tópicos recebe o evento uma vez.
func (h *Hub) Broadcast(ev events.LedgerEvent) int {
	type target struct {
		c     *client
		topic string
	}
	var targets []target
	seen := map[*client]struct{}{}

	h.mu.RLock()
	for _, topic := range []string{ev.MatchID, ev.RecordKey, AllTopics} {
		if topic == "" {
			continue
		}
		for c := range h.subs[topic] {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			targets = append(targets, target{c, topic})
		}
	}
	h.mu.RUnlock()

	sent := 0
	for _, t := range targets {
		if err := t.c.write(Update{Topic: t.topic, Payload: ev}); err != nil {
			h.log.Debug("ws write failed", zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}
