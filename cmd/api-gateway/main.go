package main

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"

	"github.com/radieske/sports-bet-ledger/internal/shared/config"
	"github.com/radieske/sports-bet-ledger/internal/shared/logger"
)

func rp(to string) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil {
		return nil, fmt.Errorf("upstream %q: %w", to, err)
	}
	return httputil.NewSingleHostReverseProxy(u), nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config: %w", err))
	}
	log, _ := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer log.Sync()

	ledger, err := rp(cfg.LedgerServiceURL)
	if err != nil {
		log.Fatal("ledger upstream", zap.Error(err))
	}
	events, err := rp(cfg.LedgerEventsURL)
	if err != nil {
		log.Fatal("events upstream", zap.Error(err))
	}

	mux := http.NewServeMux()

	// instruções e consultas (ex.: /api/ledger/v1/bets -> ledger-service /v1/bets)
	mux.Handle("/api/ledger/", http.StripPrefix("/api/ledger", ledger))

	// stream de eventos (upgrade WebSocket repassado pelo ReverseProxy)
	mux.Handle("/api/events/", http.StripPrefix("/api/events", events))

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr),
		zap.String("ledger", cfg.LedgerServiceURL), zap.String("events", cfg.LedgerEventsURL))
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Signer, Idempotency-Key")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
