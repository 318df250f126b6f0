package http

import (
	"net/http"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/radieske/sports-bet-ledger/internal/ledger-service/dto"
)

// signerLimiter mantém um token bucket por signer (ou IP, sem signer). Os buckets
// ficam num LRU para não crescer sem limite com signers de passagem.
type signerLimiter struct {
	rps     rate.Limit
	burst   int
	buckets *lru.Cache[string, *rate.Limiter]
}

func newSignerLimiter(rps float64, burst int) *signerLimiter {
	if burst < 1 {
		burst = 1
	}
	buckets, _ := lru.New[string, *rate.Limiter](4096)
	return &signerLimiter{rps: rate.Limit(rps), burst: burst, buckets: buckets}
}

func (l *signerLimiter) get(id string) *rate.Limiter {
	if lim, ok := l.buckets.Get(id); ok {
		return lim
	}
	lim := rate.NewLimiter(l.rps, l.burst)
	// outra goroutine pode ter criado o bucket entre o Get e o Add: fica o primeiro
	if prev, ok, _ := l.buckets.PeekOrAdd(id, lim); ok {
		return prev
	}
	return lim
}

func (l *signerLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := signer(r)
		if id == "" {
			id = "ip:" + r.RemoteAddr
		}
		if !l.get(id).Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, dto.ErrorResponse{Error: codeRateLimited, Message: "too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
