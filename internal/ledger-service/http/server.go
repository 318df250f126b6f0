package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-ledger/internal/ledger/engine"
)

// SignerHeader identifica quem assina a instrução.
const SignerHeader = "X-Signer"

// IdempotencyHeader identifica o incremento de rollup; repetir a mesma chave não reaplica.
const IdempotencyHeader = "Idempotency-Key"

type Server struct {
	log      *zap.Logger
	eng      *engine.Engine
	validate *validator.Validate
	limiter  *signerLimiter // nil desliga o rate limit
}

type Option func(*Server)

// WithRateLimit limita cada signer a rps requisições/s com rajada burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps > 0 {
			s.limiter = newSignerLimiter(rps, burst)
		}
	}
}

func NewServer(log *zap.Logger, eng *engine.Engine, opts ...Option) *Server {
	s := &Server{log: log, eng: eng, validate: validator.New(validator.WithRequiredStructEnabled())}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)
	if s.limiter != nil {
		r.Use(s.limiter.middleware)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/platform", func(r chi.Router) {
			r.Post("/", s.initializePlatform)
			r.Get("/", s.getPlatform)
		})
		r.Route("/matches", func(r chi.Router) {
			r.Post("/", s.createMatch)
			r.Get("/", s.listMatches)
			r.Route("/{matchId}", func(r chi.Router) {
				r.Get("/", s.getMatch)
				r.Get("/escrow", s.getEscrow)
				r.Get("/bets", s.listBets)
				r.Post("/settle", s.settleMatch)
				r.Post("/fund", s.fundEscrow)
			})
		})
		r.Route("/bets", func(r chi.Router) {
			r.Post("/", s.placeBet)
			r.Get("/{betKey}", s.getBet)
			r.Post("/{betKey}/claim", s.claimWinnings)
			r.Post("/{betKey}/refund", s.refundBet)
		})
		r.Get("/users/{owner}", s.getUser)
		r.Route("/tokens", func(r chi.Router) {
			r.Post("/", s.createMint)
			r.Get("/", s.getMint)
			r.Post("/mint", s.mintToken)
			r.Get("/{owner}", s.getTokenAccount)
		})
		r.Route("/counters", func(r chi.Router) {
			r.Post("/", s.createCounter)
			r.Get("/{key}", s.getCounter)
			r.Post("/{key}/increment", s.incrementCounter)
		})
		r.Route("/records/{key}", func(r chi.Router) {
			r.Get("/", s.getRecord)
			r.Post("/delegate", s.delegate)
			r.Post("/commit", s.commit)
		})
		r.Post("/rollup/{key}/increment", s.rollupIncrement)
	})
	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("signer", r.Header.Get(SignerHeader)),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func signer(r *http.Request) string { return r.Header.Get(SignerHeader) }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
