package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/sports-bet-ledger/internal/ledger-service/dto"
	"github.com/radieske/sports-bet-ledger/internal/ledger/engine"
)

// instruções

func (s *Server) initializePlatform(w http.ResponseWriter, r *http.Request) {
	var req dto.InitializePlatformRequest
	if !s.decode(w, r, &req) {
		return
	}
	p, err := s.eng.InitializePlatform(r.Context(), signer(r), engine.InitParams{
		FeeBps:             req.FeeBps,
		Treasury:           req.Treasury,
		RefundGraceSeconds: req.RefundGraceSeconds,
	})
	s.respond(w, http.StatusCreated, p, err)
}

func (s *Server) createMatch(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	m, err := s.eng.CreateMatch(r.Context(), signer(r), engine.CreateMatchParams{
		MatchID:       req.MatchID,
		TeamA:         req.TeamA,
		TeamB:         req.TeamB,
		StartTime:     req.StartTime,
		OracleAccount: req.OracleAccount,
	})
	s.respond(w, http.StatusCreated, m, err)
}

func (s *Server) settleMatch(w http.ResponseWriter, r *http.Request) {
	var req dto.SettleMatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	m, err := s.eng.SettleMatch(r.Context(), signer(r), chi.URLParam(r, "matchId"), req.Winner)
	s.respond(w, http.StatusOK, m, err)
}

func (s *Server) fundEscrow(w http.ResponseWriter, r *http.Request) {
	var req dto.AmountRequest
	if !s.decode(w, r, &req) {
		return
	}
	acc, err := s.eng.FundEscrow(r.Context(), signer(r), chi.URLParam(r, "matchId"), req.Amount)
	s.respond(w, http.StatusOK, acc, err)
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if !s.decode(w, r, &req) {
		return
	}
	b, err := s.eng.PlaceBet(r.Context(), signer(r), engine.PlaceBetParams{
		MatchID:         req.MatchID,
		Amount:          req.Amount,
		PredictedWinner: req.PredictedWinner,
		BetType:         req.BetType,
		PlayerName:      req.PlayerName,
		StatValue:       req.StatValue,
	})
	s.respond(w, http.StatusCreated, b, err)
}

// claimWinnings: aposta perdida já fica gravada, mas a resposta é o erro NotWinner.
func (s *Server) claimWinnings(w http.ResponseWriter, r *http.Request) {
	b, err := s.eng.ClaimWinnings(r.Context(), signer(r), chi.URLParam(r, "betKey"))
	s.respond(w, http.StatusOK, b, err)
}

func (s *Server) refundBet(w http.ResponseWriter, r *http.Request) {
	b, err := s.eng.RefundBet(r.Context(), signer(r), chi.URLParam(r, "betKey"))
	s.respond(w, http.StatusOK, b, err)
}

func (s *Server) createMint(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMintRequest
	if !s.decode(w, r, &req) {
		return
	}
	m, err := s.eng.CreateMint(r.Context(), signer(r), engine.CreateMintParams{
		Name:     req.Name,
		Symbol:   req.Symbol,
		URI:      req.URI,
		Decimals: req.Decimals,
	})
	s.respond(w, http.StatusCreated, m, err)
}

func (s *Server) mintToken(w http.ResponseWriter, r *http.Request) {
	var req dto.AmountRequest
	if !s.decode(w, r, &req) {
		return
	}
	acc, err := s.eng.MintToken(r.Context(), signer(r), req.Amount)
	s.respond(w, http.StatusOK, acc, err)
}

func (s *Server) createCounter(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCounterRequest
	if !s.decode(w, r, &req) {
		return
	}
	c, err := s.eng.CreateCounter(r.Context(), signer(r), req.Name, req.Ceiling)
	s.respond(w, http.StatusCreated, c, err)
}

func (s *Server) incrementCounter(w http.ResponseWriter, r *http.Request) {
	c, err := s.eng.IncrementCounter(r.Context(), signer(r), chi.URLParam(r, "key"))
	s.respond(w, http.StatusOK, c, err)
}

func (s *Server) delegate(w http.ResponseWriter, r *http.Request) {
	var req dto.DelegateRequest
	if r.ContentLength != 0 && !s.decode(w, r, &req) {
		return
	}
	key := chi.URLParam(r, "key")
	d, err := s.eng.Delegate(r.Context(), signer(r), key, req.Delegate)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.DelegationResponse{Key: key, Delegation: *d})
}

func (s *Server) commit(w http.ResponseWriter, r *http.Request) {
	rec, err := s.eng.CommitAndUndelegate(r.Context(), signer(r), chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.RecordResponse{Key: rec.RecordKey().String(), Kind: rec.Kind(), Record: rec})
}

func (s *Server) rollupIncrement(w http.ResponseWriter, r *http.Request) {
	snap, err := s.eng.RollupIncrement(r.Context(), signer(r), chi.URLParam(r, "key"), r.Header.Get(IdempotencyHeader))
	s.respond(w, http.StatusOK, snap, err)
}

// consultas

func (s *Server) getPlatform(w http.ResponseWriter, r *http.Request) {
	p, err := s.eng.Platform(r.Context())
	s.respond(w, http.StatusOK, p, err)
}

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	ms, err := s.eng.Matches(r.Context())
	s.respond(w, http.StatusOK, ms, err)
}

func (s *Server) getMatch(w http.ResponseWriter, r *http.Request) {
	m, err := s.eng.Match(r.Context(), chi.URLParam(r, "matchId"))
	s.respond(w, http.StatusOK, m, err)
}

func (s *Server) getEscrow(w http.ResponseWriter, r *http.Request) {
	acc, err := s.eng.Escrow(r.Context(), chi.URLParam(r, "matchId"))
	s.respond(w, http.StatusOK, acc, err)
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	bets, err := s.eng.Bets(r.Context(), chi.URLParam(r, "matchId"))
	s.respond(w, http.StatusOK, bets, err)
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	b, err := s.eng.Bet(r.Context(), chi.URLParam(r, "betKey"))
	s.respond(w, http.StatusOK, b, err)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.eng.User(r.Context(), chi.URLParam(r, "owner"))
	s.respond(w, http.StatusOK, u, err)
}

func (s *Server) getMint(w http.ResponseWriter, r *http.Request) {
	m, err := s.eng.Mint(r.Context())
	s.respond(w, http.StatusOK, m, err)
}

func (s *Server) getTokenAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := s.eng.TokenAccount(r.Context(), chi.URLParam(r, "owner"))
	s.respond(w, http.StatusOK, acc, err)
}

func (s *Server) getCounter(w http.ResponseWriter, r *http.Request) {
	c, err := s.eng.Counter(r.Context(), chi.URLParam(r, "key"))
	s.respond(w, http.StatusOK, c, err)
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.eng.Record(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.RecordResponse{Key: rec.RecordKey().String(), Kind: rec.Kind(), Record: rec})
}

func (s *Server) respond(w http.ResponseWriter, status int, v any, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, status, v)
}
