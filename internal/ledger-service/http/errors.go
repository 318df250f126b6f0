package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-ledger/internal/ledger-service/dto"
	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
)

// Codes próprios da camada HTTP (não existem no ledger).
const (
	codeInvalidRequest = "InvalidRequest"
	codeRateLimited    = "RateLimited"
)

// StatusOf mapeia o Code do ledger para o status HTTP.
func StatusOf(code domain.Code) int {
	switch code {
	case domain.CodeOK:
		return http.StatusOK
	case domain.CodeAccountNotFound:
		return http.StatusNotFound
	case domain.CodeUnauthorized:
		return http.StatusForbidden
	case domain.CodeInvalidGameData, domain.CodeInvalidBetAmount, domain.CodeInvalidAmount,
		domain.CodeInvalidPlatformFee, domain.CodeInvalidFeeAmount:
		return http.StatusBadRequest
	case domain.CodeDuplicateMatch, domain.CodeDuplicateBet, domain.CodeAccountAlreadyExists,
		domain.CodePlatformAlreadyInitialized, domain.CodePlatformNotInitialized,
		domain.CodeGameAlreadyStarted, domain.CodeGameNotStarted, domain.CodeGameAlreadySettled,
		domain.CodeBetAlreadySettled, domain.CodeRefundUnavailable, domain.CodeInvalidRollupData,
		domain.CodeWriteConflict:
		return http.StatusConflict
	case domain.CodeInsufficientBalance, domain.CodeNumericalOverflow, domain.CodeNotWinner:
		return http.StatusUnprocessableEntity
	case domain.CodeOracleVerificationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := domain.CodeOf(err)
	msg := err.Error()
	if code == domain.CodeInternal {
		s.log.Error("unexpected ledger error", zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, StatusOf(code), dto.ErrorResponse{Error: string(code), Message: msg})
}

// decode lê o corpo JSON e aplica as tags de validação.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: codeInvalidRequest, Message: "bad json: " + err.Error()})
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   codeInvalidRequest,
			Message: "invalid payload",
			Fields:  validationFields(err),
		})
		return false
	}
	return true
}

func validationFields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": "invalid request format"}
	}
	out := make(map[string]string, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			out[field] = "this field is required"
		case "max":
			out[field] = fmt.Sprintf("must be at most %s characters", e.Param())
		default:
			out[field] = "invalid value (" + e.Tag() + ")"
		}
	}
	return out
}
