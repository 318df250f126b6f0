package domain

import "errors"

// Code identifica a categoria de falha de uma instrução do ledger.
// É o valor reportado em métricas, logs e respostas HTTP.
type Code string

const (
	CodeOK                         Code = "OK"
	CodeInternal                   Code = "Internal"
	CodeUnauthorized               Code = "Unauthorized"
	CodeInsufficientBalance        Code = "InsufficientBalance"
	CodeGameAlreadyStarted         Code = "GameAlreadyStarted"
	CodeGameNotStarted             Code = "GameNotStarted"
	CodeBetAlreadySettled          Code = "BetAlreadySettled"
	CodeGameAlreadySettled         Code = "GameAlreadySettled"
	CodeNumericalOverflow          Code = "NumericalOverflow"
	CodeInvalidGameData            Code = "InvalidGameData"
	CodeInvalidBetAmount           Code = "InvalidBetAmount"
	CodeInvalidFeeAmount           Code = "InvalidFeeAmount"
	CodeInvalidPlatformFee         Code = "InvalidPlatformFee"
	CodeInvalidAmount              Code = "InvalidAmount"
	CodeNotWinner                  Code = "NotWinner"
	CodeOracleVerificationFailed   Code = "OracleVerificationFailed"
	CodeInvalidRollupData          Code = "InvalidRollupData"
	CodeDuplicateMatch             Code = "DuplicateMatch"
	CodeDuplicateBet               Code = "DuplicateBet"
	CodeAccountNotFound            Code = "AccountNotFound"
	CodePlatformAlreadyInitialized Code = "PlatformAlreadyInitialized"
	CodePlatformNotInitialized     Code = "PlatformNotInitialized"
	CodeRefundUnavailable          Code = "RefundUnavailable"
	CodeAccountAlreadyExists       Code = "AccountAlreadyExists"
	CodeWriteConflict              Code = "WriteConflict"
)

// Error é um erro tagueado com Code. Os valores abaixo são sentinelas:
// compare com errors.Is e adicione contexto com fmt.Errorf("%w: ...", ErrXxx).
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newError(code Code, msg string) *Error { return &Error{Code: code, Msg: msg} }

var (
	ErrUnauthorized               = newError(CodeUnauthorized, "you are not authorized to perform this action")
	ErrInsufficientBalance        = newError(CodeInsufficientBalance, "insufficient funds")
	ErrGameAlreadyStarted         = newError(CodeGameAlreadyStarted, "game has already started")
	ErrGameNotStarted             = newError(CodeGameNotStarted, "game has not been settled yet")
	ErrBetAlreadySettled          = newError(CodeBetAlreadySettled, "bet has already been settled")
	ErrGameAlreadySettled         = newError(CodeGameAlreadySettled, "game has already been settled")
	ErrNumericalOverflow          = newError(CodeNumericalOverflow, "numerical overflow")
	ErrInvalidGameData            = newError(CodeInvalidGameData, "invalid game data provided")
	ErrInvalidBetAmount           = newError(CodeInvalidBetAmount, "invalid bet amount")
	ErrInvalidFeeAmount           = newError(CodeInvalidFeeAmount, "invalid fee amount")
	ErrInvalidPlatformFee         = newError(CodeInvalidPlatformFee, "invalid platform fee")
	ErrInvalidAmount              = newError(CodeInvalidAmount, "invalid amount")
	ErrNotWinner                  = newError(CodeNotWinner, "not the winner")
	ErrOracleVerificationFailed   = newError(CodeOracleVerificationFailed, "oracle verification failed")
	ErrInvalidRollupData          = newError(CodeInvalidRollupData, "invalid rollup data")
	ErrDuplicateMatch             = newError(CodeDuplicateMatch, "match already exists")
	ErrDuplicateBet               = newError(CodeDuplicateBet, "bet already exists for this match")
	ErrAccountNotFound            = newError(CodeAccountNotFound, "account not found")
	ErrPlatformAlreadyInitialized = newError(CodePlatformAlreadyInitialized, "platform already initialized")
	ErrPlatformNotInitialized     = newError(CodePlatformNotInitialized, "platform not initialized")
	ErrRefundUnavailable          = newError(CodeRefundUnavailable, "refund not available")
	ErrAccountAlreadyExists       = newError(CodeAccountAlreadyExists, "account already exists")

	// ErrWriteConflict: outra transação criou o mesmo registro primeiro; reenviar a instrução resolve.
	ErrWriteConflict = newError(CodeWriteConflict, "concurrent write conflict, retry the instruction")

	// ErrRecordDelegated é retornado quando o contexto primário tenta mutar um registro delegado.
	// Tem o mesmo Code de ErrUnauthorized: é uma falha de autoridade.
	ErrRecordDelegated = newError(CodeUnauthorized, "record is delegated to the rollup context")
)

// CodeOf extrai o Code de um erro (possivelmente embrulhado).
// nil vira CodeOK; erros sem tag viram CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HasCode informa se err carrega o Code indicado.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}
