// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// ErrorKind groups failures by what the caller has to fix.
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindAuthorization ErrorKind = "authorization"
	KindState         ErrorKind = "state"
	KindEconomic      ErrorKind = "economic"
	KindArithmetic    ErrorKind = "arithmetic"
	KindUnknown       ErrorKind = "unknown"
)

// Error is a terminal, non-retried failure of a single operation.
type Error struct {
	Code    int
	Name    string
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Message)
}

func newError(code int, name string, kind ErrorKind, msg string) *Error {
	return &Error{Code: code, Name: name, Kind: kind, Message: msg}
}

// Коды совпадают с порядком ошибок программы (6000+).
var (
	ErrInvalidFeeShares             = newError(6000, "InvalidFeeShares", KindConfiguration, "fee shares must add up to 100% (10000 basis points)")
	ErrInvalidStreamerID            = newError(6001, "InvalidStreamerId", KindConfiguration, "invalid or missing streamer id")
	ErrStreamerIDAlreadyRegistered  = newError(6002, "StreamerIdAlreadyRegistered", KindState, "streamer id already registered to another wallet")
	ErrUnauthorizedCreator          = newError(6003, "UnauthorizedCreator", KindAuthorization, "unauthorized creator")
	ErrNoFeesToClaim                = newError(6004, "NoFeesToClaim", KindState, "no fees available to claim")
	ErrNotAuthorized                = newError(6005, "NotAuthorized", KindAuthorization, "the given account is not authorized to execute this operation")
	ErrAlreadyInitialized           = newError(6006, "AlreadyInitialized", KindState, "already initialized")
	ErrTooMuchSolRequired           = newError(6007, "TooMuchSolRequired", KindEconomic, "slippage: too much SOL required to buy the given amount of tokens")
	ErrTooLittleSolReceived         = newError(6008, "TooLittleSolReceived", KindEconomic, "slippage: too little SOL received to sell the given amount of tokens")
	ErrMintDoesNotMatchBondingCurve = newError(6009, "MintDoesNotMatchBondingCurve", KindState, "mint does not match bonding curve")
	ErrBondingCurveComplete         = newError(6010, "BondingCurveComplete", KindState, "the bonding curve has completed")
	ErrBondingCurveNotComplete      = newError(6011, "BondingCurveNotComplete", KindState, "the bonding curve has not completed")
	ErrNotInitialized               = newError(6012, "NotInitialized", KindState, "not initialized")
	ErrUnauthorizedUser             = newError(6013, "UnauthorizedUser", KindAuthorization, "unauthorized user")
	ErrInsufficientTreasuryFunds    = newError(6015, "InsufficientTreasuryFunds", KindEconomic, "insufficient funds in treasury for buyback")
	ErrInvalidAmount                = newError(6020, "InvalidAmount", KindEconomic, "invalid amount")
	ErrEarlyBirdDisabled            = newError(6021, "EarlyBirdDisabled", KindConfiguration, "early bird rewards are disabled")
	ErrNotEarlyBird                 = newError(6022, "NotEarlyBird", KindAuthorization, "user is not an early bird")
	ErrNoRewardsToClaim             = newError(6023, "NoRewardsToClaim", KindState, "no rewards available to claim")
	ErrCurveNotComplete             = newError(6026, "CurveNotComplete", KindState, "bonding curve must be complete before claiming early bird rewards")
	ErrAlreadyClaimedEarlyBird      = newError(6027, "AlreadyClaimedEarlyBird", KindState, "early bird rewards already claimed")
	ErrArithmeticOverflow           = newError(6028, "ArithmeticOverflow", KindArithmetic, "arithmetic overflow or underflow")

	ErrCurveNotFound  = newError(6100, "CurveNotFound", KindState, "bonding curve not found")
	ErrCurveExists    = newError(6101, "CurveExists", KindState, "bonding curve already exists for mint")
	ErrHolderNotFound = newError(6102, "HolderNotFound", KindState, "holder record not found")

	ErrInvalidBuybackParams = newError(6103, "InvalidBuybackParams", KindConfiguration, "buyback basis points must not exceed 10000")
)

// KindOf classifies err. Errors outside the taxonomy report KindUnknown.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// SlippageError carries the bound that was violated.
type SlippageError struct {
	Limit    uint64
	Required uint64
	cause    *Error
}

// NewBuySlippageError is returned when cost+fee exceeds maxSolCost.
func NewBuySlippageError(maxSolCost, required uint64) *SlippageError {
	return &SlippageError{Limit: maxSolCost, Required: required, cause: ErrTooMuchSolRequired}
}

// NewSellSlippageError is returned when output-fee is below minSolOutput.
func NewSellSlippageError(minSolOutput, received uint64) *SlippageError {
	return &SlippageError{Limit: minSolOutput, Required: received, cause: ErrTooLittleSolReceived}
}

func (e *SlippageError) Error() string {
	return fmt.Sprintf("%s: limit %d, actual %d", e.cause.Message, e.Limit, e.Required)
}

func (e *SlippageError) Unwrap() error {
	return e.cause
}
