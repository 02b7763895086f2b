package errors

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ValidationError   ErrorCode = "validation_error"
	AccountNotFound   ErrorCode = "account_not_found"
	AccountsNotFound  ErrorCode = "accounts_not_found"
	AccountLocked     ErrorCode = "account_locked"
	WrongPin          ErrorCode = "wrong_pin"
	InsufficientFunds ErrorCode = "insufficient_funds"
	LockTimeout       ErrorCode = "lock_timeout"
	DuplicateAccount  ErrorCode = "duplicate_account"
	InternalError     ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func (e *AppError) WithDetails(details string) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

// HTTPStatus maps the error code to the status the handler layer responds with.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ValidationError:
		return http.StatusBadRequest
	case AccountNotFound, AccountsNotFound:
		return http.StatusNotFound
	case WrongPin:
		return http.StatusUnauthorized
	case AccountLocked:
		return http.StatusLocked
	case InsufficientFunds:
		return http.StatusUnprocessableEntity
	case DuplicateAccount:
		return http.StatusConflict
	case LockTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewWrongPin reports a failed PIN check with the caller's remaining attempt
// budget before the account locks.
func NewWrongPin(attemptsRemaining int) *AppError {
	noun := "attempts"
	if attemptsRemaining == 1 {
		noun = "attempt"
	}
	return NewAppError(WrongPin, fmt.Sprintf("wrong PIN, %d %s remaining", attemptsRemaining, noun))
}

// Predefined errors for common cases
var (
	ErrInvalidPin             = NewAppError(ValidationError, "PIN must be exactly 4 digits")
	ErrEmptyName              = NewAppError(ValidationError, "name must not be empty")
	ErrInvalidAmount          = NewAppError(ValidationError, "amount must be positive")
	ErrSameAccountTransfer    = NewAppError(ValidationError, "cannot transfer to the same account")
	ErrAccountNotFound        = NewAppError(AccountNotFound, "account not found")
	ErrAccountsNotFound       = NewAppError(AccountsNotFound, "one or both accounts not found")
	ErrAccountLocked          = NewAppError(AccountLocked, "account is locked due to multiple wrong PIN attempts")
	ErrInsufficientFunds      = NewAppError(InsufficientFunds, "insufficient funds")
	ErrLockTimeout            = NewAppError(LockTimeout, "could not acquire account lock, try again")
	ErrDuplicateAccount       = NewAppError(DuplicateAccount, "account already exists")
	ErrCannotBeginTransaction = NewAppError(InternalError, "cannot begin transaction from within a transaction")
)
