package domain

import "errors"

// ErrorKind classifies domain failures so transport layers can map them.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindInsufficientBalance
	KindConflict
	KindInvalidState
	KindUnauthorized
)

type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func NewValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

var (
	ErrUserNotFound        = &Error{Kind: KindNotFound, Message: "User not found"}
	ErrPlanNotFound        = &Error{Kind: KindNotFound, Message: "Investment plan not found or inactive"}
	ErrInvestmentNotFound  = &Error{Kind: KindNotFound, Message: "Investment not found"}
	ErrTransactionNotFound = &Error{Kind: KindNotFound, Message: "Transaction not found"}

	ErrInvalidAmount       = &Error{Kind: KindValidation, Message: "Amount must be greater than zero"}
	ErrAmountOutOfRange    = &Error{Kind: KindValidation, Message: "Amount is outside the plan limits"}
	ErrInvalidPin          = &Error{Kind: KindValidation, Message: "Invalid transaction PIN"}
	ErrInsufficientBalance = &Error{Kind: KindInsufficientBalance, Message: "Insufficient balance"}

	ErrConcurrencyConflict = &Error{Kind: KindConflict, Message: "Concurrent update detected, please retry"}
	ErrInvalidState        = &Error{Kind: KindInvalidState, Message: "Operation not allowed in the current state"}
	ErrEmailTaken          = &Error{Kind: KindConflict, Message: "Email already registered"}
	ErrPlanExists          = &Error{Kind: KindConflict, Message: "A plan with this tier and level already exists"}
	ErrPlanWindow          = &Error{Kind: KindInvalidState, Message: "Plan duration does not give a valid investment window"}
	ErrPlanInUse           = &Error{Kind: KindInvalidState, Message: "Plan terms cannot change once investments reference it"}

	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Message: "Invalid credentials"}
)
