package service

import "errors"

// Validation errors. They reject bad input and leave the ledger unchanged.
var (
	ErrEmptyName           = errors.New("name is required")
	ErrDuplicateName       = errors.New("a person with that name already exists")
	ErrInvalidAmount       = errors.New("amount must be a positive number")
	ErrInvalidColor        = errors.New("color must be #rrggbb")
	ErrNoPeople            = errors.New("add people to the group first")
	ErrEmptyPayer          = errors.New("payer is required")
	ErrUnknownPayer        = errors.New("payer is not in the group")
	ErrPersonNotFound      = errors.New("person not found")
	ErrExpenseNotFound     = errors.New("expense not found")
	ErrParticipantNotFound = errors.New("person is not a participant of this expense")
)

var inputErrors = []error{
	ErrEmptyName,
	ErrDuplicateName,
	ErrInvalidAmount,
	ErrInvalidColor,
	ErrNoPeople,
	ErrEmptyPayer,
	ErrUnknownPayer,
	ErrPersonNotFound,
	ErrExpenseNotFound,
	ErrParticipantNotFound,
}

// IsInputError reports whether err was caused by the caller's input rather
// than by storage.
func IsInputError(err error) bool {
	for _, target := range inputErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
