package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Player record errors
	ErrRecordNotFound  = errors.New("player record not found")
	ErrAlreadyExists   = errors.New("record already exists")
	ErrInvalidPlayerID = errors.New("invalid player id")
	ErrCorruptRecord   = errors.New("corrupt player record")

	// Catalog errors
	ErrInvalidPowerUp = errors.New("invalid power-up type")

	// Token errors
	ErrTransferFailed    = errors.New("token transfer failed")
	ErrAccountNotFound   = errors.New("token account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOwnerMismatch     = errors.New("authority does not own the source account")
	ErrAccountFrozen     = errors.New("token account is frozen")
	ErrInvalidAmount     = errors.New("invalid amount")

	// Signer errors
	ErrSignerNotFound = errors.New("signer not found")
)

// TransferError is returned by the token ledger for any rejected transfer.
// It matches both ErrTransferFailed and the specific cause under errors.Is.
type TransferError struct {
	Cause error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s: %s", ErrTransferFailed, e.Cause)
}

func (e *TransferError) Unwrap() []error {
	return []error{ErrTransferFailed, e.Cause}
}

// NewTransferError wraps cause as a transfer failure
func NewTransferError(cause error) error {
	return &TransferError{Cause: cause}
}
