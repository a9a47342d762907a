package model

import "time"

// Authority identifies a signer allowed to move funds out of accounts it owns
type Authority string

// AccountID identifies a token account
type AccountID string

// TokenAccount holds a balance of the fungible token in base units
type TokenAccount struct {
	ID        AccountID
	Owner     Authority
	Balance   uint64
	Frozen    bool
	CreatedAt time.Time
}

// Clone returns a copy of the account
func (a *TokenAccount) Clone() *TokenAccount {
	c := *a
	return &c
}

// TransferReceipt records one completed token transfer
type TransferReceipt struct {
	ID        string
	From      AccountID
	To        AccountID
	Authority Authority
	Amount    uint64
	Memo      string
	CreatedAt time.Time
}

// Signer is a registered identity that can authorize transfers.
// Stored separately from sessions so the password hash never leaves storage.
type Signer struct {
	ID           Authority
	Username     string // login username (immutable)
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
}
