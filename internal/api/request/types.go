package request

// RegisterRequest is the request body for registering a signer
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// InitializePlayerRequest is the request body for creating a player record
type InitializePlayerRequest struct {
	PlayerID string `json:"player_id"`
}

// UpdateScoreRequest is the request body for overwriting a score.
// Score is a pointer so a missing field can be told apart from zero.
type UpdateScoreRequest struct {
	Score *uint64 `json:"score"`
}

// BuyPowerUpRequest is the request body for purchasing a power-up
type BuyPowerUpRequest struct {
	PowerUp         string `json:"power_up"`
	FundingAccount  string `json:"funding_account"`
	TreasuryAccount string `json:"treasury_account,omitempty"`
}

// AirdropRequest is the request body for the faucet
type AirdropRequest struct {
	Amount uint64 `json:"amount"`
}
