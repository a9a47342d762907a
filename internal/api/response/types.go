package response

import (
	"time"

	"github.com/mcoot/powerup-ledger/internal/catalog"
	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/services/auth"
	"github.com/mcoot/powerup-ledger/internal/services/purchase"
	"github.com/mcoot/powerup-ledger/internal/services/token"
)

// Signer represents a signer in API responses
type Signer struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// SignerFromModel converts a model.Signer to a response Signer
func SignerFromModel(s *model.Signer) Signer {
	return Signer{
		ID:        string(s.ID),
		Username:  s.Username,
		CreatedAt: s.CreatedAt,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Signer       Signer    `json:"signer"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Signer:       SignerFromModel(&s.Signer),
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// PowerUp is the power-up slot of a player record
type PowerUp struct {
	ID        string `json:"id"`
	ExpiresAt int64  `json:"expires_at"`
	Active    bool   `json:"active"`
}

// Player represents a player record in API responses.
// PowerUpExpires is 0 when no power-up was ever bought.
type Player struct {
	PlayerID       string   `json:"player_id"`
	Score          uint64   `json:"score"`
	PowerUp        *PowerUp `json:"power_up"`
	PowerUpExpires int64    `json:"power_up_expires"`
}

// PlayerFromModel converts a record, computing whether its power-up is active at now
func PlayerFromModel(r *model.PlayerRecord, now time.Time) Player {
	p := Player{
		PlayerID:       string(r.PlayerID),
		Score:          r.Score,
		PowerUpExpires: r.PowerUpExpires(),
	}
	if r.PowerUp != nil {
		p.PowerUp = &PowerUp{
			ID:        string(r.PowerUp.ID),
			ExpiresAt: r.PowerUp.ExpiresAt,
			Active:    r.PowerUp.ActiveAt(now),
		}
	}
	return p
}

// Leaderboard is the response for the leaderboard endpoint
type Leaderboard struct {
	Players []Player `json:"players"`
}

// LeaderboardFromModel converts a ranked list of records
func LeaderboardFromModel(recs []*model.PlayerRecord, now time.Time) Leaderboard {
	players := make([]Player, len(recs))
	for i, r := range recs {
		players[i] = PlayerFromModel(r, now)
	}
	return Leaderboard{Players: players}
}

// CatalogEntry is one priced power-up
type CatalogEntry struct {
	ID              string `json:"id"`
	Price           uint64 `json:"price"`
	PriceDisplay    string `json:"price_display"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// Catalog is the response for the catalog endpoint
type Catalog struct {
	PowerUps []CatalogEntry `json:"power_ups"`
}

// CatalogFromModel converts catalog entries
func CatalogFromModel(entries []catalog.Entry) Catalog {
	out := make([]CatalogEntry, len(entries))
	for i, e := range entries {
		out[i] = CatalogEntry{
			ID:              string(e.ID),
			Price:           e.Price,
			PriceDisplay:    token.FormatUnits(e.Price),
			DurationSeconds: int64(catalog.EffectDuration / time.Second),
		}
	}
	return Catalog{PowerUps: out}
}

// Account represents a token account
type Account struct {
	ID             string    `json:"id"`
	Owner          string    `json:"owner"`
	Balance        uint64    `json:"balance"`
	BalanceDisplay string    `json:"balance_display"`
	Frozen         bool      `json:"frozen"`
	CreatedAt      time.Time `json:"created_at"`
}

// AccountFromModel converts model.TokenAccount
func AccountFromModel(a *model.TokenAccount) Account {
	return Account{
		ID:             string(a.ID),
		Owner:          string(a.Owner),
		Balance:        a.Balance,
		BalanceDisplay: token.FormatUnits(a.Balance),
		Frozen:         a.Frozen,
		CreatedAt:      a.CreatedAt,
	}
}

// Transfer represents a transfer receipt. From is empty for minted tokens.
type Transfer struct {
	ID        string    `json:"id"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	Authority string    `json:"authority,omitempty"`
	Amount    uint64    `json:"amount"`
	Memo      string    `json:"memo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TransferFromModel converts model.TransferReceipt
func TransferFromModel(t *model.TransferReceipt) Transfer {
	return Transfer{
		ID:        t.ID,
		From:      string(t.From),
		To:        string(t.To),
		Authority: string(t.Authority),
		Amount:    t.Amount,
		Memo:      t.Memo,
		CreatedAt: t.CreatedAt,
	}
}

// TransferHistory is the response for the account history endpoint
type TransferHistory struct {
	Transfers []Transfer `json:"transfers"`
}

// TransferHistoryFromModel converts a list of receipts
func TransferHistoryFromModel(receipts []*model.TransferReceipt) TransferHistory {
	out := make([]Transfer, len(receipts))
	for i, t := range receipts {
		out[i] = TransferFromModel(t)
	}
	return TransferHistory{Transfers: out}
}

// PurchaseResponse is the response after buying a power-up
type PurchaseResponse struct {
	Player   Player   `json:"player"`
	Receipt  Transfer `json:"receipt"`
	Price    uint64   `json:"price"`
	Treasury string   `json:"treasury"`
}

// PurchaseFromResult converts a purchase result
func PurchaseFromResult(res *purchase.Result, now time.Time) PurchaseResponse {
	return PurchaseResponse{
		Player:   PlayerFromModel(res.Player, now),
		Receipt:  TransferFromModel(res.Receipt),
		Price:    res.Price,
		Treasury: string(res.Receipt.To),
	}
}
