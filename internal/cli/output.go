package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mcoot/powerup-ledger/internal/services/token"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintf(o.w, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Signer:
		o.printSigner(v)
	case AuthResult:
		o.printAuthResult(v)
	case Player:
		o.printPlayer(v)
	case Leaderboard:
		o.printLeaderboard(v)
	case Catalog:
		o.printCatalog(v)
	case Account:
		o.printAccount(v)
	case TransferHistory:
		o.printTransferHistory(v)
	case PurchaseResult:
		o.printPurchaseResult(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Signer response type (matches API)
type Signer struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResult combines signer and token
type AuthResult struct {
	Signer       Signer    `json:"signer"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// PowerUp response type
type PowerUp struct {
	ID        string `json:"id"`
	ExpiresAt int64  `json:"expires_at"`
	Active    bool   `json:"active"`
}

// Player response type
type Player struct {
	PlayerID       string   `json:"player_id"`
	Score          uint64   `json:"score"`
	PowerUp        *PowerUp `json:"power_up"`
	PowerUpExpires int64    `json:"power_up_expires"`
}

// Leaderboard response type
type Leaderboard struct {
	Players []Player `json:"players"`
}

// CatalogEntry response type
type CatalogEntry struct {
	ID              string `json:"id"`
	Price           uint64 `json:"price"`
	PriceDisplay    string `json:"price_display"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// Catalog response type
type Catalog struct {
	PowerUps []CatalogEntry `json:"power_ups"`
}

// Account response type
type Account struct {
	ID             string    `json:"id"`
	Owner          string    `json:"owner"`
	Balance        uint64    `json:"balance"`
	BalanceDisplay string    `json:"balance_display"`
	Frozen         bool      `json:"frozen"`
	CreatedAt      time.Time `json:"created_at"`
}

// Transfer response type
type Transfer struct {
	ID        string    `json:"id"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	Authority string    `json:"authority,omitempty"`
	Amount    uint64    `json:"amount"`
	Memo      string    `json:"memo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TransferHistory response type
type TransferHistory struct {
	Transfers []Transfer `json:"transfers"`
}

// PurchaseResult response type
type PurchaseResult struct {
	Player   Player   `json:"player"`
	Receipt  Transfer `json:"receipt"`
	Price    uint64   `json:"price"`
	Treasury string   `json:"treasury"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printSigner(s Signer) {
	fmt.Fprintf(o.w, "Signer: %s (%s)\n", s.Username, s.ID)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printSigner(a.Signer)
	fmt.Fprintf(o.w, "Token: %s\n", a.SessionToken)
}

func (o *Output) printPlayer(p Player) {
	fmt.Fprintf(o.w, "Player: %s\n", p.PlayerID)
	fmt.Fprintf(o.w, "Score: %d\n", p.Score)
	if p.PowerUp == nil {
		fmt.Fprintln(o.w, "Power-up: none")
		return
	}
	state := "expired"
	if p.PowerUp.Active {
		state = "active"
	}
	expires := time.Unix(p.PowerUp.ExpiresAt, 0).UTC().Format(time.RFC3339)
	fmt.Fprintf(o.w, "Power-up: %s (%s, expires %s)\n", p.PowerUp.ID, state, expires)
}

func (o *Output) printLeaderboard(l Leaderboard) {
	if len(l.Players) == 0 {
		fmt.Fprintln(o.w, "No players yet")
		return
	}
	for i, p := range l.Players {
		fmt.Fprintf(o.w, "%3d. %-32s %d\n", i+1, p.PlayerID, p.Score)
	}
}

func (o *Output) printCatalog(c Catalog) {
	for _, e := range c.PowerUps {
		fmt.Fprintf(o.w, "%s: %s tokens for %ds\n", e.ID, e.PriceDisplay, e.DurationSeconds)
	}
}

func (o *Output) printAccount(a Account) {
	fmt.Fprintf(o.w, "Account: %s\n", a.ID)
	fmt.Fprintf(o.w, "Owner: %s\n", a.Owner)
	fmt.Fprintf(o.w, "Balance: %s\n", a.BalanceDisplay)
	if a.Frozen {
		fmt.Fprintln(o.w, "Frozen: yes")
	}
}

func (o *Output) printTransferHistory(h TransferHistory) {
	if len(h.Transfers) == 0 {
		fmt.Fprintln(o.w, "No transfers")
		return
	}
	for _, t := range h.Transfers {
		from := t.From
		if from == "" {
			from = "(mint)"
		}
		fmt.Fprintf(o.w, "%s  %s -> %s  %s  %s\n",
			t.CreatedAt.UTC().Format(time.RFC3339), from, t.To, token.FormatUnits(t.Amount), t.Memo)
	}
}

func (o *Output) printPurchaseResult(p PurchaseResult) {
	fmt.Fprintf(o.w, "Paid %s tokens to %s (receipt %s)\n", token.FormatUnits(p.Price), p.Treasury, p.Receipt.ID)
	o.printPlayer(p.Player)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}
