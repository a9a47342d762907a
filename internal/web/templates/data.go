// Package templates renders the HTML pages of the web interface.
package templates

import (
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/mcoot/powerup-ledger/internal/catalog"
	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/services/auth"
)

//go:generate templ generate

// FlashMessage is a one-shot notice shown on the next page load
type FlashMessage struct {
	Type    string // "success", "error" or "info"
	Message string
}

// PageData is shared by every page
type PageData struct {
	Title   string
	Session *auth.Session // nil when signed out
	Flash   *FlashMessage
}

// HomeData is the data for the home page
type HomeData struct {
	PageData
	Catalog []catalog.Entry
	Next    string
}

// PlayerCardData is the data for a single player's page
type PlayerCardData struct {
	PageData
	Player *model.PlayerRecord
	Now    time.Time
}

// LeaderboardData is the data for the leaderboard page
type LeaderboardData struct {
	PageData
	Players []*model.PlayerRecord
	Now     time.Time
}

func effectSeconds() string {
	return strconv.Itoa(int(catalog.EffectDuration / time.Second))
}

func playerURL(id model.PlayerID) templ.SafeURL {
	return templ.SafeURL("/players/" + url.PathEscape(string(id)))
}

func expiresRFC3339(p *model.ActivePowerUp) string {
	return time.Unix(p.ExpiresAt, 0).UTC().Format(time.RFC3339)
}

func expiresDisplay(p *model.ActivePowerUp) string {
	return time.Unix(p.ExpiresAt, 0).UTC().Format("2006-01-02 15:04:05 MST")
}
