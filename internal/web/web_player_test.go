package web_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerCardWithoutPowerUp(t *testing.T) {
	ts := newWebTestServer(t)
	ts.createPlayer("alice", 77)

	rr := ts.get("/players/alice")
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".player-card .player-id", "alice")
	assertContainsText(t, doc, ".player-card .score", "77")
	assertContainsElement(t, doc, ".power-up.none")
	assertNotContainsElement(t, doc, ".power-up-status")
}

func TestPlayerCardPowerUpExpiresAtRenderTime(t *testing.T) {
	ts := newWebTestServer(t)
	ts.createPlayer("alice", 5)
	ts.buySpeedBoost("alice")

	doc := parseHTML(ts.get("/players/alice").Body)
	assertContainsText(t, doc, ".power-up-id", "speedBoost")
	assertContainsElement(t, doc, ".power-up-status.active")

	expires, ok := doc.Find(".power-up-expires").Attr("datetime")
	require.True(t, ok)
	assert.Equal(t, ts.app.MockClock.Now().Add(8*time.Second).UTC().Format(time.RFC3339), expires)

	// Nothing rewrites the record; only the clock moves
	ts.app.MockClock.Advance(8 * time.Second)

	doc = parseHTML(ts.get("/players/alice").Body)
	assertContainsElement(t, doc, ".power-up-status.expired")
	assertNotContainsElement(t, doc, ".power-up-status.active")
}

func TestPlayerCardMissingPlayer(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/players/ghost")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".not-found", "ghost")
}

func TestPlayerCardEscapesID(t *testing.T) {
	ts := newWebTestServer(t)
	ts.createPlayer("<script>", 1)

	rr := ts.get("/players/%3Cscript%3E")
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertNotContainsElement(t, doc, ".player-card script")
	assertContainsText(t, doc, ".player-card .player-id", "<script>")
}

func TestLeaderboardPage(t *testing.T) {
	ts := newWebTestServer(t)
	ts.createPlayer("a", 5)
	ts.createPlayer("b", 500)
	ts.createPlayer("c", 50)
	ts.buySpeedBoost("c")

	rr := ts.get("/leaderboard")
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	rows := doc.Find(".leaderboard-row")
	require.Equal(t, 3, rows.Length())

	ids := rows.Map(func(_ int, row *goquery.Selection) string {
		id, _ := row.Attr("data-player-id")
		return id
	})
	assert.Equal(t, []string{"b", "c", "a"}, ids)
	assertContainsElement(t, doc, ".leaderboard-row[data-player-id='c'] .power-up-status.active")

	doc = parseHTML(ts.get("/leaderboard?limit=1").Body)
	assert.Equal(t, 1, doc.Find(".leaderboard-row").Length())
}

func TestLeaderboardEmpty(t *testing.T) {
	ts := newWebTestServer(t)

	doc := parseHTML(ts.get("/leaderboard").Body)
	assertContainsElement(t, doc, ".empty")
}
