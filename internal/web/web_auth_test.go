package web_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	ts := newWebTestServer(t)

	form := url.Values{"username": {"alice"}, "password": {"secret123"}}
	rr := ts.post("/auth/register", form)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.True(t, ts.cookies.hasSession())

	rr = ts.followRedirect(rr)
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "nav .signer", "alice")
	assertContainsText(t, doc, ".flash-success", "Welcome, alice")
	assertNotContainsElement(t, doc, "#login-form")
}

func TestRegisterErrors(t *testing.T) {
	ts := newWebTestServer(t)
	ts.registerSigner("alice")
	ts.post("/auth/logout", nil)

	tests := []struct {
		name     string
		username string
		password string
		message  string
	}{
		{"taken", "alice", "secret123", "Username already taken"},
		{"short password", "bob", "short", "Registration failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.post("/auth/register", url.Values{"username": {tt.username}, "password": {tt.password}})
			assert.Equal(t, http.StatusSeeOther, rr.Code)
			assert.False(t, ts.cookies.hasSession())

			doc := parseHTML(ts.followRedirect(rr).Body)
			assertContainsText(t, doc, ".flash-error", tt.message)
		})
	}
}

func TestLoginAndLogout(t *testing.T) {
	ts := newWebTestServer(t)
	ts.registerSigner("alice")

	rr := ts.post("/auth/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.False(t, ts.cookies.hasSession())

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, ".flash-info", "logged out")
	assertContainsElement(t, doc, "#login-form")

	rr = ts.post("/auth/login", url.Values{"username": {"alice"}, "password": {"secret123"}, "next": {"/leaderboard"}})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/leaderboard", rr.Header().Get("Location"))
	assert.True(t, ts.cookies.hasSession())
}

func TestLoginRejectsBadPassword(t *testing.T) {
	ts := newWebTestServer(t)
	ts.registerSigner("alice")
	ts.post("/auth/logout", nil)

	rr := ts.post("/auth/login", url.Values{"username": {"alice"}, "password": {"wrong-password"}})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.False(t, ts.cookies.hasSession())

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, ".flash-error", "Invalid username or password")
}

func TestLoginIgnoresOffsiteNext(t *testing.T) {
	ts := newWebTestServer(t)
	ts.registerSigner("alice")
	ts.post("/auth/logout", nil)

	rr := ts.post("/auth/login", url.Values{"username": {"alice"}, "password": {"secret123"}, "next": {"//evil.example"}})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
}

func TestLogoutInvalidatesSession(t *testing.T) {
	ts := newWebTestServer(t)
	ts.registerSigner("alice")
	sess := ts.cookies.cookies["session"].Value

	ts.post("/auth/logout", nil)

	_, err := ts.app.AuthService.ValidateSession(sess)
	assert.Error(t, err)
}
