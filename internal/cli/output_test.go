package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintPlayerText(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutput("text", &buf)

	out.Print(Player{PlayerID: "alice", Score: 42})
	assert.Contains(t, buf.String(), "Player: alice")
	assert.Contains(t, buf.String(), "Score: 42")
	assert.Contains(t, buf.String(), "Power-up: none")

	buf.Reset()
	out.Print(Player{PlayerID: "alice", PowerUp: &PowerUp{ID: "speedBoost", ExpiresAt: 1_704_110_408, Active: true}})
	assert.Contains(t, buf.String(), "Power-up: speedBoost (active, expires 2024-01-01T12:00:08Z)")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	NewOutput("json", &buf).Print(Account{ID: "acct_1", Balance: 2_500_000, BalanceDisplay: "2.5"})

	var decoded Account
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, uint64(2_500_000), decoded.Balance)
}

func TestPrintTransferHistoryMarksMints(t *testing.T) {
	var buf bytes.Buffer
	NewOutput("text", &buf).Print(TransferHistory{Transfers: []Transfer{
		{To: "acct_1", Amount: 1_500_000, Memo: "airdrop"},
	}})
	assert.Contains(t, buf.String(), "(mint) -> acct_1  1.5  airdrop")
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	NewOutput("json", &buf).PrintError(errors.New("boom"))
	assert.JSONEq(t, `{"error":{"message":"boom"}}`, buf.String())
}
