package redis

import (
	"fmt"
	"math"
	"strings"

	"github.com/mcoot/powerup-ledger/internal/model"
)

// Key prefix for all ledger data
const keyPrefix = "pwledger"

// playerKey returns the Redis key for a player record (fixed binary layout)
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// scoreIndexKey returns the Redis key for the lexicographic ZSET ranking players.
// Every member has score 0 so ZRANGEBYLEX walks them in rank order.
func scoreIndexKey() string {
	return fmt.Sprintf("%s:idx:score_rank", keyPrefix)
}

// scoreRankWidth is the number of digits in a uint64 plus the separator
const scoreRankWidth = 21

// scoreRankMember encodes a player's rank entry. The inverted, zero-padded
// score sorts highest first and ties fall back to the player id.
func scoreRankMember(id model.PlayerID, score uint64) string {
	return fmt.Sprintf("%020d:%s", math.MaxUint64-score, id)
}

// playerFromRankMember recovers the player id from a rank entry
func playerFromRankMember(member string) (model.PlayerID, bool) {
	if len(member) <= scoreRankWidth || !strings.HasPrefix(member[scoreRankWidth-1:], ":") {
		return "", false
	}
	return model.PlayerID(member[scoreRankWidth:]), true
}

// accountKey returns the Redis key for a token account
func accountKey(id model.AccountID) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, id)
}

// transferKey returns the Redis key for a transfer receipt
func transferKey(id string) string {
	return fmt.Sprintf("%s:transfer:%s", keyPrefix, id)
}

// accountTransfersKey returns the Redis key for the LIST of receipt ids touching an account
func accountTransfersKey(id model.AccountID) string {
	return fmt.Sprintf("%s:idx:account_transfers:%s", keyPrefix, id)
}

// signerKey returns the Redis key for a signer
func signerKey(id model.Authority) string {
	return fmt.Sprintf("%s:signer:%s", keyPrefix, id)
}

// usernameIndexKey returns the Redis key for the username -> signer id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}
