package model

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerRecordSize(t *testing.T) {
	assert.Equal(t, 97, PlayerRecordSize)
}

func TestEncodeFreshRecord(t *testing.T) {
	rec, _ := NewPlayerRecord("alice")

	b, err := EncodePlayerRecord(rec)
	require.NoError(t, err)
	require.Len(t, b, PlayerRecordSize)

	assert.Equal(t, uint32(5), binary.LittleEndian.Uint32(b[8:12]))
	assert.Equal(t, "alice", string(b[12:17]))
	// power-up tag and expiry are zero when absent
	assert.Equal(t, byte(0), b[52])
	assert.Equal(t, uint64(0), binary.LittleEndian.Uint64(b[89:97]))

	decoded, err := DecodePlayerRecord(b)
	require.NoError(t, err)
	assert.Equal(t, rec, decoded)
}

func TestEncodeReservesFullSlotsForMaximumLengths(t *testing.T) {
	rec := &PlayerRecord{
		PlayerID: PlayerID(strings.Repeat("p", MaxPlayerIDLen)),
		Score:    math.MaxUint64,
	}
	rec.SetPowerUp(PowerUpID(strings.Repeat("u", MaxPowerUpIDLen)), -1)

	b, err := EncodePlayerRecord(rec)
	require.NoError(t, err)
	assert.Len(t, b, PlayerRecordSize)

	decoded, err := DecodePlayerRecord(b)
	require.NoError(t, err)
	assert.Equal(t, rec, decoded)
}

func TestEncodeRejectsOversizedPowerUp(t *testing.T) {
	rec, _ := NewPlayerRecord("alice")
	rec.SetPowerUp(PowerUpID(strings.Repeat("u", MaxPowerUpIDLen+1)), 1)

	_, err := EncodePlayerRecord(rec)
	assert.ErrorIs(t, err, ErrInvalidPowerUp)
}

func TestDecodeRejectsCorruptInput(t *testing.T) {
	rec, _ := NewPlayerRecord("alice")
	rec.SetPowerUp("speedBoost", 42)
	valid, err := EncodePlayerRecord(rec)
	require.NoError(t, err)

	mutate := func(f func(b []byte)) []byte {
		b := append([]byte(nil), valid...)
		f(b)
		return b
	}

	cases := map[string][]byte{
		"short":              valid[:PlayerRecordSize-1],
		"discriminator":      mutate(func(b []byte) { b[0] ^= 0xff }),
		"id length overflow": mutate(func(b []byte) { binary.LittleEndian.PutUint32(b[8:12], MaxPlayerIDLen+1) }),
		"dirty padding":      mutate(func(b []byte) { b[12+MaxPlayerIDLen-1] = 'x' }),
		"bad tag":            mutate(func(b []byte) { b[52] = 2 }),
		"expiry without tag": mutate(func(b []byte) {
			b[52] = 0
			binary.LittleEndian.PutUint32(b[53:57], 0)
			copy(b[57:89], make([]byte, MaxPowerUpIDLen))
		}),
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodePlayerRecord(input)
			assert.ErrorIs(t, err, ErrCorruptRecord)
		})
	}
}
