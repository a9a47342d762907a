package token

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/powerup-ledger/internal/model"
)

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		base uint64
		want string
	}{
		{0, "0"},
		{1, "0.000001"},
		{10_000_000, "10"},
		{12_500_000, "12.5"},
		{1_000_001, "1.000001"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatUnits(tt.base))
	}
}

func TestParseUnits(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"0", 0},
		{"10", 10_000_000},
		{"2.5", 2_500_000},
		{".5", 500_000},
		{"0.000001", 1},
		{" 1.000001 ", 1_000_001},
	}
	for _, tt := range tests {
		got, err := ParseUnits(tt.in)
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", ".", "1.", "abc", "-1", "1.0000001", "1.2.3", "18446744073710"} {
		_, err := ParseUnits(bad)
		assert.ErrorIs(t, err, model.ErrInvalidAmount, bad)
	}
}

func TestParseUnitsRoundTrip(t *testing.T) {
	for _, base := range []uint64{1, 999_999, 10_000_000, 12_345_678} {
		got, err := ParseUnits(FormatUnits(base))
		assert.NoError(t, err)
		assert.Equal(t, base, got)
	}
}
