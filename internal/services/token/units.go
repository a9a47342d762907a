// Package token is the fungible-token ledger that pays for power-ups.
package token

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mcoot/powerup-ledger/internal/model"
)

// Decimals is the number of fractional digits of one whole token
const Decimals = 6

// Unit is one whole token in base units
const Unit uint64 = 1_000_000

// FormatUnits renders base units as a decimal token amount, e.g. 10000000 -> "10"
func FormatUnits(base uint64) string {
	whole := base / Unit
	frac := base % Unit
	if frac == 0 {
		return fmt.Sprintf("%d", whole)
	}
	return strings.TrimRight(fmt.Sprintf("%d.%06d", whole, frac), "0")
}

// ParseUnits parses a decimal token amount into base units, e.g. "2.5" -> 2500000.
// At most Decimals fractional digits are accepted.
func ParseUnits(s string) (uint64, error) {
	wholeStr, fracStr, hasFrac := strings.Cut(strings.TrimSpace(s), ".")
	if wholeStr == "" && (!hasFrac || fracStr == "") {
		return 0, fmt.Errorf("%w: %q", model.ErrInvalidAmount, s)
	}
	if len(fracStr) > Decimals || (hasFrac && fracStr == "") {
		return 0, fmt.Errorf("%w: %q has more than %d decimals", model.ErrInvalidAmount, s, Decimals)
	}

	var whole uint64
	if wholeStr != "" {
		w, err := strconv.ParseUint(wholeStr, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", model.ErrInvalidAmount, s)
		}
		whole = w
	}

	var frac uint64
	if fracStr != "" {
		f, err := strconv.ParseUint(fracStr+strings.Repeat("0", Decimals-len(fracStr)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", model.ErrInvalidAmount, s)
		}
		frac = f
	}

	if whole > (math.MaxUint64-frac)/Unit {
		return 0, fmt.Errorf("%w: %q overflows", model.ErrInvalidAmount, s)
	}
	return whole*Unit + frac, nil
}
