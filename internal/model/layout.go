package model

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// PlayerRecordSize is the fixed allocation for one encoded record.
//
// Layout (little endian):
//
//	discriminator[8] | u32 id_len | id[32] | u64 score | u8 has_power_up | u32 pu_len | pu[32] | i64 power_up_expires
//
// String slots are always reserved at their maximum length and zero padded.
const PlayerRecordSize = 8 + (4 + MaxPlayerIDLen) + 8 + (1 + 4 + MaxPowerUpIDLen) + 8

var playerRecordDiscriminator = func() [8]byte {
	sum := sha256.Sum256([]byte("account:PlayerRecord"))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}()

// EncodePlayerRecord serializes a record into its fixed-size layout
func EncodePlayerRecord(r *PlayerRecord) ([]byte, error) {
	if err := ValidatePlayerID(r.PlayerID); err != nil {
		return nil, err
	}
	if r.PowerUp != nil {
		if err := ValidatePowerUpID(r.PowerUp.ID); err != nil {
			return nil, err
		}
	}

	out := make([]byte, 0, PlayerRecordSize)
	w8 := func(x byte) { out = append(out, x) }
	w32 := func(x uint32) { out = binary.LittleEndian.AppendUint32(out, x) }
	w64 := func(x uint64) { out = binary.LittleEndian.AppendUint64(out, x) }
	slot := func(s string, size int) {
		w32(uint32(len(s)))
		out = append(out, s...)
		out = append(out, make([]byte, size-len(s))...)
	}

	out = append(out, playerRecordDiscriminator[:]...)
	slot(string(r.PlayerID), MaxPlayerIDLen)
	w64(r.Score)
	if r.PowerUp != nil {
		w8(1)
		slot(string(r.PowerUp.ID), MaxPowerUpIDLen)
		w64(uint64(r.PowerUp.ExpiresAt))
	} else {
		w8(0)
		slot("", MaxPowerUpIDLen)
		w64(0)
	}
	return out, nil
}

// DecodePlayerRecord parses the fixed-size layout, rejecting anything that
// EncodePlayerRecord could not have produced.
func DecodePlayerRecord(b []byte) (*PlayerRecord, error) {
	if len(b) != PlayerRecordSize {
		return nil, fmt.Errorf("%w: size %d, want %d", ErrCorruptRecord, len(b), PlayerRecordSize)
	}
	if !bytes.Equal(b[:8], playerRecordDiscriminator[:]) {
		return nil, fmt.Errorf("%w: bad discriminator", ErrCorruptRecord)
	}

	r := &reader{b: b, i: 8}
	id, err := r.slot(MaxPlayerIDLen)
	if err != nil {
		return nil, err
	}
	rec := &PlayerRecord{PlayerID: PlayerID(id), Score: r.u64()}
	if rec.PlayerID == "" {
		return nil, fmt.Errorf("%w: empty player id", ErrCorruptRecord)
	}

	tag := r.u8()
	pu, err := r.slot(MaxPowerUpIDLen)
	if err != nil {
		return nil, err
	}
	expires := int64(r.u64())

	switch tag {
	case 0:
		if pu != "" || expires != 0 {
			return nil, fmt.Errorf("%w: expiry set without power-up", ErrCorruptRecord)
		}
	case 1:
		if pu == "" {
			return nil, fmt.Errorf("%w: empty power-up", ErrCorruptRecord)
		}
		rec.PowerUp = &ActivePowerUp{ID: PowerUpID(pu), ExpiresAt: expires}
	default:
		return nil, fmt.Errorf("%w: option tag %d", ErrCorruptRecord, tag)
	}
	return rec, nil
}

// reader walks a buffer whose total length was checked up front
type reader struct {
	b []byte
	i int
}

func (r *reader) u8() byte {
	v := r.b[r.i]
	r.i++
	return v
}

func (r *reader) u32() uint32 {
	v := binary.LittleEndian.Uint32(r.b[r.i:])
	r.i += 4
	return v
}

func (r *reader) u64() uint64 {
	v := binary.LittleEndian.Uint64(r.b[r.i:])
	r.i += 8
	return v
}

// slot reads a length-prefixed string stored in a zero-padded slot of size bytes
func (r *reader) slot(size int) (string, error) {
	n := int(r.u32())
	if n > size {
		return "", fmt.Errorf("%w: length %d exceeds slot %d", ErrCorruptRecord, n, size)
	}
	data := r.b[r.i : r.i+size]
	r.i += size
	for _, c := range data[n:] {
		if c != 0 {
			return "", fmt.Errorf("%w: non-zero padding", ErrCorruptRecord)
		}
	}
	return string(data[:n]), nil
}
