package program

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	apperrors "github.com/louisbranch/auctionhouse/internal/platform/errors"
)

// DiscriminatorSize is the length of the record type tag.
const DiscriminatorSize = 8

// Discriminator tags a record type.
type Discriminator [DiscriminatorSize]byte

// NewDiscriminator derives the tag for a record type name.
func NewDiscriminator(name string) Discriminator {
	sum := sha256.Sum256([]byte("account:" + name))
	var d Discriminator
	copy(d[:], sum[:DiscriminatorSize])
	return d
}

// Bytes returns the tag as a slice, for prefix scans.
func (d Discriminator) Bytes() []byte {
	return d[:]
}

// ErrRecordCorrupt indicates stored data that is not the expected record.
var ErrRecordCorrupt = apperrors.New(apperrors.CodeRecordCorrupt, "record data is corrupt")

// EncodeRecord writes the discriminator followed by the Borsh body of v.
func EncodeRecord(d Discriminator, v any) ([]byte, error) {
	body, err := bin.MarshalBorsh(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	out := make([]byte, 0, DiscriminatorSize+len(body))
	out = append(out, d[:]...)
	return append(out, body...), nil
}

// DecodeRecord checks the discriminator and decodes the Borsh body into v.
func DecodeRecord(d Discriminator, data []byte, v any) error {
	if len(data) < DiscriminatorSize || !bytes.Equal(data[:DiscriminatorSize], d[:]) {
		return ErrRecordCorrupt.With("record discriminator mismatch")
	}
	if err := bin.UnmarshalBorsh(v, data[DiscriminatorSize:]); err != nil {
		return apperrors.Wrap(apperrors.CodeRecordCorrupt, "decode record body", err)
	}
	return nil
}
