// Package royalty computes royalty splits and validates royalty
// configurations. It has no ledger side effects.
package royalty

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	apperrors "github.com/louisbranch/auctionhouse/internal/platform/errors"
)

const (
	// BasisPointsDenominator is 100% in basis points.
	BasisPointsDenominator = 10000
	// MaxTotalBasisPoints caps the royalty at 25% of the sale price.
	MaxTotalBasisPoints = 2500
	// MaxRecipients caps the number of recipients per config.
	MaxRecipients = 5
)

var (
	ErrInvalidConfig        = apperrors.New(apperrors.CodeRoyaltyInvalidConfig, "invalid royalty configuration")
	ErrBasisPointsExceedMax = apperrors.New(apperrors.CodeRoyaltyBasisPointsExceedMax, "royalty basis points exceed maximum")
	ErrTooManyRecipients    = apperrors.New(apperrors.CodeRoyaltyTooManyRecipients, "too many royalty recipients")
	ErrBasisPointsMismatch  = apperrors.New(apperrors.CodeRoyaltyBasisPointsMismatch, "recipient basis points do not match total")
	ErrInvalidRecipientType = apperrors.New(apperrors.CodeRoyaltyInvalidRecipientType, "invalid recipient type")
	ErrArithmeticOverflow   = apperrors.New(apperrors.CodeArithmeticOverflow, "royalty arithmetic overflow")
)

// RecipientType classifies a royalty beneficiary.
type RecipientType uint8

const (
	RecipientArtist RecipientType = iota
	RecipientPlatform
	RecipientCollaborator
	RecipientOther
)

// String returns the lowercase name of the type.
func (t RecipientType) String() string {
	switch t {
	case RecipientArtist:
		return "artist"
	case RecipientPlatform:
		return "platform"
	case RecipientCollaborator:
		return "collaborator"
	case RecipientOther:
		return "other"
	default:
		return "recipient_type(" + strconv.Itoa(int(t)) + ")"
	}
}

// Valid reports whether t is one of the known types.
func (t RecipientType) Valid() bool {
	switch t {
	case RecipientArtist, RecipientPlatform, RecipientCollaborator, RecipientOther:
		return true
	default:
		return false
	}
}

// ParseRecipientType parses a type name, case-insensitively.
func ParseRecipientType(value string) (RecipientType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "artist":
		return RecipientArtist, nil
	case "platform":
		return RecipientPlatform, nil
	case "collaborator":
		return RecipientCollaborator, nil
	case "other":
		return RecipientOther, nil
	default:
		return 0, ErrInvalidRecipientType.With(fmt.Sprintf("unknown recipient type %q", value), "type", value)
	}
}

// Recipient is one beneficiary of a royalty configuration.
type Recipient struct {
	Recipient   solana.PublicKey
	BasisPoints uint16
	Type        RecipientType
}

// Validate checks the bounds shared by create and update.
func Validate(totalBasisPoints uint16, recipients []Recipient) error {
	if totalBasisPoints > MaxTotalBasisPoints {
		return ErrBasisPointsExceedMax.With(
			fmt.Sprintf("total basis points %d exceed %d", totalBasisPoints, MaxTotalBasisPoints),
			"total", strconv.Itoa(int(totalBasisPoints)),
			"max", strconv.Itoa(MaxTotalBasisPoints),
		)
	}
	if len(recipients) > MaxRecipients {
		return ErrTooManyRecipients.With(
			fmt.Sprintf("%d recipients exceed %d", len(recipients), MaxRecipients),
			"count", strconv.Itoa(len(recipients)),
			"max", strconv.Itoa(MaxRecipients),
		)
	}
	var sum uint32
	for i, r := range recipients {
		if !r.Type.Valid() {
			return ErrInvalidRecipientType.With(
				fmt.Sprintf("recipient %d has type %d", i, r.Type),
				"type", r.Type.String(),
			)
		}
		if r.Recipient.IsZero() {
			return ErrInvalidConfig.With(fmt.Sprintf("recipient %d has no identity", i))
		}
		sum += uint32(r.BasisPoints)
	}
	if sum != uint32(totalBasisPoints) {
		return ErrBasisPointsMismatch.With(
			fmt.Sprintf("recipient basis points sum to %d, total is %d", sum, totalBasisPoints),
			"sum", strconv.FormatUint(uint64(sum), 10),
			"total", strconv.Itoa(int(totalBasisPoints)),
		)
	}
	return nil
}
