package royalty

import (
	"fmt"
	"math/bits"

	"github.com/gagliardetto/solana-go"
)

// Amount returns floor(salePrice * totalBasisPoints / 10000).
func Amount(salePrice uint64, totalBasisPoints uint16) (uint64, error) {
	return mulDiv(salePrice, uint64(totalBasisPoints), BasisPointsDenominator)
}

// Share returns floor(totalRoyalty * basisPoints / totalBasisPoints).
func Share(totalRoyalty uint64, basisPoints, totalBasisPoints uint16) (uint64, error) {
	if totalBasisPoints == 0 {
		return 0, ErrArithmeticOverflow.With("share of a zero basis point total")
	}
	return mulDiv(totalRoyalty, uint64(basisPoints), uint64(totalBasisPoints))
}

// mulDiv computes floor(a*b/d) with a 128-bit intermediate.
func mulDiv(a, b, d uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return 0, ErrArithmeticOverflow.With(fmt.Sprintf("%d * %d / %d overflows 64 bits", a, b, d))
	}
	q, _ := bits.Div64(hi, lo, d)
	return q, nil
}

// Payout is the amount owed to one recipient identity.
type Payout struct {
	Recipient solana.PublicKey
	Amount    uint64
}

// Batch computes each recipient's share, merges shares of the same identity
// into one payout and drops zero payouts. Payouts keep the order in which
// identities first appear.
func Batch(recipients []Recipient, totalRoyalty uint64, totalBasisPoints uint16) ([]Payout, error) {
	var payouts []Payout
	index := make(map[solana.PublicKey]int, len(recipients))
	for _, r := range recipients {
		share, err := Share(totalRoyalty, r.BasisPoints, totalBasisPoints)
		if err != nil {
			return nil, err
		}
		if share == 0 {
			continue
		}
		if i, ok := index[r.Recipient]; ok {
			sum, carry := bits.Add64(payouts[i].Amount, share, 0)
			if carry != 0 {
				return nil, ErrArithmeticOverflow.With(fmt.Sprintf("payout to %s overflows", r.Recipient))
			}
			payouts[i].Amount = sum
			continue
		}
		index[r.Recipient] = len(payouts)
		payouts = append(payouts, Payout{Recipient: r.Recipient, Amount: share})
	}
	return payouts, nil
}

// Split is the full distribution of a sale price.
type Split struct {
	Royalty uint64
	Payouts []Payout
	Seller  uint64
	// Dust is the part of Royalty lost to per-recipient rounding. It is
	// paid to the seller as part of Seller.
	Dust uint64
}

// Distribute splits salePrice between the recipients and the seller. The
// payouts and the seller amount always add up to salePrice.
func Distribute(salePrice uint64, totalBasisPoints uint16, recipients []Recipient) (Split, error) {
	royalty, err := Amount(salePrice, totalBasisPoints)
	if err != nil {
		return Split{}, err
	}
	if royalty == 0 {
		return Split{Seller: salePrice}, nil
	}
	payouts, err := Batch(recipients, royalty, totalBasisPoints)
	if err != nil {
		return Split{}, err
	}
	var paid uint64
	for _, p := range payouts {
		var carry uint64
		paid, carry = bits.Add64(paid, p.Amount, 0)
		if carry != 0 {
			return Split{}, ErrArithmeticOverflow.With("royalty payouts overflow")
		}
	}
	seller, borrow := bits.Sub64(salePrice, paid, 0)
	if borrow != 0 {
		return Split{}, ErrArithmeticOverflow.With(fmt.Sprintf("payouts %d exceed sale price %d", paid, salePrice))
	}
	var dust uint64
	if paid < royalty {
		dust = royalty - paid
	}
	return Split{Royalty: royalty, Payouts: payouts, Seller: seller, Dust: dust}, nil
}
