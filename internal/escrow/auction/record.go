package auction

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/louisbranch/auctionhouse/internal/escrow/program"
)

// Discriminator tags stored auctions.
var Discriminator = program.NewDiscriminator("Auction")

// RecordSize is the fixed stored size of an auction.
const RecordSize = program.DiscriminatorSize + 8*32 + 8 + 8

// Auction is the escrow record of one listed asset. Field order is the
// stored layout.
//
// While HighestBidder equals Exhibitor no bid has been accepted; the
// funds and refund references then point at Proceeds.
type Auction struct {
	Exhibitor           solana.PublicKey
	AssetCustody        solana.PublicKey
	Proceeds            solana.PublicKey
	Price               uint64
	EndAt               int64
	HighestBidder       solana.PublicKey
	HighestBidderFunds  solana.PublicKey
	HighestBidderRefund solana.PublicKey
	AssetMint           solana.PublicKey
	PaymentMint         solana.PublicKey
}

// HasBid reports whether a real bid has been accepted.
func (a Auction) HasBid() bool {
	return !a.HighestBidder.Equals(a.Exhibitor)
}

// Ended reports whether now is at or past the end of the auction.
func (a Auction) Ended(now time.Time) bool {
	return now.Unix() >= a.EndAt
}

// EndTime returns EndAt as a time.
func (a Auction) EndTime() time.Time {
	return time.Unix(a.EndAt, 0).UTC()
}

// Snapshot returns the state a bid must be built against.
func (a Auction) Snapshot() Snapshot {
	return Snapshot{Price: a.Price, HighestBidder: a.HighestBidder}
}

// Encode returns the stored form of a.
func (a Auction) Encode() ([]byte, error) {
	return program.EncodeRecord(Discriminator, &a)
}

// Decode parses a stored auction.
func Decode(data []byte) (Auction, error) {
	var a Auction
	if err := program.DecodeRecord(Discriminator, data, &a); err != nil {
		return Auction{}, err
	}
	return a, nil
}

// Snapshot is the (price, highest bidder) pair a bid was built against.
type Snapshot struct {
	Price         uint64
	HighestBidder solana.PublicKey
}
