// Package program holds the escrow program identity, the seeds its records
// are derived from, and the record codec.
package program

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// DefaultID is the program identity used when none is configured.
var DefaultID = solana.MustPublicKeyFromBase58("HGhUfApRyEBL758VLG5kq45UkEAsvaVcPvCxVHuXMdhU")

// Record seeds.
const (
	SeedEscrow        = "escrow"
	SeedAuction       = "auction"
	SeedRoyaltyConfig = "royalty_config"
	SeedAssetEscrow   = "asset_escrow"
	SeedBidEscrow     = "bid_escrow"
)

// ParseID parses a base58 program identity; empty selects DefaultID.
func ParseID(value string) (solana.PublicKey, error) {
	if value == "" {
		return DefaultID, nil
	}
	id, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("parse program id: %w", err)
	}
	return id, nil
}

// Address derives the program address for seeds and returns it with its
// bump seed. Callers derive the same address independently.
func Address(programID solana.PublicKey, seeds ...[]byte) (solana.PublicKey, uint8, error) {
	address, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive program address: %w", err)
	}
	return address, bump, nil
}

// AuctionAddress is the auction record address for an asset mint.
func AuctionAddress(programID, assetMint solana.PublicKey) (solana.PublicKey, error) {
	address, _, err := Address(programID, []byte(SeedAuction), assetMint.Bytes())
	return address, err
}

// RoyaltyConfigAddress is the royalty config address for an asset mint.
func RoyaltyConfigAddress(programID, assetMint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return Address(programID, []byte(SeedRoyaltyConfig), assetMint.Bytes())
}

// AssetEscrowAddress is the holding that keeps a listed asset in custody.
func AssetEscrowAddress(programID, assetMint solana.PublicKey) (solana.PublicKey, error) {
	address, _, err := Address(programID, []byte(SeedAssetEscrow), assetMint.Bytes())
	return address, err
}

// BidEscrowAddress is the holding that keeps a bidder's standing bid on an
// asset in custody.
func BidEscrowAddress(programID, assetMint, bidder solana.PublicKey) (solana.PublicKey, error) {
	address, _, err := Address(programID, []byte(SeedBidEscrow), assetMint.Bytes(), bidder.Bytes())
	return address, err
}

// IsDerived reports whether address lies off the ed25519 curve. Derived
// addresses have no private key and are reserved for program holdings.
func IsDerived(address solana.PublicKey) bool {
	return !solana.IsOnCurve(address[:])
}
