// Package custody moves assets and funds into and out of program custody.
package custody

import (
	"github.com/gagliardetto/solana-go"
	"github.com/louisbranch/auctionhouse/internal/escrow/ledger"
	"github.com/louisbranch/auctionhouse/internal/escrow/program"
)

// Custodian is the program-derived authority that owns escrowed holdings.
// It has no private key; only code holding a *Custodian can move escrowed
// units, and every auction shares the same one.
type Custodian struct {
	address solana.PublicKey
	bump    uint8
}

// NewCustodian derives the custodian for a program from the fixed escrow seed.
func NewCustodian(programID solana.PublicKey) (*Custodian, error) {
	address, bump, err := program.Address(programID, []byte(program.SeedEscrow))
	if err != nil {
		return nil, err
	}
	return &Custodian{address: address, bump: bump}, nil
}

// Address is the custodian identity holdings are delegated to.
func (c *Custodian) Address() solana.PublicKey {
	return c.address
}

// Bump is the derivation bump seed.
func (c *Custodian) Bump() uint8 {
	return c.bump
}

// Holds reports whether the custodian owns h.
func (c *Custodian) Holds(h ledger.Holding) bool {
	return h.Owner.Equals(c.address)
}
