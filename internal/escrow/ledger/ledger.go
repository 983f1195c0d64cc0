// Package ledger defines the Asset Ledger the escrow programs run against.
//
// A ledger holds mints, holdings of mint units, and opaque program records.
// Every invocation runs through Ledger.Execute and either commits all of its
// writes or none of them. Backends only provide storage (State); the rules
// for moving units live in this package so every backend enforces them the
// same way.
package ledger

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
)

// Mint is a unit type. The non-fungible asset is a mint with supply 1 and
// zero decimals.
type Mint struct {
	Address   solana.PublicKey
	Authority solana.PublicKey
	Decimals  uint8
	Supply    uint64
}

// Holding is a balance of one mint controlled by Owner.
type Holding struct {
	Address solana.PublicKey
	Mint    solana.PublicKey
	Owner   solana.PublicKey
	Amount  uint64
}

// Record is program-owned data stored at a derived address.
type Record struct {
	Address solana.PublicKey
	Data    []byte
}

// Tx is the view of the ledger available to one invocation.
type Tx interface {
	// InvocationID identifies the invocation in the journal.
	InvocationID() string
	// Now is the ledger clock, fixed for the whole invocation.
	Now() time.Time

	Mint(address solana.PublicKey) (Mint, error)
	CreateMint(mint Mint) error
	MintTo(mint, destination, authority solana.PublicKey, amount uint64) error

	Holding(address solana.PublicKey) (Holding, error)
	OpenHolding(address, mint, owner solana.PublicKey) (Holding, error)
	Transfer(source, destination, authority solana.PublicKey, amount uint64) error
	SetOwner(holding, currentOwner, newOwner solana.PublicKey) error
	CloseHolding(holding, destination, authority solana.PublicKey) error

	Record(address solana.PublicKey) ([]byte, error)
	PutRecord(address solana.PublicKey, data []byte) error
	DeleteRecord(address solana.PublicKey) error
	// Records lists records whose data starts with prefix, ordered by
	// address, strictly after the given address (zero means from the start).
	Records(prefix []byte, after solana.PublicKey, limit int) ([]Record, error)
}

// Ledger executes invocations atomically.
type Ledger interface {
	Execute(ctx context.Context, fn func(Tx) error) error
}

// State is the storage primitive set a backend implements. Load methods
// return ErrNotFound for missing entries.
type State interface {
	LoadMint(address solana.PublicKey) (Mint, error)
	SaveMint(mint Mint) error
	LoadHolding(address solana.PublicKey) (Holding, error)
	SaveHolding(holding Holding) error
	DeleteHolding(address solana.PublicKey) error
	LoadRecord(address solana.PublicKey) ([]byte, error)
	SaveRecord(address solana.PublicKey, data []byte) error
	DeleteRecord(address solana.PublicKey) error
	ScanRecords(prefix []byte, after solana.PublicKey, limit int) ([]Record, error)
	AppendEntry(entry Entry) error
}
