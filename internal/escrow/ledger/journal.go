package ledger

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
)

// EntryKind names a journaled ledger operation.
type EntryKind string

const (
	EntryCreateMint   EntryKind = "create_mint"
	EntryOpenHolding  EntryKind = "open_holding"
	EntryMintTo       EntryKind = "mint_to"
	EntryTransfer     EntryKind = "transfer"
	EntrySetOwner     EntryKind = "set_owner"
	EntryCloseHolding EntryKind = "close_holding"
)

// Entry is one journaled operation. Seq is assigned by the backend and
// increases across invocations.
//
// For set_owner, Source is the holding and Destination the new owner.
// For close_holding, Destination receives whatever the platform reclaims.
type Entry struct {
	Seq          int64
	InvocationID string
	Kind         EntryKind
	Mint         solana.PublicKey
	Source       solana.PublicKey
	Destination  solana.PublicKey
	Authority    solana.PublicKey
	Amount       uint64
	At           time.Time
}

// JournalPage is one page of journal entries.
type JournalPage struct {
	Entries       []Entry
	NextPageToken string
}

// JournalReader lists journal entries in sequence order. The filter is an
// AIP-160 expression; backends that cannot filter reject non-empty filters.
type JournalReader interface {
	ListJournal(ctx context.Context, pageSize int, pageToken string, filter string) (JournalPage, error)
}
