// Package memledger provides an in-memory Asset Ledger.
//
// Each invocation runs against a copy of the current state; the copy replaces
// the state only when the invocation succeeds. Invocations are serialized.
package memledger

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/louisbranch/auctionhouse/internal/escrow/ledger"
	apperrors "github.com/louisbranch/auctionhouse/internal/platform/errors"
	"github.com/louisbranch/auctionhouse/internal/platform/grpc/pagination"
	"github.com/louisbranch/auctionhouse/internal/platform/id"
)

// Ledger is an in-memory ledger.Ledger.
type Ledger struct {
	mu    sync.Mutex
	clock clockwork.Clock
	state *state
}

// New creates an empty ledger reading time from clock. A nil clock uses
// the real clock.
func New(clock clockwork.Clock) *Ledger {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Ledger{
		clock: clock,
		state: newState(),
	}
}

// Execute runs fn as one all-or-nothing invocation.
func (l *Ledger) Execute(ctx context.Context, fn func(ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	invocationID, err := id.NewInvocationID()
	if err != nil {
		return err
	}
	draft := l.state.clone()
	if err := ledger.Run(draft, invocationID, l.clock.Now(), fn); err != nil {
		return err
	}
	l.state = draft
	return nil
}

// Entries returns a copy of the journal.
func (l *Ledger) Entries() []ledger.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ledger.Entry(nil), l.state.entries...)
}

// ListJournal pages through the journal. Filters are not supported.
func (l *Ledger) ListJournal(ctx context.Context, pageSize int, pageToken string, filter string) (ledger.JournalPage, error) {
	if err := ctx.Err(); err != nil {
		return ledger.JournalPage{}, err
	}
	if strings.TrimSpace(filter) != "" {
		return ledger.JournalPage{}, apperrors.WithMetadata(apperrors.CodeJournalInvalidFilter,
			"journal filters are not supported in memory", map[string]string{"filter": filter})
	}
	if pageSize <= 0 {
		return ledger.JournalPage{}, fmt.Errorf("page size must be greater than zero")
	}
	after, err := pagination.ParseSequenceToken(pageToken)
	if err != nil {
		return ledger.JournalPage{}, apperrors.WithMetadata(apperrors.CodeInvalidArgument, err.Error(), map[string]string{"field": "page_token"})
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	var page ledger.JournalPage
	for _, entry := range l.state.entries {
		if entry.Seq <= after {
			continue
		}
		if len(page.Entries) == pageSize {
			page.NextPageToken = pagination.SequenceToken(page.Entries[pageSize-1].Seq)
			break
		}
		page.Entries = append(page.Entries, entry)
	}
	return page, nil
}

type state struct {
	mints    map[solana.PublicKey]ledger.Mint
	holdings map[solana.PublicKey]ledger.Holding
	records  map[solana.PublicKey][]byte
	entries  []ledger.Entry
}

func newState() *state {
	return &state{
		mints:    map[solana.PublicKey]ledger.Mint{},
		holdings: map[solana.PublicKey]ledger.Holding{},
		records:  map[solana.PublicKey][]byte{},
	}
}

func (s *state) clone() *state {
	out := newState()
	for k, v := range s.mints {
		out.mints[k] = v
	}
	for k, v := range s.holdings {
		out.holdings[k] = v
	}
	for k, v := range s.records {
		out.records[k] = v
	}
	out.entries = append(out.entries, s.entries...)
	return out
}

func (s *state) LoadMint(address solana.PublicKey) (ledger.Mint, error) {
	mint, ok := s.mints[address]
	if !ok {
		return ledger.Mint{}, ledger.ErrNotFound
	}
	return mint, nil
}

func (s *state) SaveMint(mint ledger.Mint) error {
	s.mints[mint.Address] = mint
	return nil
}

func (s *state) LoadHolding(address solana.PublicKey) (ledger.Holding, error) {
	holding, ok := s.holdings[address]
	if !ok {
		return ledger.Holding{}, ledger.ErrNotFound
	}
	return holding, nil
}

func (s *state) SaveHolding(holding ledger.Holding) error {
	s.holdings[holding.Address] = holding
	return nil
}

func (s *state) DeleteHolding(address solana.PublicKey) error {
	delete(s.holdings, address)
	return nil
}

func (s *state) LoadRecord(address solana.PublicKey) ([]byte, error) {
	data, ok := s.records[address]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return bytes.Clone(data), nil
}

// SaveRecord stores a private copy; stored slices are never mutated, so
// clones may share them.
func (s *state) SaveRecord(address solana.PublicKey, data []byte) error {
	s.records[address] = bytes.Clone(data)
	return nil
}

func (s *state) DeleteRecord(address solana.PublicKey) error {
	delete(s.records, address)
	return nil
}

func (s *state) ScanRecords(prefix []byte, after solana.PublicKey, limit int) ([]ledger.Record, error) {
	var matched []ledger.Record
	for address, data := range s.records {
		if !bytes.HasPrefix(data, prefix) {
			continue
		}
		if !after.IsZero() && bytes.Compare(address[:], after[:]) <= 0 {
			continue
		}
		matched = append(matched, ledger.Record{Address: address, Data: bytes.Clone(data)})
	}
	sort.Slice(matched, func(i, j int) bool {
		return bytes.Compare(matched[i].Address[:], matched[j].Address[:]) < 0
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *state) AppendEntry(entry ledger.Entry) error {
	entry.Seq = int64(len(s.entries)) + 1
	s.entries = append(s.entries, entry)
	return nil
}
