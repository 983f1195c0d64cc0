package auction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/looplab/fsm"
)

// Phase is the lifecycle state of an auction.
type Phase string

const (
	PhaseBidding   Phase = "bidding"
	PhaseEnded     Phase = "ended"
	PhaseClosed    Phase = "closed"
	PhaseCancelled Phase = "cancelled"
)

const (
	eventBid    = "bid"
	eventCancel = "cancel"
	eventClose  = "close"
)

var transitions = fsm.Events{
	{Name: eventBid, Src: []string{string(PhaseBidding)}, Dst: string(PhaseBidding)},
	{Name: eventCancel, Src: []string{string(PhaseBidding), string(PhaseEnded)}, Dst: string(PhaseCancelled)},
	{Name: eventClose, Src: []string{string(PhaseEnded)}, Dst: string(PhaseClosed)},
}

// PhaseAt returns the phase of a stored auction at now. Closed and
// cancelled auctions no longer have a record.
func (a Auction) PhaseAt(now time.Time) Phase {
	if a.Ended(now) {
		return PhaseEnded
	}
	return PhaseBidding
}

// advance checks that event is allowed for a at now.
func advance(ctx context.Context, a Auction, now time.Time, event string) error {
	machine := fsm.NewFSM(string(a.PhaseAt(now)), transitions, fsm.Callbacks{})
	err := machine.Event(ctx, event)
	if err == nil {
		return nil
	}
	var same fsm.NoTransitionError
	if errors.As(err, &same) {
		return nil
	}
	var invalid fsm.InvalidEventError
	if errors.As(err, &invalid) {
		switch event {
		case eventBid:
			return ErrExpired.With(fmt.Sprintf("auction ended at %s", a.EndTime().Format(time.RFC3339)))
		case eventClose:
			return ErrNotExpired.With(fmt.Sprintf("auction ends at %s", a.EndTime().Format(time.RFC3339)))
		}
	}
	return fmt.Errorf("auction %s: %w", event, err)
}
