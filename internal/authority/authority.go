// Package authority defines the port to the auction's external system of
// record. All auction state (round winners, refund ledger, revenue and burn
// totals) is owned by the Billboard contract; this service only reads it and
// relays authorized writes. Adapters: evm (the real contract over JSON-RPC)
// and memory (in-process state machine for dev and tests).
package authority

import (
	"context"
	"math/big"

	"github.com/billboard-mafia/backend/internal/billboard"
)

// Authority is the request/response interface to the auction's canonical
// state. Every call is bounded by its context; implementations must not
// retry internally.
type Authority interface {
	// ReadAllSlots returns the occupant state of every slot.
	ReadAllSlots(ctx context.Context) ([]billboard.SlotState, error)

	// ReadBiddingStatus returns the current window view, including the
	// leading bid per slot while the window is open.
	ReadBiddingStatus(ctx context.Context) (billboard.BiddingStatus, error)

	// ReadStats returns lifetime revenue, burn and round totals.
	ReadStats(ctx context.Context) (billboard.Stats, error)

	// ReadMinimumBid returns the slot's fixed minimum in base units.
	ReadMinimumBid(ctx context.Context, slot billboard.Slot) (*big.Int, error)

	// ReadPendingRefund returns the refundable balance owed to an address.
	ReadPendingRefund(ctx context.Context, address string) (*big.Int, error)

	// ReadLastFinalizedRound returns the most recent round settled for a slot.
	ReadLastFinalizedRound(ctx context.Context, slot billboard.Slot) (uint64, error)

	// SubmitBid places a bid on behalf of the advertiser using the custodial
	// signer and returns the transaction hash. The advertiser has authorized
	// the operator to act for it; this is a trust simplification, not a
	// commitment scheme.
	SubmitBid(ctx context.Context, bid billboard.BidRequest) (string, error)

	// FinalizeRound settles the current round for a slot: promotes the
	// highest bidder to occupant and marks losers refundable. Returns
	// ErrAlreadyFinalized when there is nothing to settle.
	FinalizeRound(ctx context.Context, slot billboard.Slot) (string, error)
}

// Treasury is the revenue side of the authority, used by the buyback tool.
// Kept separate from Authority because only the operator binary needs it.
type Treasury interface {
	// WithdrawRevenue moves accumulated USDC revenue to the given address.
	WithdrawRevenue(ctx context.Context, to string) (string, error)

	// RecordBurn reports a completed $BB burn to the contract's counters.
	RecordBurn(ctx context.Context, amount *big.Int) (string, error)
}
