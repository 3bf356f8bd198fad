package authority

import (
	"errors"
	"fmt"
	"math/big"
)

// Sentinel failures every adapter normalizes to. Handlers map these to the
// caller-facing taxonomy; raw upstream text never leaves the adapter.
var (
	// ErrWindowClosed: bid arrived outside the bidding window.
	ErrWindowClosed = errors.New("bidding window is closed")

	// ErrBidTooLow: bid is below the slot's fixed minimum.
	ErrBidTooLow = errors.New("bid below minimum for slot")

	// ErrAlreadyFinalized: the round is settled; retries are a no-op.
	ErrAlreadyFinalized = errors.New("round already finalized")

	// ErrNotAuthorized: the custodial signer lacks privilege on the contract.
	ErrNotAuthorized = errors.New("signer not authorized")

	// ErrInvalidSlot: slot outside the enumerated set reached the authority.
	ErrInvalidSlot = errors.New("invalid slot")
)

// OutbidError rejects a bid that does not beat the slot's current highest.
// It carries the highest amount so the gateway can echo it to the caller.
type OutbidError struct {
	Highest *big.Int // base units; nil when the contract did not report it
}

func (e *OutbidError) Error() string {
	if e.Highest == nil {
		return "bid does not exceed current highest"
	}
	return fmt.Sprintf("bid does not exceed current highest: %s", e.Highest.String())
}

// AsOutbid unwraps an OutbidError if err is one.
func AsOutbid(err error) (*OutbidError, bool) {
	var oe *OutbidError
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}
