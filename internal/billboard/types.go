package billboard

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Slot identifies a billboard placement. The set is fixed by the contract.
type Slot int

const (
	// SlotMain is the large billboard, minimum bid $10.
	SlotMain Slot = 0
	// SlotSecondary is the small billboard, minimum bid $1.
	SlotSecondary Slot = 1
)

// AllSlots returns the fixed enumerated slot set.
func AllSlots() []Slot {
	return []Slot{SlotMain, SlotSecondary}
}

// Valid reports whether s is one of the enumerated slots.
func (s Slot) Valid() bool {
	return s == SlotMain || s == SlotSecondary
}

// Name returns the slot's wire name ("main" or "secondary").
func (s Slot) Name() string {
	if s == SlotSecondary {
		return "secondary"
	}
	return "main"
}

// Ad is a slot occupant: the winning bid currently displaying (or the pending
// winner candidate during a bidding window).
type Ad struct {
	Advertiser string
	ImageURL   string
	LinkURL    string
	Title      string
	BidAmount  *big.Int // USDC base units
	RoundID    uint64
}

// SlotState is one read of a slot from the authority. Occupant fields are
// meaningful only while Active.
type SlotState struct {
	Slot          Slot
	Ad            Ad
	Active        bool
	TimeRemaining uint64 // seconds left in the current occupancy
	MinimumBid    *big.Int
}

// BiddingStatus is the authority's view of the current bidding window.
type BiddingStatus struct {
	BiddingOpen        bool
	CurrentRoundID     uint64
	NextRoundID        uint64
	TimeUntilBidding   uint64 // seconds until the window opens; 0 while open
	TimeUntilNextRound uint64 // seconds until the round boundary
	HighestBids        map[Slot]HighestBid
}

// HighestBid is the leading candidate for a slot in the open window.
type HighestBid struct {
	Amount *big.Int
	Bidder string
}

// Stats are the authority's cumulative totals. Monotonically non-decreasing.
type Stats struct {
	TotalRevenue *big.Int // USDC base units collected over all rounds
	TotalBurned  *big.Int // $BB tokens burned, 18 decimals
	TotalRounds  uint64
}

// BidRequest is a locally validated bid, ready for custodial submission.
type BidRequest struct {
	Slot       Slot
	Advertiser string
	ImageURL   string
	LinkURL    string
	Title      string
	Amount     decimal.Decimal // USD
}

// Rules parameterizes the bidding-rule variant a deployment runs. The
// scheduled-rounds deployment uses {Windowed:true, RequireRefunds:true,
// MinIncrementPercent:0}; the always-open one uses {Windowed:false,
// RequireRefunds:false, MinIncrementPercent:10}. Ties are rejected unless
// AcceptTies is set.
type Rules struct {
	Windowed            bool
	RequireRefunds      bool
	MinIncrementPercent int64
	AcceptTies          bool
}

// MinOutbid returns the smallest amount that beats current under r.
func (r Rules) MinOutbid(current *big.Int) *big.Int {
	if current == nil || current.Sign() == 0 {
		return big.NewInt(0)
	}
	min := new(big.Int).Set(current)
	if r.MinIncrementPercent > 0 {
		pct := big.NewInt(100 + r.MinIncrementPercent)
		min.Mul(min, pct)
		min.Div(min, big.NewInt(100))
		return min
	}
	if !r.AcceptTies {
		min.Add(min, big.NewInt(1))
	}
	return min
}

// Beats reports whether amount is an acceptable outbid of current under r.
func (r Rules) Beats(amount, current *big.Int) bool {
	if current == nil || current.Sign() == 0 {
		return true
	}
	return amount.Cmp(r.MinOutbid(current)) >= 0
}
