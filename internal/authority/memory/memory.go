// Package memory implements the authority port in-process. It exists for
// local development without a chain and for tests; it carries the same
// round/bidding-window state machine the contract runs, parameterized by the
// same rule variants.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/billboard-mafia/backend/internal/authority"
	"github.com/billboard-mafia/backend/internal/billboard"
)

// Config sets up the in-memory authority.
type Config struct {
	Schedule    billboard.Schedule
	Rules       billboard.Rules
	MinimumBids map[billboard.Slot]*big.Int // base units per slot
	Now         func() time.Time            // nil = time.Now
}

// candidate is the winner-elect for a slot's upcoming round.
type candidate struct {
	ad          billboard.Ad
	targetRound uint64
}

type slotState struct {
	occupant      *billboard.Ad
	candidate     *candidate
	lastFinalized uint64
}

// Authority holds all auction state behind one mutex. Contention is not a
// concern at dev/test scale and the lock gives the same at-most-one-winner
// guarantee the contract provides.
type Authority struct {
	mu    sync.Mutex
	cfg   Config
	now   func() time.Time
	slots map[billboard.Slot]*slotState

	refunds      map[string]*big.Int // lowercase address -> base units
	totalRevenue *big.Int
	totalBurned  *big.Int
	totalRounds  uint64
	withdrawable *big.Int
	nonce        uint64
}

var _ authority.Authority = (*Authority)(nil)
var _ authority.Treasury = (*Authority)(nil)

// New creates an authority with empty slots.
func New(cfg Config) *Authority {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	slots := make(map[billboard.Slot]*slotState, len(billboard.AllSlots()))
	for _, s := range billboard.AllSlots() {
		slots[s] = &slotState{}
	}
	return &Authority{
		cfg:          cfg,
		now:          now,
		slots:        slots,
		refunds:      make(map[string]*big.Int),
		totalRevenue: big.NewInt(0),
		totalBurned:  big.NewInt(0),
		withdrawable: big.NewInt(0),
	}
}

func (a *Authority) minimum(slot billboard.Slot) *big.Int {
	if m, ok := a.cfg.MinimumBids[slot]; ok && m != nil {
		return m
	}
	return big.NewInt(0)
}

// highestFor returns the amount a new bid must beat for a slot right now.
func (a *Authority) highestFor(st *slotState, targetRound uint64) *big.Int {
	if a.cfg.Rules.Windowed {
		if st.candidate != nil && st.candidate.targetRound == targetRound {
			return st.candidate.ad.BidAmount
		}
		return nil
	}
	if st.occupant != nil {
		return st.occupant.BidAmount
	}
	return nil
}

// SubmitBid applies the window, minimum and outbid rules, then installs the
// bid as the slot's winner-elect (windowed) or occupant (always-open).
func (a *Authority) SubmitBid(ctx context.Context, bid billboard.BidRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	st, ok := a.slots[bid.Slot]
	if !ok {
		return "", authority.ErrInvalidSlot
	}
	t := a.now()
	if a.cfg.Rules.Windowed && !a.cfg.Schedule.BiddingOpen(t) {
		return "", authority.ErrWindowClosed
	}

	amount := billboard.ToBaseUnits(bid.Amount)
	if amount.Cmp(a.minimum(bid.Slot)) < 0 {
		return "", authority.ErrBidTooLow
	}

	target := a.cfg.Schedule.NextRoundID(t)

	// A candidate left over from an earlier window should have been settled
	// by a finalize call; settle it now rather than silently discarding the
	// round's winner.
	if a.cfg.Rules.Windowed && st.candidate != nil && st.candidate.targetRound < target {
		a.promote(st, st.candidate.targetRound)
	}

	if highest := a.highestFor(st, target); highest != nil {
		if !a.cfg.Rules.Beats(amount, highest) {
			return "", &authority.OutbidError{Highest: new(big.Int).Set(highest)}
		}
	}

	ad := billboard.Ad{
		Advertiser: bid.Advertiser,
		ImageURL:   bid.ImageURL,
		LinkURL:    bid.LinkURL,
		Title:      bid.Title,
		BidAmount:  amount,
		RoundID:    target,
	}

	if !a.cfg.Rules.Windowed {
		// Always-open variant: the bid takes the board immediately and the
		// displaced occupant is not refunded.
		st.occupant = &ad
		a.collect(amount)
		a.totalRounds++
		return a.txHash("bid", bid.Slot, bid.Advertiser, amount), nil
	}

	if st.candidate != nil && st.candidate.targetRound == target && a.cfg.Rules.RequireRefunds {
		a.credit(st.candidate.ad.Advertiser, st.candidate.ad.BidAmount)
	}
	st.candidate = &candidate{ad: ad, targetRound: target}
	return a.txHash("bid", bid.Slot, bid.Advertiser, amount), nil
}

// FinalizeRound settles the current round for a slot. Calling it again for a
// settled round returns ErrAlreadyFinalized, which callers treat as success.
func (a *Authority) FinalizeRound(ctx context.Context, slot billboard.Slot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	st, ok := a.slots[slot]
	if !ok {
		return "", authority.ErrInvalidSlot
	}
	cur := a.cfg.Schedule.CurrentRoundID(a.now())
	if st.lastFinalized >= cur {
		return "", authority.ErrAlreadyFinalized
	}
	if st.candidate != nil && st.candidate.targetRound <= cur {
		a.promote(st, cur)
	}
	st.lastFinalized = cur
	return a.txHash("finalize", slot, "", big.NewInt(int64(cur))), nil
}

// promote installs the winner-elect as occupant and collects its bid.
// Caller holds the lock.
func (a *Authority) promote(st *slotState, roundID uint64) {
	ad := st.candidate.ad
	ad.RoundID = roundID
	st.occupant = &ad
	st.candidate = nil
	if st.lastFinalized < roundID {
		st.lastFinalized = roundID
	}
	a.collect(ad.BidAmount)
	a.totalRounds++
}

func (a *Authority) collect(amount *big.Int) {
	a.totalRevenue.Add(a.totalRevenue, amount)
	a.withdrawable.Add(a.withdrawable, amount)
}

func (a *Authority) credit(address string, amount *big.Int) {
	key := strings.ToLower(address)
	cur, ok := a.refunds[key]
	if !ok {
		cur = big.NewInt(0)
		a.refunds[key] = cur
	}
	cur.Add(cur, amount)
}

// ReadAllSlots returns every slot's occupant view at the current time.
func (a *Authority) ReadAllSlots(ctx context.Context) ([]billboard.SlotState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	t := a.now()
	cur := a.cfg.Schedule.CurrentRoundID(t)
	out := make([]billboard.SlotState, 0, len(billboard.AllSlots()))
	for _, slot := range billboard.AllSlots() {
		st := a.slots[slot]
		view := billboard.SlotState{
			Slot:       slot,
			MinimumBid: new(big.Int).Set(a.minimum(slot)),
		}
		if st.occupant != nil {
			view.Ad = *st.occupant
			if a.cfg.Rules.Windowed {
				view.Active = st.occupant.RoundID == cur
				if view.Active {
					view.TimeRemaining = a.cfg.Schedule.TimeUntilNextRound(t)
				}
			} else {
				view.Active = true
			}
		}
		out = append(out, view)
	}
	return out, nil
}

// ReadBiddingStatus returns the window view plus leading bids per slot.
func (a *Authority) ReadBiddingStatus(ctx context.Context) (billboard.BiddingStatus, error) {
	if err := ctx.Err(); err != nil {
		return billboard.BiddingStatus{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	t := a.now()
	status := a.cfg.Schedule.Status(t)
	status.HighestBids = make(map[billboard.Slot]billboard.HighestBid)
	target := a.cfg.Schedule.NextRoundID(t)
	for _, slot := range billboard.AllSlots() {
		if highest := a.highestFor(a.slots[slot], target); highest != nil {
			bidder := ""
			st := a.slots[slot]
			if a.cfg.Rules.Windowed && st.candidate != nil {
				bidder = st.candidate.ad.Advertiser
			} else if st.occupant != nil {
				bidder = st.occupant.Advertiser
			}
			status.HighestBids[slot] = billboard.HighestBid{
				Amount: new(big.Int).Set(highest),
				Bidder: bidder,
			}
		}
	}
	return status, nil
}

// ReadStats returns cumulative totals.
func (a *Authority) ReadStats(ctx context.Context) (billboard.Stats, error) {
	if err := ctx.Err(); err != nil {
		return billboard.Stats{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return billboard.Stats{
		TotalRevenue: new(big.Int).Set(a.totalRevenue),
		TotalBurned:  new(big.Int).Set(a.totalBurned),
		TotalRounds:  a.totalRounds,
	}, nil
}

// ReadMinimumBid returns the slot's fixed minimum.
func (a *Authority) ReadMinimumBid(ctx context.Context, slot billboard.Slot) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !slot.Valid() {
		return nil, authority.ErrInvalidSlot
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return new(big.Int).Set(a.minimum(slot)), nil
}

// ReadPendingRefund returns the balance owed to an address.
func (a *Authority) ReadPendingRefund(ctx context.Context, address string) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if cur, ok := a.refunds[strings.ToLower(address)]; ok {
		return new(big.Int).Set(cur), nil
	}
	return big.NewInt(0), nil
}

// ReadLastFinalizedRound returns the most recent settled round for a slot.
func (a *Authority) ReadLastFinalizedRound(ctx context.Context, slot billboard.Slot) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	st, ok := a.slots[slot]
	if !ok {
		return 0, authority.ErrInvalidSlot
	}
	return st.lastFinalized, nil
}

// WithdrawRevenue drains the withdrawable balance.
func (a *Authority) WithdrawRevenue(ctx context.Context, to string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	amount := new(big.Int).Set(a.withdrawable)
	a.withdrawable.SetInt64(0)
	return a.txHash("withdraw", 0, to, amount), nil
}

// RecordBurn adds a completed burn to the lifetime counter.
func (a *Authority) RecordBurn(ctx context.Context, amount *big.Int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalBurned.Add(a.totalBurned, amount)
	return a.txHash("burn", 0, "", amount), nil
}

// txHash fabricates a deterministic-looking transaction hash so callers get
// the same shape the chain adapter returns. Caller holds the lock.
func (a *Authority) txHash(op string, slot billboard.Slot, who string, amount *big.Int) string {
	a.nonce++
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s|%s|%d", op, slot, who, amount, a.nonce)))
	return "0x" + hex.EncodeToString(sum[:])
}
