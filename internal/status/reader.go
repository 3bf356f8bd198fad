// Package status aggregates authority reads into the snapshot the frontend
// polls. Slot data, bidding-window state and lifetime stats are independent
// views fetched concurrently; one failed read fails the whole snapshot since
// the reads are idempotent and the client simply retries.
package status

import (
	"context"
	"encoding/json"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/billboard-mafia/backend/internal/authority"
	"github.com/billboard-mafia/backend/internal/billboard"
)

// SlotView is one slot in the snapshot. Amounts are decimal USD.
type SlotView struct {
	Slot          int     `json:"slot"`
	Advertiser    string  `json:"advertiser"`
	ImageURL      string  `json:"imageUrl"`
	LinkURL       string  `json:"linkUrl"`
	Title         string  `json:"title"`
	BidAmount     float64 `json:"bidAmount"`
	TimeRemaining uint64  `json:"timeRemaining"`
	IsActive      bool    `json:"isActive"`
	MinimumBid    float64 `json:"minimumBid"`
}

// HighestView is the leading bid for a slot during an open window.
type HighestView struct {
	Amount float64 `json:"amount"`
	Bidder string  `json:"bidder"`
}

// BiddingView is the window block of the snapshot.
type BiddingView struct {
	BiddingOpen        bool                   `json:"biddingOpen"`
	CurrentRoundID     uint64                 `json:"currentRoundId"`
	NextRoundID        uint64                 `json:"nextRoundId"`
	TimeUntilBidding   uint64                 `json:"timeUntilBidding"`
	TimeUntilNextRound uint64                 `json:"timeUntilNextRound"`
	HighestBids        map[string]HighestView `json:"highestBids"`
}

// StatsView is the totals block of the snapshot.
type StatsView struct {
	TotalRevenue float64 `json:"totalRevenue"`
	TotalBurned  float64 `json:"totalBurned"`
	TotalAds     uint64  `json:"totalAds"`
}

// Snapshot is the full GET /bid response.
type Snapshot struct {
	Slots   map[string]SlotView `json:"slots"`
	Bidding BiddingView         `json:"bidding"`
	Stats   StatsView           `json:"stats"`
}

// SnapshotCache stores a serialized snapshot for a short TTL. Implemented by
// pkg/redis; nil disables caching.
type SnapshotCache interface {
	GetSnapshot(ctx context.Context) ([]byte, bool)
	SetSnapshot(ctx context.Context, payload []byte, ttl time.Duration)
}

// Reader builds snapshots from the authority, optionally through a cache.
type Reader struct {
	auth   authority.Authority
	cache  SnapshotCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewReader creates a snapshot reader. cache may be nil.
func NewReader(auth authority.Authority, cache SnapshotCache, ttl time.Duration, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{auth: auth, cache: cache, ttl: ttl, logger: logger}
}

// Read returns the current snapshot, serving from cache when fresh.
func (r *Reader) Read(ctx context.Context) (*Snapshot, error) {
	if r.cache != nil && r.ttl > 0 {
		if payload, ok := r.cache.GetSnapshot(ctx); ok {
			var snap Snapshot
			if err := json.Unmarshal(payload, &snap); err == nil {
				return &snap, nil
			}
		}
	}

	snap, err := r.readFresh(ctx)
	if err != nil {
		return nil, err
	}

	if r.cache != nil && r.ttl > 0 {
		if payload, err := json.Marshal(snap); err == nil {
			r.cache.SetSnapshot(ctx, payload, r.ttl)
		}
	}
	return snap, nil
}

// readFresh fans out the three independent reads and assembles the snapshot.
func (r *Reader) readFresh(ctx context.Context) (*Snapshot, error) {
	var (
		slots   []billboard.SlotState
		bidding billboard.BiddingStatus
		stats   billboard.Stats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		slots, err = r.auth.ReadAllSlots(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		bidding, err = r.auth.ReadBiddingStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = r.auth.ReadStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Slots: make(map[string]SlotView, len(slots)),
		Bidding: BiddingView{
			BiddingOpen:        bidding.BiddingOpen,
			CurrentRoundID:     bidding.CurrentRoundID,
			NextRoundID:        bidding.NextRoundID,
			TimeUntilBidding:   bidding.TimeUntilBidding,
			TimeUntilNextRound: bidding.TimeUntilNextRound,
			HighestBids:        make(map[string]HighestView, len(bidding.HighestBids)),
		},
		Stats: StatsView{
			TotalRevenue: usd(stats.TotalRevenue),
			TotalBurned:  tokens(stats.TotalBurned),
			TotalAds:     stats.TotalRounds,
		},
	}
	for _, st := range slots {
		snap.Slots[st.Slot.Name()] = SlotView{
			Slot:          int(st.Slot),
			Advertiser:    st.Ad.Advertiser,
			ImageURL:      st.Ad.ImageURL,
			LinkURL:       st.Ad.LinkURL,
			Title:         st.Ad.Title,
			BidAmount:     usd(st.Ad.BidAmount),
			TimeRemaining: st.TimeRemaining,
			IsActive:      st.Active,
			MinimumBid:    usd(st.MinimumBid),
		}
	}
	for slot, hb := range bidding.HighestBids {
		snap.Bidding.HighestBids[slot.Name()] = HighestView{
			Amount: usd(hb.Amount),
			Bidder: hb.Bidder,
		}
	}
	return snap, nil
}

func usd(units *big.Int) float64 {
	f, _ := billboard.FromBaseUnits(units).Float64()
	return f
}

// tokens converts an 18-decimal $BB amount to whole tokens.
func tokens(units *big.Int) float64 {
	if units == nil {
		return 0
	}
	f, _ := decimal.NewFromBigInt(units, -18).Float64()
	return f
}
