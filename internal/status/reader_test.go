package status

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billboard-mafia/backend/internal/authority/memory"
	"github.com/billboard-mafia/backend/internal/billboard"
)

func newSeededAuthority(t *testing.T) *memory.Authority {
	t.Helper()
	base := time.Unix(500*12*3600, 0)
	now := base.Add(-10 * time.Minute) // window open
	auth := memory.New(memory.Config{
		Schedule: billboard.Schedule{
			RoundDuration: 12 * time.Hour,
			BiddingWindow: 30 * time.Minute,
			Windowed:      true,
		},
		Rules: billboard.Rules{Windowed: true, RequireRefunds: true},
		MinimumBids: map[billboard.Slot]*big.Int{
			billboard.SlotMain:      billboard.ToBaseUnits(billboard.USD(10)),
			billboard.SlotSecondary: billboard.ToBaseUnits(billboard.USD(1)),
		},
		Now: func() time.Time { return now },
	})
	_, err := auth.SubmitBid(context.Background(), billboard.BidRequest{
		Slot:       billboard.SlotMain,
		Advertiser: "0x1111111111111111111111111111111111111111",
		ImageURL:   "ipfs://img",
		Title:      "Ad",
		Amount:     billboard.USD(25),
	})
	require.NoError(t, err)
	return auth
}

func TestReadAssemblesSnapshot(t *testing.T) {
	auth := newSeededAuthority(t)
	reader := NewReader(auth, nil, 0, nil)

	snap, err := reader.Read(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Slots, 2)
	main := snap.Slots[billboard.SlotMain.Name()]
	assert.Equal(t, 0, main.Slot)
	assert.Equal(t, float64(10), main.MinimumBid)
	assert.False(t, main.IsActive, "candidate bids do not occupy the slot before finalization")

	assert.True(t, snap.Bidding.BiddingOpen)
	assert.Equal(t, uint64(499), snap.Bidding.CurrentRoundID)
	assert.Equal(t, uint64(500), snap.Bidding.NextRoundID)
	hb, ok := snap.Bidding.HighestBids[billboard.SlotMain.Name()]
	require.True(t, ok)
	assert.Equal(t, float64(25), hb.Amount)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", hb.Bidder)
}

// failingAuthority wraps the memory adapter and breaks one read.
type failingAuthority struct {
	*memory.Authority
}

func (f failingAuthority) ReadStats(context.Context) (billboard.Stats, error) {
	return billboard.Stats{}, errors.New("rpc timeout")
}

func TestReadFailsWhenAnyReadFails(t *testing.T) {
	auth := failingAuthority{newSeededAuthority(t)}
	reader := NewReader(auth, nil, 0, nil)

	snap, err := reader.Read(context.Background())
	assert.Nil(t, snap)
	assert.Error(t, err, "a partial snapshot is worse than a retry")
}

// mapCache is an in-process SnapshotCache for tests.
type mapCache struct {
	mu      sync.Mutex
	payload []byte
	sets    int
}

func (c *mapCache) GetSnapshot(context.Context) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.payload == nil {
		return nil, false
	}
	return c.payload, true
}

func (c *mapCache) SetSnapshot(_ context.Context, payload []byte, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payload = payload
	c.sets++
}

func TestReadServesFromCache(t *testing.T) {
	auth := newSeededAuthority(t)
	cache := &mapCache{}
	reader := NewReader(auth, cache, 5*time.Second, nil)

	first, err := reader.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	// Break the authority; the second read must still succeed via cache.
	cachedReader := NewReader(failingAuthority{auth}, cache, 5*time.Second, nil)
	second, err := cachedReader.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Bidding.CurrentRoundID, second.Bidding.CurrentRoundID)
	assert.Equal(t, 1, cache.sets, "cache hit must not rewrite the entry")
}
