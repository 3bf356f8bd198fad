package billboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchedule() Schedule {
	return Schedule{
		RoundDuration: 12 * time.Hour,
		BiddingWindow: 30 * time.Minute,
		Windowed:      true,
	}
}

func TestCurrentRoundIDIsDeterministic(t *testing.T) {
	s := testSchedule()
	at := time.Unix(100*12*3600+5, 0)
	assert.Equal(t, uint64(100), s.CurrentRoundID(at))
	assert.Equal(t, uint64(101), s.NextRoundID(at))
	// Same instant, same answer.
	assert.Equal(t, s.CurrentRoundID(at), s.CurrentRoundID(at))
}

func TestRoundIDStraddlesBoundary(t *testing.T) {
	s := testSchedule()
	boundary := time.Unix(200*12*3600, 0)
	assert.Equal(t, uint64(199), s.CurrentRoundID(boundary.Add(-time.Second)))
	assert.Equal(t, uint64(200), s.CurrentRoundID(boundary))
}

func TestBiddingWindow(t *testing.T) {
	s := testSchedule()
	boundary := time.Unix(50*12*3600, 0)

	// 45 minutes before the boundary: closed, opens in 15 minutes.
	at := boundary.Add(-45 * time.Minute)
	assert.False(t, s.BiddingOpen(at))
	assert.Equal(t, uint64(15*60), s.TimeUntilBiddingOpens(at))

	// 10 minutes before the boundary: open.
	at = boundary.Add(-10 * time.Minute)
	assert.True(t, s.BiddingOpen(at))
	assert.Equal(t, uint64(0), s.TimeUntilBiddingOpens(at))
	assert.Equal(t, uint64(10*60), s.TimeUntilNextRound(at))

	// Exactly at the window edge: open.
	at = boundary.Add(-30 * time.Minute)
	assert.True(t, s.BiddingOpen(at))
}

func TestAlwaysOpenVariant(t *testing.T) {
	s := testSchedule()
	s.Windowed = false
	at := time.Unix(50*12*3600, 0).Add(-6 * time.Hour)
	assert.True(t, s.BiddingOpen(at))
	assert.Equal(t, uint64(0), s.TimeUntilBiddingOpens(at))
}

func TestStatus(t *testing.T) {
	s := testSchedule()
	at := time.Unix(77*12*3600, 0).Add(-20 * time.Minute)
	st := s.Status(at)
	require.True(t, st.BiddingOpen)
	assert.Equal(t, uint64(76), st.CurrentRoundID)
	assert.Equal(t, uint64(77), st.NextRoundID)
	assert.Equal(t, uint64(0), st.TimeUntilBidding)
	assert.Equal(t, uint64(20*60), st.TimeUntilNextRound)
}
