package billboard

import "time"

// Schedule derives round and bidding-window state from wall-clock time. Round
// identifiers are not persisted anywhere: round N covers
// [N*RoundDuration, (N+1)*RoundDuration), so the current and next ids are
// always computable from a timestamp. Bids placed during the window preceding
// a round boundary are for the round starting at that boundary.
type Schedule struct {
	RoundDuration time.Duration
	BiddingWindow time.Duration
	Windowed      bool // false = bids accepted at any time (always-open variant)
}

// DefaultSchedule matches the deployed contract: 12 hour rounds with a 30
// minute bidding window.
func DefaultSchedule() Schedule {
	return Schedule{
		RoundDuration: 12 * time.Hour,
		BiddingWindow: 30 * time.Minute,
		Windowed:      true,
	}
}

// CurrentRoundID returns floor(unix(t) / roundDuration).
func (s Schedule) CurrentRoundID(t time.Time) uint64 {
	return uint64(t.Unix() / int64(s.RoundDuration/time.Second))
}

// NextRoundID returns the id of the round after the one containing t.
func (s Schedule) NextRoundID(t time.Time) uint64 {
	return s.CurrentRoundID(t) + 1
}

// NextRoundStart returns the upcoming round boundary at or after t.
func (s Schedule) NextRoundStart(t time.Time) time.Time {
	return time.Unix(int64(s.NextRoundID(t))*int64(s.RoundDuration/time.Second), 0)
}

// TimeUntilNextRound returns the seconds from t to the next round boundary.
func (s Schedule) TimeUntilNextRound(t time.Time) uint64 {
	return uint64(s.NextRoundStart(t).Unix() - t.Unix())
}

// BiddingOpen reports whether t falls inside the pre-round bidding window.
func (s Schedule) BiddingOpen(t time.Time) bool {
	if !s.Windowed {
		return true
	}
	return s.TimeUntilNextRound(t) <= uint64(s.BiddingWindow/time.Second)
}

// TimeUntilBiddingOpens returns the seconds until the window opens, 0 while
// it is open.
func (s Schedule) TimeUntilBiddingOpens(t time.Time) uint64 {
	if s.BiddingOpen(t) {
		return 0
	}
	return s.TimeUntilNextRound(t) - uint64(s.BiddingWindow/time.Second)
}

// Status assembles the full bidding-window view at t.
func (s Schedule) Status(t time.Time) BiddingStatus {
	return BiddingStatus{
		BiddingOpen:        s.BiddingOpen(t),
		CurrentRoundID:     s.CurrentRoundID(t),
		NextRoundID:        s.NextRoundID(t),
		TimeUntilBidding:   s.TimeUntilBiddingOpens(t),
		TimeUntilNextRound: s.TimeUntilNextRound(t),
	}
}
