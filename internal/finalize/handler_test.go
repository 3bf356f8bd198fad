package finalize

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billboard-mafia/backend/internal/authority/memory"
	"github.com/billboard-mafia/backend/internal/billboard"
)

type testEnv struct {
	router *gin.Engine
	auth   *memory.Authority
	now    *time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	// Ten minutes before round 200 begins: window open.
	now := time.Unix(200*12*3600, 0).Add(-10 * time.Minute)
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
	h := NewHandler(NewRunner(auth, nil, nil), nil)
	r := gin.New()
	r.POST("/finalize", h.Finalize)
	r.GET("/finalize", h.CheckFinalization)
	return &testEnv{router: r, auth: auth, now: &now}
}

func (e *testEnv) post(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/finalize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeResults(t *testing.T, w *httptest.ResponseRecorder) []Result {
	t.Helper()
	var body struct {
		Results []Result `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Results
}

func TestFinalizeAllSlotsWithEmptyBody(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.SubmitBid(context.Background(), billboard.BidRequest{
		Slot:       billboard.SlotMain,
		Advertiser: "0x1111111111111111111111111111111111111111",
		ImageURL:   "ipfs://img",
		Title:      "Ad",
		Amount:     billboard.USD(25),
	})
	require.NoError(t, err)
	*env.now = env.now.Add(time.Hour) // round 200 has begun

	w := env.post(t, "")
	require.Equal(t, http.StatusOK, w.Code)
	results := decodeResults(t, w)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.True(t, res.Success)
	}
	assert.NotEmpty(t, results[0].Hash, "settled slot reports its transaction")
}

func TestFinalizeSingleSlot(t *testing.T) {
	env := newTestEnv(t)
	*env.now = env.now.Add(time.Hour)

	w := env.post(t, `{"slot":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	results := decodeResults(t, w)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Slot)
	assert.True(t, results[0].Success)
}

func TestFinalizeInvalidSlot(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, `{"slot":7}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid slot. Use 0 (main) or 1 (secondary)")
}

func TestFinalizeTwiceReportsAlreadyFinalized(t *testing.T) {
	env := newTestEnv(t)
	*env.now = env.now.Add(time.Hour)

	first := decodeResults(t, env.post(t, `{"slot":0}`))
	require.True(t, first[0].Success)

	second := decodeResults(t, env.post(t, `{"slot":0}`))
	require.Len(t, second, 1)
	assert.True(t, second[0].Success, "a settled round is success-with-no-effect")
	assert.Equal(t, "Already finalized", second[0].Error)
	assert.Empty(t, second[0].Hash)
}

func TestCheckFinalization(t *testing.T) {
	env := newTestEnv(t)
	*env.now = env.now.Add(time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/finalize", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		CurrentRoundID uint64                `json:"currentRoundId"`
		Slots          map[string]SlotStatus `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, uint64(200), body.CurrentRoundID)
	require.Len(t, body.Slots, 2)
	for _, st := range body.Slots {
		assert.True(t, st.NeedsFinalization)
	}

	// Settle both slots, then the check must report nothing due.
	env.post(t, "")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	for _, st := range body.Slots {
		assert.Equal(t, uint64(200), st.LastFinalized)
		assert.False(t, st.NeedsFinalization)
	}
}
