package refunds

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billboard-mafia/backend/internal/authority/memory"
	"github.com/billboard-mafia/backend/internal/billboard"
)

const (
	contractAddr = "0xCCC0000000000000000000000000000000000003"
	loserAddr    = "0x1111111111111111111111111111111111111111"
	winnerAddr   = "0x2222222222222222222222222222222222222222"
)

func newTestRouter(t *testing.T) (*gin.Engine, *memory.Authority) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	now := time.Unix(300*12*3600, 0).Add(-10 * time.Minute)
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
	h := NewHandler(auth, contractAddr, nil)
	r := gin.New()
	r.GET("/refund", h.GetRefund)
	r.POST("/refund", h.ClaimRefund)
	return r, auth
}

func get(t *testing.T, r *gin.Engine, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetRefundInvalidAddress(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, url := range []string{"/refund", "/refund?address=banana"} {
		w := get(t, r, url)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid address")
	}
}

func TestGetRefundZeroBalance(t *testing.T) {
	r, _ := newTestRouter(t)

	w := get(t, r, "/refund?address="+loserAddr)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Address          string  `json:"address"`
		PendingRefund    float64 `json:"pendingRefund"`
		PendingRefundRaw string  `json:"pendingRefundRaw"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, loserAddr, body.Address)
	assert.Zero(t, body.PendingRefund)
	assert.Equal(t, "0", body.PendingRefundRaw)
}

func TestGetRefundAfterBeingOutbid(t *testing.T) {
	r, auth := newTestRouter(t)

	submit := func(addr string, usd int64) {
		_, err := auth.SubmitBid(context.Background(), billboard.BidRequest{
			Slot:       billboard.SlotMain,
			Advertiser: addr,
			ImageURL:   "ipfs://img",
			Title:      "Ad",
			Amount:     billboard.USD(usd),
		})
		require.NoError(t, err)
	}
	submit(loserAddr, 20)
	submit(winnerAddr, 30) // supersedes, crediting the loser

	w := get(t, r, "/refund?address="+loserAddr)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		PendingRefund    float64 `json:"pendingRefund"`
		PendingRefundRaw string  `json:"pendingRefundRaw"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(20), body.PendingRefund)
	assert.Equal(t, "20000000", body.PendingRefundRaw)

	// The winner has nothing refundable.
	w = get(t, r, "/refund?address="+winnerAddr)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pendingRefund":0`)
}

func TestClaimRefundIsOnChainOnly(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/refund", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Error    string `json:"error"`
		Contract string `json:"contract"`
		Method   string `json:"method"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "claimed directly on-chain")
	assert.Equal(t, contractAddr, body.Contract)
	assert.Equal(t, "claimRefund()", body.Method)
}
