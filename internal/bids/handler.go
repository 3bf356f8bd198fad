// Package bids is the gateway between HTTP bidders and the auction
// authority: local validation first, then a custodial placeBidFor relay.
// Validation failures never reach the chain.
package bids

import (
	"errors"
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/billboard-mafia/backend/internal/audit"
	"github.com/billboard-mafia/backend/internal/authority"
	"github.com/billboard-mafia/backend/internal/billboard"
	"github.com/billboard-mafia/backend/internal/status"
	"github.com/billboard-mafia/backend/pkg/response"
)

// MaxTitleLength bounds the ad title, matching the contract.
const MaxTitleLength = 100

// placeBidRequest is the POST /bid body. Pointer fields distinguish a missing
// value from a zero one.
type placeBidRequest struct {
	Slot       *int     `json:"slot"`
	Advertiser string   `json:"advertiser"`
	ImageURL   string   `json:"imageUrl"`
	LinkURL    string   `json:"linkUrl"`
	Title      string   `json:"title"`
	BidAmount  *float64 `json:"bidAmount"`
}

// Handler serves POST /bid and GET /bid.
type Handler struct {
	auth     authority.Authority
	reader   *status.Reader
	minimums map[billboard.Slot]decimal.Decimal // whole-USD minimums, known statically
	audit    *audit.Recorder
	logger   *zap.Logger
}

// NewHandler creates a bid gateway.
func NewHandler(auth authority.Authority, reader *status.Reader, minimums map[billboard.Slot]decimal.Decimal, auditRec *audit.Recorder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{auth: auth, reader: reader, minimums: minimums, audit: auditRec, logger: logger}
}

// PlaceBid handles POST /bid: validate locally, relay to the authority on
// behalf of the advertiser, return the transaction hash.
func (h *Handler) PlaceBid(c *gin.Context) {
	var req placeBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	slot := billboard.SlotMain
	if req.Slot != nil {
		slot = billboard.Slot(*req.Slot)
	}
	if !slot.Valid() {
		response.BadRequest(c, "Invalid slot. Use 0 (main) or 1 (secondary)")
		return
	}
	if req.Advertiser == "" || !ethcommon.IsHexAddress(req.Advertiser) {
		response.BadRequest(c, "Invalid advertiser address")
		return
	}
	if req.ImageURL == "" {
		response.BadRequest(c, "Image URL required")
		return
	}
	if req.Title == "" || len(req.Title) > MaxTitleLength {
		response.BadRequest(c, "Title required (max 100 chars)")
		return
	}
	minimum := h.minimums[slot]
	if req.BidAmount == nil || *req.BidAmount <= 0 {
		response.BadRequest(c, fmt.Sprintf("Bid must be at least $%s for this slot", minimum.String()))
		return
	}
	amount := decimal.NewFromFloat(*req.BidAmount)
	if amount.LessThan(minimum) {
		response.BadRequest(c, fmt.Sprintf("Bid must be at least $%s for this slot", minimum.String()))
		return
	}

	bid := billboard.BidRequest{
		Slot:       slot,
		Advertiser: req.Advertiser,
		ImageURL:   req.ImageURL,
		LinkURL:    req.LinkURL,
		Title:      req.Title,
		Amount:     amount,
	}
	hash, err := h.auth.SubmitBid(c.Request.Context(), bid)
	if err != nil {
		h.rejectBid(c, bid, err)
		return
	}

	h.audit.Record(c.Request.Context(), audit.Entry{
		Kind:       "bid",
		Slot:       int(slot),
		Advertiser: bid.Advertiser,
		AmountUSD:  amount.String(),
		TxHash:     hash,
		Outcome:    "ok",
	})
	response.OK(c, gin.H{"success": true, "transactionHash": hash})
}

// rejectBid maps authority failures to caller-facing errors. Raw upstream
// text stays in the logs.
func (h *Handler) rejectBid(c *gin.Context, bid billboard.BidRequest, err error) {
	outcome, detail := "rejected", err.Error()
	defer func() {
		h.audit.Record(c.Request.Context(), audit.Entry{
			Kind:       "bid",
			Slot:       int(bid.Slot),
			Advertiser: bid.Advertiser,
			AmountUSD:  bid.Amount.String(),
			Outcome:    outcome,
			Detail:     detail,
		})
	}()

	switch {
	case errors.Is(err, authority.ErrWindowClosed):
		response.BadRequest(c, "Bidding window is closed")
	case errors.Is(err, authority.ErrBidTooLow):
		response.BadRequest(c, "Bid below minimum for slot")
	case errors.Is(err, authority.ErrNotAuthorized):
		outcome = "failed"
		h.logger.Error("custodial signer not authorized", zap.Int("slot", int(bid.Slot)))
		response.Internal(c, "Server not authorized")
	default:
		if oe, ok := authority.AsOutbid(err); ok {
			if oe.Highest != nil {
				response.BadRequest(c, fmt.Sprintf("Bid must be higher than current highest: $%s", billboard.FormatUSD(oe.Highest)))
			} else {
				response.BadRequest(c, "Bid must be higher than current highest")
			}
			return
		}
		outcome = "failed"
		h.logger.Error("place bid failed",
			zap.Error(err),
			zap.Int("slot", int(bid.Slot)),
			zap.String("advertiser", bid.Advertiser),
		)
		response.Internal(c, "Failed to place bid")
	}
}

// GetBillboard handles GET /bid: the aggregated snapshot.
func (h *Handler) GetBillboard(c *gin.Context) {
	snap, err := h.reader.Read(c.Request.Context())
	if err != nil {
		h.logger.Error("read status snapshot", zap.Error(err))
		response.Internal(c, "Failed to get billboard info")
		return
	}
	response.OK(c, snap)
}
