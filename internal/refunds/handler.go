// Package refunds reports pending refund balances. Claims are deliberately
// not proxied: a losing bidder calls claimRefund() on the contract itself, so
// the custodial signer never touches user funds on the way out.
package refunds

import (
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/billboard-mafia/backend/internal/authority"
	"github.com/billboard-mafia/backend/internal/billboard"
	"github.com/billboard-mafia/backend/pkg/response"
)

// Handler serves GET /refund and POST /refund.
type Handler struct {
	auth            authority.Authority
	contractAddress string
	logger          *zap.Logger
}

// NewHandler creates a refund handler.
func NewHandler(auth authority.Authority, contractAddress string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{auth: auth, contractAddress: contractAddress, logger: logger}
}

// GetRefund handles GET /refund?address=0x…
func (h *Handler) GetRefund(c *gin.Context) {
	address := c.Query("address")
	if address == "" || !ethcommon.IsHexAddress(address) {
		response.BadRequest(c, "Invalid address")
		return
	}

	pending, err := h.auth.ReadPendingRefund(c.Request.Context(), address)
	if err != nil {
		h.logger.Error("read pending refund", zap.Error(err), zap.String("address", address))
		response.Internal(c, "Failed to get refund info")
		return
	}

	usd, _ := billboard.FromBaseUnits(pending).Float64()
	response.OK(c, gin.H{
		"address":          address,
		"pendingRefund":    usd,
		"pendingRefundRaw": pending.String(),
	})
}

// ClaimRefund handles POST /refund: informational only, the claim must be
// made on-chain by the refund's owner.
func (h *Handler) ClaimRefund(c *gin.Context) {
	response.BadRequestPayload(c, gin.H{
		"error":    "Refunds must be claimed directly on-chain by calling claimRefund() on the contract",
		"contract": h.contractAddress,
		"method":   "claimRefund()",
	})
}
