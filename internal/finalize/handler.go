package finalize

import (
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"

	"github.com/billboard-mafia/backend/internal/billboard"
	"github.com/billboard-mafia/backend/pkg/response"
)

// finalizeRequest is the POST /finalize body; slot omitted means all slots.
type finalizeRequest struct {
	Slot *int `json:"slot"`
}

// Handler serves POST /finalize and GET /finalize.
type Handler struct {
	runner *Runner
	logger *zap.Logger
}

// NewHandler creates a finalize handler.
func NewHandler(runner *Runner, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{runner: runner, logger: logger}
}

// Finalize handles POST /finalize. The body is optional; an empty or absent
// body finalizes every slot, matching how cron invokes it.
func (h *Handler) Finalize(c *gin.Context) {
	var req finalizeRequest
	_ = c.ShouldBindJSON(&req) // tolerate an empty body

	var slots []billboard.Slot
	if req.Slot != nil {
		slot := billboard.Slot(*req.Slot)
		if !slot.Valid() {
			response.BadRequest(c, "Invalid slot. Use 0 (main) or 1 (secondary)")
			return
		}
		slots = []billboard.Slot{slot}
	} else {
		slots = billboard.AllSlots()
	}

	results := h.runner.Run(c.Request.Context(), slots)
	response.OK(c, gin.H{"results": results})
}

// CheckFinalization handles GET /finalize.
func (h *Handler) CheckFinalization(c *gin.Context) {
	currentRoundID, slots, err := h.runner.Check(c.Request.Context())
	if err != nil {
		h.logger.Error("check finalization", zap.Error(err))
		response.Internal(c, "Failed to check finalization status")
		return
	}
	response.OK(c, gin.H{
		"currentRoundId": currentRoundID,
		"slots":          slots,
	})
}
