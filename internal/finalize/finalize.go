// Package finalize triggers round settlement on the authority. Finalization
// is idempotent on the contract side; a retry on a settled round reports
// success-with-no-effect so redundant schedulers never see errors.
package finalize

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/billboard-mafia/backend/internal/audit"
	"github.com/billboard-mafia/backend/internal/authority"
	"github.com/billboard-mafia/backend/internal/billboard"
)

// Result is one slot's finalization outcome.
type Result struct {
	Slot    int    `json:"slot"`
	Success bool   `json:"success"`
	Hash    string `json:"hash,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Runner finalizes rounds; shared by the HTTP handler and cmd/finalizer.
type Runner struct {
	auth   authority.Authority
	audit  *audit.Recorder
	logger *zap.Logger
}

// NewRunner creates a finalization runner.
func NewRunner(auth authority.Authority, auditRec *audit.Recorder, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{auth: auth, audit: auditRec, logger: logger}
}

// Run finalizes each slot independently. One slot's failure never aborts the
// others; partial failure is a normal outcome reported per slot.
func (r *Runner) Run(ctx context.Context, slots []billboard.Slot) []Result {
	results := make([]Result, 0, len(slots))
	for _, slot := range slots {
		results = append(results, r.runOne(ctx, slot))
	}
	return results
}

func (r *Runner) runOne(ctx context.Context, slot billboard.Slot) Result {
	hash, err := r.auth.FinalizeRound(ctx, slot)
	switch {
	case err == nil:
		r.logger.Info("round finalized", zap.Int("slot", int(slot)), zap.String("tx", hash))
		r.audit.Record(ctx, audit.Entry{Kind: "finalize", Slot: int(slot), TxHash: hash, Outcome: "ok"})
		return Result{Slot: int(slot), Success: true, Hash: hash}
	case errors.Is(err, authority.ErrAlreadyFinalized):
		r.logger.Debug("round already finalized", zap.Int("slot", int(slot)))
		return Result{Slot: int(slot), Success: true, Error: "Already finalized"}
	default:
		r.logger.Error("finalize failed", zap.Error(err), zap.Int("slot", int(slot)))
		r.audit.Record(ctx, audit.Entry{Kind: "finalize", Slot: int(slot), Outcome: "failed", Detail: err.Error()})
		return Result{Slot: int(slot), Success: false, Error: "Finalization failed"}
	}
}

// SlotStatus is one slot's entry in the GET /finalize check.
type SlotStatus struct {
	LastFinalized     uint64 `json:"lastFinalized"`
	NeedsFinalization bool   `json:"needsFinalization"`
}

// Check reports which slots are due for finalization.
func (r *Runner) Check(ctx context.Context) (currentRoundID uint64, slots map[string]SlotStatus, err error) {
	bidding, err := r.auth.ReadBiddingStatus(ctx)
	if err != nil {
		return 0, nil, err
	}
	slots = make(map[string]SlotStatus, len(billboard.AllSlots()))
	for _, slot := range billboard.AllSlots() {
		last, err := r.auth.ReadLastFinalizedRound(ctx, slot)
		if err != nil {
			return 0, nil, err
		}
		slots[slot.Name()] = SlotStatus{
			LastFinalized:     last,
			NeedsFinalization: bidding.CurrentRoundID > last,
		}
	}
	return bidding.CurrentRoundID, slots, nil
}
