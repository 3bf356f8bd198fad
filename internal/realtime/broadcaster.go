package realtime

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/billboard-mafia/backend/internal/status"
)

// Broadcaster periodically reads the status snapshot and pushes it to the
// hub. It reads through the same cached reader the HTTP route uses, so the
// push channel adds no extra authority load.
type Broadcaster struct {
	hub    *Hub
	reader *status.Reader
	period time.Duration
	logger *zap.Logger
}

// NewBroadcaster creates a broadcaster with the given refresh period.
func NewBroadcaster(hub *Hub, reader *status.Reader, period time.Duration, logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{hub: hub, reader: reader, period: period, logger: logger}
}

// Run loops until the context is canceled. Read failures are logged and the
// next tick retries; clients keep their last snapshot meanwhile.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if b.hub.ClientCount() == 0 {
				continue
			}
			snap, err := b.reader.Read(ctx)
			if err != nil {
				b.logger.Warn("status broadcast read", zap.Error(err))
				continue
			}
			payload, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			b.hub.Broadcast("status", payload)
		}
	}
}
