package server

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Run drives the simulation until ctx is done. Ticks and broadcasts run on
// independent tickers but on this one goroutine, so a broadcast never sees a
// half-applied tick. Level changes are applied between ticks. Broadcasts
// only queue frames; each client has its own writer goroutine.
func (h *Hub) Run(ctx context.Context) error {
	tick := time.NewTicker(time.Second / time.Duration(h.tickHz))
	defer tick.Stop()
	broadcast := time.NewTicker(time.Second / time.Duration(h.broadcastHz))
	defer broadcast.Stop()

	var (
		reloads   <-chan string
		watchErrs <-chan error
	)
	if h.watcher != nil {
		reloads = h.watcher.Events
		watchErrs = h.watcher.Errors
	}

	h.log.Info("game loop started", zap.Int("tick_hz", h.tickHz), zap.Int("broadcast_hz", h.broadcastHz))
	for {
		select {
		case <-ctx.Done():
			h.log.Info("game loop stopped")
			return nil
		case <-tick.C:
			h.engine.Tick()
		case <-broadcast.C:
			h.BroadcastState()
		case next := <-h.transitions:
			if err := h.ChangeLevel(next); err != nil {
				h.log.Error("level transition failed", zap.String("level", next), zap.Error(err))
			}
		case name, ok := <-reloads:
			if !ok {
				reloads = nil
				continue
			}
			h.reload(name)
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			h.log.Warn("level watcher", zap.Error(err))
		}
	}
}
