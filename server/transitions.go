package server

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ChangeLevel loads name from the store, swaps it into the engine and sends
// the new descriptor to every client. On error the current level stays.
func (h *Hub) ChangeLevel(name string) error {
	if h.store == nil {
		return eris.New("no level store configured")
	}
	lvl, _, err := h.store.Load(name)
	if err != nil {
		return eris.Wrapf(err, "load level %q", name)
	}
	// the engine re-runs repair, so its warnings are the full set
	warnings, err := h.engine.LoadLevel(lvl)
	if err != nil {
		return eris.Wrapf(err, "apply level %q", name)
	}
	h.log.Info("level changed", zap.String("level", name), zap.Int("warnings", len(warnings)))

	if payload, ok := h.levelPayload(); ok {
		h.broadcast(MsgLevel, payload)
	}
	h.BroadcastState()
	return nil
}

func (h *Hub) reload(name string) {
	if name != h.engine.LevelName() {
		return
	}
	h.log.Info("level file changed, reloading", zap.String("level", name))
	if err := h.ChangeLevel(name); err != nil {
		h.log.Error("level reload failed", zap.String("level", name), zap.Error(err))
	}
}
