package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

type health struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
	Tick    uint64 `json:"tick"`
	Level   string `json:"level"`
	Players int    `json:"players"`
	Bodies  int    `json:"bodies"`
}

// Routes serves the websocket endpoint, a health check and the level list.
func (h *Hub) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleWS)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("GET /levels", h.handleLevels)
	return mux
}

func (h *Hub) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := h.engine.Stats()
	h.writeJSON(w, health{
		Status:  "ok",
		Clients: h.ClientCount(),
		Tick:    st.Tick,
		Level:   st.Level,
		Players: st.Players,
		Bodies:  st.Bodies,
	})
}

func (h *Hub) handleLevels(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeJSON(w, []string{})
		return
	}
	names, err := h.store.List()
	if err != nil {
		h.log.Error("list levels", zap.Error(err))
		http.Error(w, "list levels failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, names)
}

func (h *Hub) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Debug("write response", zap.Error(err))
	}
}
