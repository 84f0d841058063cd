// Package server exposes the engine to browsers over websockets. It owns the
// fixed-rate game loop, snapshot broadcast and level changes.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rotisserie/eris"
	uuid "github.com/satori/go.uuid"
	"go.uber.org/zap"

	"github.com/milk9111/tractorbeam/ecs/component"
	"github.com/milk9111/tractorbeam/engine"
	"github.com/milk9111/tractorbeam/levels"
)

type Options struct {
	Engine *engine.Engine
	Store  *levels.Store
	Logger *zap.Logger
	// Chat maps chat lines to emotes; nil disables chat emotes.
	Chat *ChatTrigger
	// Watcher, when set, reloads the current level whenever its file changes.
	Watcher        *levels.Watcher
	TickHz         int
	BroadcastHz    int
	AllowedOrigins []string
}

const (
	writeWait    = 10 * time.Second
	maxFrameSize = 64 << 10
	chatTimeout  = 50 * time.Millisecond
	// frames buffered per client before it counts as too slow to keep
	sendQueue = 32
)

var ErrSlowClient = eris.New("client send queue full")

type frame struct {
	frameType int
	data      []byte
}

type client struct {
	id       string
	username string
	conn     *websocket.Conn
	codec    Codec

	out       chan frame
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(id, username string, conn *websocket.Conn, codec Codec) *client {
	return &client{
		id:       id,
		username: username,
		conn:     conn,
		codec:    codec,
		out:      make(chan frame, sendQueue),
		done:     make(chan struct{}),
	}
}

// writeLoop is the only goroutine that writes to the socket.
func (c *client) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case f := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(f.frameType, f.data); err != nil {
				c.close()
				return
			}
		}
	}
}

// enqueue never blocks. It reports false when the client is closed or its
// queue is full.
func (c *client) enqueue(f frame) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- f:
		return true
	default:
		return false
	}
}

func (c *client) send(t string, payload any) error {
	frameType, data, err := c.codec.Encode(t, payload)
	if err != nil {
		return err
	}
	if !c.enqueue(frame{frameType, data}) {
		return ErrSlowClient
	}
	return nil
}

// close stops the writer and closes the socket, which ends the read loop.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

type Hub struct {
	engine   *engine.Engine
	store    *levels.Store
	log      *zap.Logger
	chat     *ChatTrigger
	watcher  *levels.Watcher
	upgrader websocket.Upgrader

	tickHz      int
	broadcastHz int

	// next level requested by a goal; drained by Run
	transitions chan string

	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub(opts Options) *Hub {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	tickHz := opts.TickHz
	if tickHz <= 0 {
		tickHz = 60
	}
	broadcastHz := opts.BroadcastHz
	if broadcastHz <= 0 {
		broadcastHz = 10
	}

	h := &Hub{
		engine:      opts.Engine,
		store:       opts.Store,
		log:         log,
		chat:        opts.Chat,
		watcher:     opts.Watcher,
		tickHz:      tickHz,
		broadcastHz: broadcastHz,
		transitions: make(chan string, 1),
		clients:     make(map[string]*client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}
	h.engine.OnLevelTransition(h.requestTransition)
	return h
}

// originChecker allows everything when no origins are configured. Requests
// without an Origin header come from non-browser clients and are allowed.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

func (h *Hub) requestTransition(next string) {
	select {
	case h.transitions <- next:
	default:
		h.log.Warn("level transition already pending", zap.String("level", next))
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS upgrades the request and serves one player until the socket
// closes. Query parameters: username, userId, codec (json or msgpack).
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	codec, err := CodecByName(q.Get("codec"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	conn.SetReadLimit(maxFrameSize)

	id := uuid.NewV4().String()
	username := q.Get("username")
	if username == "" {
		username = "guest-" + id[:4]
	}
	c := newClient(id, username, conn, codec)
	go c.writeLoop()

	player := h.engine.AddPlayer(id, username, q.Get("userId"))
	h.mu.Lock()
	h.clients[id] = c
	h.mu.Unlock()
	h.log.Info("client connected", zap.String("player", id), zap.String("username", username), zap.String("codec", codec.Name()))

	defer h.disconnect(c)

	welcome := Welcome{ID: id, Player: player, Codec: codec.Name(), TickHz: h.tickHz, BroadcastHz: h.broadcastHz}
	if err := c.send(MsgWelcome, welcome); err != nil {
		return
	}
	if payload, ok := h.levelPayload(); ok {
		if err := c.send(MsgLevel, payload); err != nil {
			return
		}
	}
	if err := c.send(MsgState, h.engine.Snapshot()); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.handleMessage(r.Context(), c, data)
	}
}

func (h *Hub) handleMessage(ctx context.Context, c *client, data []byte) {
	env, err := DecodeEnvelope(data)
	if err != nil {
		h.log.Debug("discarding malformed message", zap.String("player", c.id), zap.Error(err))
		return
	}

	switch env.T {
	case MsgInput:
		in, err := DecodePayload[component.Input](env)
		if err != nil {
			h.log.Debug("bad input", zap.String("player", c.id), zap.Error(err))
			return
		}
		h.engine.SetPlayerInput(c.id, in)
	case MsgBeam:
		p, err := DecodePayload[BeamPayload](env)
		if err != nil {
			h.log.Debug("bad beam toggle", zap.String("player", c.id), zap.Error(err))
			return
		}
		h.engine.SetBeamActive(c.id, p.Active)
	case MsgBeamClick:
		p, err := DecodePayload[BeamClickPayload](env)
		if err != nil {
			h.log.Debug("bad beam click", zap.String("player", c.id), zap.Error(err))
			return
		}
		if hit := h.engine.HandleBeamInteraction(c.id, p.X, p.Y); hit != "" {
			h.log.Debug("beam pulse", zap.String("player", c.id), zap.String("target", hit))
		}
	case MsgChat:
		p, err := DecodePayload[ChatPayload](env)
		if err != nil {
			h.log.Debug("bad chat", zap.String("player", c.id), zap.Error(err))
			return
		}
		h.handleChat(ctx, c, p.Text)
	default:
		h.log.Debug("unknown message type", zap.String("player", c.id), zap.String("type", env.T))
	}
}

func (h *Hub) handleChat(ctx context.Context, c *client, text string) {
	if h.chat == nil || text == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()
	emote, ok, err := h.chat.Match(ctx, c.username, text)
	if err != nil {
		h.log.Warn("chat script failed", zap.String("player", c.id), zap.Error(err))
		return
	}
	if ok {
		h.engine.SpawnEmote(emote.URL, emote.Name)
	}
}

func (h *Hub) disconnect(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()

	c.close()
	h.engine.RemovePlayer(c.id)
	if ok {
		h.log.Info("client disconnected", zap.String("player", c.id))
	}
}

func (h *Hub) snapshotClients() []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c)
	}
	return out
}

// broadcast encodes once per codec and queues the frame for every client.
// It never waits on a socket. A client whose queue is full is closed and
// its read loop then cleans it up.
func (h *Hub) broadcast(t string, payload any) {
	frames := make(map[string]frame)
	for _, c := range h.snapshotClients() {
		f, ok := frames[c.codec.Name()]
		if !ok {
			frameType, data, err := c.codec.Encode(t, payload)
			if err != nil {
				h.log.Error("encode broadcast", zap.String("type", t), zap.Error(err))
				return
			}
			f = frame{frameType, data}
			frames[c.codec.Name()] = f
		}
		if !c.enqueue(f) {
			h.log.Warn("dropping slow client", zap.String("player", c.id), zap.String("type", t))
			c.close()
		}
	}
}

func (h *Hub) BroadcastState() {
	h.broadcast(MsgState, h.engine.Snapshot())
}

func (h *Hub) levelPayload() (json.RawMessage, bool) {
	lvl := h.engine.CurrentLevel()
	if lvl == nil {
		return nil, false
	}
	data, err := levels.Encode(lvl)
	if err != nil {
		h.log.Error("encode level", zap.String("level", lvl.Name), zap.Error(err))
		return nil, false
	}
	return json.RawMessage(data), true
}
