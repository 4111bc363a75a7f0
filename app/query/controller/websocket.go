package controller

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ordermart/ordermart/pkg/db/entities"
	"github.com/ordermart/ordermart/pkg/redis"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// read-only public data
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

// ClientMessage is sent by websocket clients to choose which layers they follow.
type ClientMessage struct {
	Action string `json:"action"` // "subscribe" or "unsubscribe"
	Layer  string `json:"layer"`  // a layer name, or "*" for every layer
}

// ServerMessage is sent to websocket clients.
type ServerMessage struct {
	Type    string `json:"type"` // "layer.refreshed", "subscribed", "unsubscribed", "info", "error"
	Payload any    `json:"payload"`
}

// layerSubscriptions tracks the layers one client follows.
type layerSubscriptions struct {
	mu     sync.RWMutex
	layers map[string]bool
}

func newLayerSubscriptions() *layerSubscriptions {
	return &layerSubscriptions{layers: make(map[string]bool)}
}

func (s *layerSubscriptions) subscribe(layer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers[layer] = true
}

func (s *layerSubscriptions) unsubscribe(layer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.layers, layer)
}

func (s *layerSubscriptions) isSubscribed(layer string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layers["*"] || s.layers[layer]
}

func validLayer(layer string) bool {
	if layer == "*" {
		return true
	}
	for _, l := range entities.Layers() {
		if string(l) == layer {
			return true
		}
	}
	return false
}

// HandleWebSocket streams layer refresh events.
//
// Client sends: {"action": "subscribe", "layer": "marts"} or {"action": "subscribe", "layer": "*"}
// Server sends: {"type": "layer.refreshed", "payload": {"layer": "marts", "run_id": "...", "rows": {...}}}
func (c *Controller) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if c.App.RedisClient == nil {
		writeError(w, http.StatusServiceUnavailable, "refresh events require redis")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.App.Logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	c.App.Logger.Info("WebSocket client connected", zap.String("remote_addr", r.RemoteAddr))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	subs := newLayerSubscriptions()
	send := make(chan ServerMessage, 64)

	var wg sync.WaitGroup
	goSafe := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					c.App.Logger.Error("Panic in websocket goroutine",
						zap.String("goroutine", name),
						zap.Any("panic", rec),
						zap.String("stack", string(debug.Stack())))
					cancel()
				}
			}()
			fn()
		}()
	}

	goSafe("subscriber", func() { c.subscribeToRefreshes(ctx, send, subs) })
	goSafe("pinger", func() { c.sendPings(ctx, conn) })
	goSafe("writer", func() { c.writeMessages(ctx, cancel, conn, send) })

	// blocks until the connection closes
	c.readClientMessages(ctx, conn, cancel, subs, send)

	cancel()
	wg.Wait()

	c.App.Logger.Info("WebSocket client disconnected", zap.String("remote_addr", r.RemoteAddr))
}

// subscribeToRefreshes forwards refresh events of subscribed layers, reconnecting to Redis with backoff.
func (c *Controller) subscribeToRefreshes(ctx context.Context, send chan<- ServerMessage, subs *layerSubscriptions) {
	const (
		initialBackoff = time.Second
		maxBackoff     = 30 * time.Second
	)
	backoff := initialBackoff

	for attempt := 1; ; attempt++ {
		err := c.forwardRefreshes(ctx, send, subs)
		if ctx.Err() != nil {
			return
		}
		c.App.Logger.Warn("Redis subscription ended, will retry",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff))

		select {
		case send <- ServerMessage{Type: "error", Payload: map[string]any{"message": "refresh events interrupted, reconnecting", "retryIn": backoff.Seconds()}}:
		case <-ctx.Done():
			return
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff = nextBackoff(backoff, maxBackoff, 2.0, 0.1)
	}
}

func (c *Controller) forwardRefreshes(ctx context.Context, send chan<- ServerMessage, subs *layerSubscriptions) error {
	pubsub := c.App.RedisClient.PSubscribe(ctx, redis.RefreshPattern)
	defer func() { _ = pubsub.Close() }()

	receiveCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := pubsub.Receive(receiveCtx); err != nil {
		return fmt.Errorf("confirm subscription: %w", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			layer, ok := redis.LayerFromChannel(msg.Channel)
			if !ok || !subs.isSubscribed(layer) {
				continue
			}
			event, err := redis.ParseRefreshEvent(msg.Payload)
			if err != nil {
				c.App.Logger.Warn("Dropping malformed refresh event", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			select {
			case send <- ServerMessage{Type: "layer.refreshed", Payload: event}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// nextBackoff grows current by factor up to max, with +/- jitterFactor jitter.
func nextBackoff(current, max time.Duration, factor, jitterFactor float64) time.Duration {
	next := time.Duration(float64(current) * factor)
	if next > max {
		next = max
	}
	next += time.Duration(float64(next) * jitterFactor * (2*rand.Float64() - 1))
	if next < current {
		next = current
	}
	if next > max {
		next = max
	}
	return next
}

func (c *Controller) sendPings(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				c.App.Logger.Debug("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}

// writeMessages is the only writer of data frames on conn.
func (c *Controller) writeMessages(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, send <-chan ServerMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-send:
			if err := conn.WriteJSON(msg); err != nil {
				c.App.Logger.Debug("Failed to write WebSocket message", zap.Error(err))
				cancel()
				return
			}
		}
	}
}

func (c *Controller) readClientMessages(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc, subs *layerSubscriptions, send chan<- ServerMessage) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	reply := func(msg ServerMessage) bool {
		select {
		case send <- msg:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for ctx.Err() == nil {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.App.Logger.Debug("WebSocket read error", zap.Error(err))
			}
			cancel()
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var out ServerMessage
		switch {
		case msg.Action != "subscribe" && msg.Action != "unsubscribe":
			out = ServerMessage{Type: "error", Payload: map[string]string{"message": "unknown action: " + msg.Action}}
		case !validLayer(msg.Layer):
			out = ServerMessage{Type: "error", Payload: map[string]string{"message": "unknown layer: " + msg.Layer}}
		case msg.Action == "subscribe":
			subs.subscribe(msg.Layer)
			out = ServerMessage{Type: "subscribed", Payload: map[string]string{"layer": msg.Layer}}
		default:
			subs.unsubscribe(msg.Layer)
			out = ServerMessage{Type: "unsubscribed", Payload: map[string]string{"layer": msg.Layer}}
		}
		if !reply(out) {
			return
		}
	}
}
