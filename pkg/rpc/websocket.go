package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/core"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
)

// BlockEvent is the payload pushed to every subscriber when a block is
// mined.
type BlockEvent struct {
	Event string     `json:"event"`
	Block core.Block `json:"block"`
}

// EventHub fans newly mined blocks out to websocket subscribers. Clients
// only listen; inbound frames are read solely to detect disconnects.
type EventHub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	subs     map[*subscriber]struct{}
	log      *slog.Logger
}

type subscriber struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc
}

func NewEventHub(logger *slog.Logger) *EventHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		subs: make(map[*subscriber]struct{}),
		log:  logger,
	}
}

// HandleWebSocket upgrades the request and registers the connection for
// block events until it drops.
func (h *EventHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	sub := &subscriber{
		id:     fmt.Sprintf("ws-%d", time.Now().UnixNano()),
		conn:   conn,
		send:   make(chan []byte, 256),
		ctx:    ctx,
		cancel: cancel,
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	h.log.Debug("websocket subscriber connected", "id", sub.id)

	go h.writePump(sub)
	go h.readPump(sub)
}

// BroadcastBlock pushes the block to every live subscriber. Slow
// subscribers that cannot keep up are dropped rather than blocking the
// miner.
func (h *EventHub) BroadcastBlock(block core.Block) {
	payload, err := json.Marshal(BlockEvent{Event: "block", Block: block})
	if err != nil {
		h.log.Error("failed to encode block event", "error", err)
		return
	}

	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.send <- payload:
		case <-sub.ctx.Done():
		default:
			h.log.Warn("dropping slow websocket subscriber", "id", sub.id)
			h.remove(sub)
		}
	}
}

// ActiveSubscribers reports how many connections are registered.
func (h *EventHub) ActiveSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber, typically during server shutdown.
func (h *EventHub) Close() {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.subs = make(map[*subscriber]struct{})
	h.mu.Unlock()

	for _, sub := range subs {
		sub.cancel()
		sub.conn.Close()
	}
}

func (h *EventHub) remove(sub *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	h.mu.Unlock()

	if ok {
		sub.cancel()
		sub.conn.Close()
		h.log.Debug("websocket subscriber disconnected", "id", sub.id)
	}
}

func (h *EventHub) readPump(sub *subscriber) {
	defer h.remove(sub)

	sub.conn.SetReadLimit(maxMessageSize)
	sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		sub.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read error", "id", sub.id, "error", err)
			}
			return
		}
	}
}

func (h *EventHub) writePump(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.remove(sub)
	}()

	for {
		select {
		case payload, ok := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-sub.ctx.Done():
			return
		}
	}
}
