package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mssb/matchmaker/pkg/types"
)

var logger = logrus.WithFields(logrus.Fields{
	"app":       "matchmaking",
	"component": "ws.hub",
})

var (
	// ErrRecipientOffline is returned when a direct message has nowhere to go.
	ErrRecipientOffline = errors.New("recipient not connected")
	ErrBacklog          = errors.New("event backlog full")
	ErrClosed           = errors.New("hub closed")
)

type BroadcastPayload struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type StatusPayload struct {
	Text string `json:"text"`
}

type DirectPayload struct {
	PlayerID string `json:"player_id"`
	Text     string `json:"text"`
}

type client struct {
	conn     *websocket.Conn
	playerID string
	wmu      sync.Mutex
}

func (c *client) write(ev types.Event, timeout time.Duration) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
	return c.conn.WriteJSON(ev)
}

// Hub fans events out to websocket clients. Clients that connect with a
// player_id query parameter also receive that player's direct messages.
type Hub struct {
	mu           sync.Mutex
	clients      map[*client]struct{}
	lastStatus   *types.Event
	closed       bool
	broadcast    chan types.Event
	upgrade      websocket.Upgrader
	writeTimeout time.Duration
}

func NewHub(writeTimeout time.Duration) *Hub {
	return &Hub{
		clients:      map[*client]struct{}{},
		broadcast:    make(chan types.Event, 64),
		upgrade:      websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		writeTimeout: writeTimeout,
	}
}

// Run delivers queued events until Close.
func (h *Hub) Run() {
	for ev := range h.broadcast {
		for _, c := range h.snapshot() {
			if err := c.write(ev, h.writeTimeout); err != nil {
				logger.WithError(err).WithField("player", c.playerID).Info("dropping websocket client")
				h.drop(c)
			}
		}
	}
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.broadcast)
	for c := range h.clients {
		c.conn.Close()
		delete(h.clients, c)
	}
}

// Broadcast posts text to every client, tagged with channel.
func (h *Hub) Broadcast(channel, text string) error {
	return h.enqueue(types.Event{Type: "broadcast", Payload: BroadcastPayload{Channel: channel, Text: text}})
}

// EditStatusMessage replaces the current status line. Clients that connect
// later receive the latest one on arrival.
func (h *Hub) EditStatusMessage(text string) error {
	ev := types.Event{Type: "status", Payload: StatusPayload{Text: text}}
	h.mu.Lock()
	h.lastStatus = &ev
	h.mu.Unlock()
	return h.enqueue(ev)
}

// DirectMessage writes to every connection registered for playerID.
func (h *Hub) DirectMessage(playerID, text string) error {
	ev := types.Event{Type: "direct", Payload: DirectPayload{PlayerID: playerID, Text: text}}
	var sent bool
	var lastErr error
	for _, c := range h.snapshot() {
		if c.playerID != playerID {
			continue
		}
		if err := c.write(ev, h.writeTimeout); err != nil {
			lastErr = err
			h.drop(c)
			continue
		}
		sent = true
	}
	if sent {
		return nil
	}
	if lastErr != nil {
		return errors.Wrapf(lastErr, "direct message to %s", playerID)
	}
	return errors.Wrapf(ErrRecipientOffline, "direct message to %s", playerID)
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) enqueue(ev types.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	select {
	case h.broadcast <- ev:
		return nil
	default:
		return ErrBacklog
	}
}

func (h *Hub) snapshot() []*client {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

func ServeWS(h *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrade.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return
	}
	c := &client{conn: conn, playerID: r.URL.Query().Get("player_id")}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	status := h.lastStatus
	h.mu.Unlock()

	if status != nil {
		if err := c.write(*status, h.writeTimeout); err != nil {
			h.drop(c)
			return
		}
	}

	// Reads only detect disconnects; clients have nothing to say.
	go func() {
		defer h.drop(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
