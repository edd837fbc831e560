// Package tracking streams order status changes to customers over
// websockets.
package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/events"
	"github.com/37vikanshu-dot/Mini-Drop/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Update is the frame pushed to a tracking client.
type Update struct {
	OrderID    string             `json:"order_id"`
	Status     models.OrderStatus `json:"status"`
	FromStatus models.OrderStatus `json:"from_status,omitempty"`
	RiderID    string             `json:"rider_id,omitempty"`
	At         time.Time          `json:"at"`
}

type client struct {
	hub     *Hub
	orderID string
	conn    *websocket.Conn
	send    chan []byte
}

// Hub fans order events out to the clients watching each order. Clients
// are disconnected once their order reaches a terminal status.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*client]struct{}
	logger *zap.Logger
}

var _ events.Publisher = (*Hub)(nil)

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{subs: make(map[string]map[*client]struct{}), logger: logger}
}

// Serve upgrades the request and sends initial as the first frame.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, initial Update) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade: %w", err)
	}
	first, err := json.Marshal(initial)
	if err != nil {
		conn.Close()
		return err
	}

	c := &client{hub: h, orderID: initial.OrderID, conn: conn, send: make(chan []byte, sendBuffer)}
	c.send <- first
	if initial.Status.Terminal() {
		close(c.send)
	} else {
		h.register(c)
	}

	go c.writePump()
	go c.readPump()
	return nil
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[c.orderID]
	if !ok {
		set = make(map[*client]struct{})
		h.subs[c.orderID] = set
	}
	set[c] = struct{}{}
	h.logger.Debug("Tracking client connected", zap.String("order_id", c.orderID), zap.Int("watchers", len(set)))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

func (h *Hub) dropLocked(c *client) {
	set, ok := h.subs[c.orderID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.subs, c.orderID)
	}
}

// Publish pushes the event to every client watching its order. A client
// whose buffer is full is disconnected rather than blocking the publisher.
func (h *Hub) Publish(_ context.Context, event models.OrderEvent) error {
	frame, err := json.Marshal(Update{
		OrderID:    event.OrderID,
		Status:     event.Status,
		FromStatus: event.FromStatus,
		RiderID:    event.RiderID,
		At:         event.OccurredAt,
	})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.subs[event.OrderID] {
		select {
		case c.send <- frame:
		default:
			h.logger.Warn("Dropping slow tracking client", zap.String("order_id", event.OrderID))
			h.dropLocked(c)
			continue
		}
		if event.Status.Terminal() {
			h.dropLocked(c)
		}
	}
	return nil
}

// Watchers returns the number of clients watching orderID.
func (h *Hub) Watchers(orderID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[orderID])
}

// readPump only services control frames; clients never send data.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("Tracking connection closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "order closed"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Snapshot builds the first frame for an order.
func Snapshot(o models.Order) Update {
	u := Update{OrderID: o.ID, Status: o.Status, At: time.Now().UTC()}
	if o.RiderID != nil {
		u.RiderID = *o.RiderID
	}
	return u
}
