package tracking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/37vikanshu-dot/Mini-Drop/models"
)

func dial(t *testing.T, hub *Hub, initial Update) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.Serve(w, r, initial); err != nil {
			t.Errorf("serve: %v", err)
		}
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn
}

func TestHub_StreamsUntilTerminal(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	conn := dial(t, hub, Update{OrderID: "ORD-12345", Status: models.OrderStatusConfirmed})

	var first Update
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, models.OrderStatusConfirmed, first.Status)
	require.Eventually(t, func() bool { return hub.Watchers("ORD-12345") == 1 }, time.Second, 10*time.Millisecond)

	// events for other orders are not delivered
	require.NoError(t, hub.Publish(context.Background(), models.OrderEvent{OrderID: "ORD-99999", Status: models.OrderStatusReady}))
	require.NoError(t, hub.Publish(context.Background(), models.OrderEvent{
		OrderID: "ORD-12345", FromStatus: models.OrderStatusConfirmed, Status: models.OrderStatusReady,
	}))

	var next Update
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, "ORD-12345", next.OrderID)
	assert.Equal(t, models.OrderStatusReady, next.Status)
	assert.Equal(t, models.OrderStatusConfirmed, next.FromStatus)

	require.NoError(t, hub.Publish(context.Background(), models.OrderEvent{
		OrderID: "ORD-12345", Status: models.OrderStatusDelivered, RiderID: "r1",
	}))
	var last Update
	require.NoError(t, conn.ReadJSON(&last))
	assert.Equal(t, models.OrderStatusDelivered, last.Status)
	assert.Equal(t, "r1", last.RiderID)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
	assert.Equal(t, 0, hub.Watchers("ORD-12345"))
}

func TestHub_TerminalSnapshotClosesImmediately(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	conn := dial(t, hub, Update{OrderID: "ORD-12345", Status: models.OrderStatusRejected})

	var first Update
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, models.OrderStatusRejected, first.Status)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
	assert.Equal(t, 0, hub.Watchers("ORD-12345"))
}

func TestSnapshot(t *testing.T) {
	rider := "r2"
	u := Snapshot(models.Order{ID: "ORD-1", Status: models.OrderStatusOutForDelivery, RiderID: &rider})
	assert.Equal(t, "r2", u.RiderID)
	assert.Equal(t, models.OrderStatusOutForDelivery, u.Status)
}
