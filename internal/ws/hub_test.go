package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/cafe-orders/internal/domain/auth"
	"github.com/xenking/cafe-orders/internal/domain/order"
)

func mockClient(hub *Hub) *Client {
	return &Client{hub: hub, send: make(chan []byte, 8)}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub()
	go hub.Run(ctx)
	return hub
}

type staticVerifier struct{}

func (staticVerifier) Verify(token string) (auth.Session, error) {
	if token != "good" {
		return auth.Session{}, auth.ErrInvalidToken
	}
	return auth.Session{StaffID: "staff-1"}, nil
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := startHub(t)
	c := mockClient(hub)

	hub.register <- c
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	hub.unregister <- c
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-c.send
	assert.False(t, open)
}

func TestHub_Publish(t *testing.T) {
	hub := startHub(t)
	c1, c2 := mockClient(hub), mockClient(hub)
	hub.register <- c1
	hub.register <- c2

	hub.Publish(context.Background(), order.Event{
		Type:          order.EventPaid,
		OrderID:       "o-1",
		PaymentStatus: order.StatusPaid,
		At:            time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	})

	for _, c := range []*Client{c1, c2} {
		select {
		case msg := <-c.send:
			assert.JSONEq(t,
				`{"type":"order.paid","order_id":"o-1","payment_status":"Paid","at":"2026-02-01T10:00:00Z"}`,
				string(msg))
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := startHub(t)
	slow := &Client{hub: hub, send: make(chan []byte)}
	hub.register <- slow

	hub.Publish(context.Background(), order.Event{Type: order.EventCreated, OrderID: "o-1"})
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	c := mockClient(hub)
	hub.register <- c

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	_, open := <-c.send
	assert.False(t, open)
}

func TestHandler_RejectsMissingOrInvalidToken(t *testing.T) {
	h := Handler(startHub(t), staticVerifier{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ws?token=bad", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_DeliversEvents(t *testing.T) {
	hub := startHub(t)
	srv := httptest.NewServer(Handler(hub, staticVerifier{}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=good"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	hub.Publish(context.Background(), order.Event{Type: order.EventCreated, OrderID: "o-7", PaymentStatus: order.StatusNotPaid})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var gotType, gotID string
	err = jx.DecodeBytes(msg).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "type":
			v, err := d.Str()
			gotType = v
			return err
		case "order_id":
			v, err := d.Str()
			gotID = v
			return err
		default:
			return d.Skip()
		}
	})
	require.NoError(t, err)
	assert.Equal(t, "order.created", gotType)
	assert.Equal(t, "o-7", gotID)
}


func TestHub_StoppedHubReleasesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	served := make(chan struct{}, 2)
	h := Handler(hub, staticVerifier{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
		served <- struct{}{}
	}))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=good"

	first, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer first.Close()
	<-served
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-hub.done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	// The connected client is closed by the server.
	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = first.ReadMessage()
	require.Error(t, err)

	// Unsubscribing after shutdown does not block.
	removed := make(chan struct{})
	go func() {
		hub.remove(mockClient(hub))
		close(removed)
	}()
	select {
	case <-removed:
	case <-time.After(time.Second):
		t.Fatal("remove blocked on stopped hub")
	}

	// A late handshake is closed instead of parking the handler.
	second, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer second.Close()
	select {
	case <-served:
	case <-time.After(time.Second):
		t.Fatal("handler blocked on stopped hub")
	}
	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = second.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
