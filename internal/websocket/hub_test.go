package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

var secret = []byte("ws-secret")

func newServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, secret) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestServeWs_RejectsBadTokens(t *testing.T) {
	srv := newServer(t, NewHub())

	for _, query := range []string{"", "?token=garbage"} {
		resp, err := http.Get(srv.URL + "/ws" + query)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("query %q: status = %d, want 401", query, resp.StatusCode)
		}
	}
}

func TestHub_PublishReachesClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	srv := newServer(t, hub)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"}).SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish(EventInvoiceCreated, map[string]string{"invoice_number": "INV-1"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("decode %q: %v", msg, err)
	}
	if ev.Type != EventInvoiceCreated || ev.Data["invoice_number"] != "INV-1" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestHub_PublishDropsWhenFull(t *testing.T) {
	hub := NewHub()
	for i := 0; i < cap(hub.Broadcast)+5; i++ {
		hub.Publish(EventInvoiceUpdated, i)
	}
	if len(hub.Broadcast) != cap(hub.Broadcast) {
		t.Errorf("queue length = %d, want %d", len(hub.Broadcast), cap(hub.Broadcast))
	}
}
