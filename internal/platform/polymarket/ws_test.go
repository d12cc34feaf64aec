package polymarket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newTestWSServer runs a minimal websocket echo sink and returns its ws:// URL.
func newTestWSServer(t *testing.T) string {
	t.Helper()

	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestPingLoopStopsWhenConnectionReplaced(t *testing.T) {
	w := NewWSClient(newTestWSServer(t))
	defer w.Close()

	if err := w.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	first := w.pingStop

	if err := w.Connect(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}

	select {
	case <-first:
	default:
		t.Fatal("reconnect must end the previous connection's ping loop")
	}
	if w.pingStop == first {
		t.Fatal("reconnect must install a fresh ping stop channel")
	}
}

func TestPingLoopReturnsOnStop(t *testing.T) {
	w := NewWSClient("ws://unused")
	stop := make(chan struct{})
	returned := make(chan struct{})

	go func() {
		w.pingLoop(stop)
		close(returned)
	}()
	close(stop)

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("ping loop kept running after stop")
	}
}

func TestSubscribeRequiresConnection(t *testing.T) {
	w := NewWSClient("ws://unused")
	if err := w.Subscribe(context.Background(), []string{"111"}); err == nil {
		t.Fatal("expected error before Connect")
	}
}
