package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"PumpSentinel/internal/model"
)

// feedServer is a minimal stand-in for the live feed: it accepts
// subscriptions, acks them, then pushes the configured ticker frames.
type feedServer struct {
	t      *testing.T
	pushes []string

	mu   sync.Mutex
	subs []string
}

func (f *feedServer) handler(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.t.Errorf("upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		var msg struct {
			Method string `json:"method"`
			Param  struct {
				Symbol string `json:"symbol"`
			} `json:"param"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Method {
		case "sub.ticker":
			f.mu.Lock()
			f.subs = append(f.subs, msg.Param.Symbol)
			n := len(f.subs)
			f.mu.Unlock()
			conn.WriteMessage(websocket.TextMessage, []byte(`{"channel":"rs.sub.ticker","data":"success"}`))
			if n == 2 {
				for _, push := range f.pushes {
					conn.WriteMessage(websocket.TextMessage, []byte(push))
				}
			}
		case "ping":
			conn.WriteMessage(websocket.TextMessage, []byte(`{"channel":"pong"}`))
		}
	}
}

func (f *feedServer) subscribed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.subs...)
}

func testOptions(url string) Options {
	return Options{
		URL:           "ws" + strings.TrimPrefix(url, "http"),
		ChunkSize:     200,
		ReconnectBase: 20 * time.Millisecond,
		ReconnectMax:  100 * time.Millisecond,
		PingInterval:  time.Second,
		PingTimeout:   time.Second,
	}
}

func TestManager_DeliversTicks(t *testing.T) {
	feed := &feedServer{t: t, pushes: []string{
		`{"channel":"push.ticker","symbol":"BTC_USDT","data":{"lastPrice":43210.5}}`,
		`{"symbol":"ETH_USDT","lastPrice":"2500.1"}`,
		`{"channel":"push.unknown","data":"noise"}`,
	}}
	srv := httptest.NewServer(http.HandlerFunc(feed.handler))
	defer srv.Close()

	ticks := make(chan model.Tick, 8)
	m := NewManager(testOptions(srv.URL), []string{"BTC_USDT", "ETH_USDT"}, func(tk model.Tick) {
		ticks <- tk
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	got := make(map[string]float64)
	timeout := time.After(5 * time.Second)
	for len(got) < 2 {
		select {
		case tk := <-ticks:
			got[tk.Symbol] = tk.Price
			if tk.ObservedAt.IsZero() {
				t.Error("tick missing observation time")
			}
		case <-timeout:
			t.Fatalf("timed out waiting for ticks, got %v", got)
		}
	}
	if got["BTC_USDT"] != 43210.5 || got["ETH_USDT"] != 2500.1 {
		t.Errorf("unexpected tick prices: %v", got)
	}

	subs := feed.subscribed()
	if len(subs) != 2 {
		t.Errorf("expected 2 subscriptions, got %v", subs)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("manager did not stop after cancel")
	}
}

func TestManager_ReconnectsAfterClose(t *testing.T) {
	var mu sync.Mutex
	conns := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		conns++
		first := conns == 1
		mu.Unlock()
		if first {
			// Drop the first connection immediately to force a reconnect.
			conn.Close()
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	m := NewManager(testOptions(srv.URL), []string{"BTC_USDT"}, func(model.Tick) {})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		n := conns
		mu.Unlock()
		if n >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected a reconnect, saw %d connections", n)
		case <-time.After(10 * time.Millisecond):
		}
	}

	if m.Metrics().Reconnects == 0 {
		t.Error("expected reconnect counter to advance")
	}

	cancel()
	<-done
}
