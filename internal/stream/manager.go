package stream

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"PumpSentinel/internal/model"
)

// TickFunc receives every valid tick. It must not block significantly; the
// expected implementation only appends to a price buffer.
type TickFunc func(model.Tick)

// Options configures the streaming connection manager.
type Options struct {
	URL           string
	ChunkSize     int
	ReconnectBase time.Duration
	ReconnectMax  time.Duration
	PingInterval  time.Duration
	PingTimeout   time.Duration
}

// Metrics counts connection-level events across all chunks.
type Metrics struct {
	Connections int64
	Reconnects  int64
	Messages    int64
	ParseErrors int64
}

// Manager maintains one multiplexed subscription connection per symbol chunk
// and invokes the tick callback for every valid ticker push, reconnecting
// with backoff until its context is cancelled.
type Manager struct {
	opts    Options
	symbols []string
	onTick  TickFunc

	connections atomic.Int64
	reconnects  atomic.Int64
	messages    atomic.Int64
	parseErrors atomic.Int64
}

// NewManager creates a manager for the given symbol list.
func NewManager(opts Options, symbols []string, onTick TickFunc) *Manager {
	return &Manager{opts: opts, symbols: symbols, onTick: onTick}
}

// Metrics returns a snapshot of the connection counters.
func (m *Manager) Metrics() Metrics {
	return Metrics{
		Connections: m.connections.Load(),
		Reconnects:  m.reconnects.Load(),
		Messages:    m.messages.Load(),
		ParseErrors: m.parseErrors.Load(),
	}
}

// Run opens all chunk connections and blocks until ctx is cancelled and
// every per-chunk loop has exited.
func (m *Manager) Run(ctx context.Context) {
	chunks := chunkSymbols(m.symbols, m.opts.ChunkSize)
	log.Printf("[INFO] starting %d stream connections (%d symbols, chunk size %d)",
		len(chunks), len(m.symbols), m.opts.ChunkSize)

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(id int, symbols []string) {
			defer wg.Done()
			m.runChunk(ctx, id, symbols)
		}(i+1, chunk)
	}
	wg.Wait()
	log.Println("[INFO] all stream connections stopped")
}

// runChunk keeps one chunk connected, backing off multiplicatively between
// attempts. The delay resets to base once a connection survives its
// subscription burst.
func (m *Manager) runChunk(ctx context.Context, id int, symbols []string) {
	delay := m.opts.ReconnectBase
	for {
		subscribed, err := m.runOnce(ctx, id, symbols)
		if ctx.Err() != nil {
			log.Printf("[INFO] chunk #%d stopped", id)
			return
		}
		if err != nil {
			log.Printf("[WARN] chunk #%d disconnected: %v", id, err)
		}
		if subscribed {
			delay = m.opts.ReconnectBase
		}

		m.reconnects.Add(1)
		log.Printf("[INFO] chunk #%d reconnecting in %v", id, delay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = delay * 3 / 2
		if delay > m.opts.ReconnectMax {
			delay = m.opts.ReconnectMax
		}
	}
}

type subscribeMsg struct {
	Method string `json:"method"`
	Param  struct {
		Symbol string `json:"symbol"`
	} `json:"param"`
}

type pingMsg struct {
	Method string `json:"method"`
}

// runOnce dials, subscribes the chunk's symbols and processes messages until
// the connection fails or ctx is cancelled. The returned bool reports
// whether the subscription burst completed.
func (m *Manager) runOnce(ctx context.Context, id int, symbols []string) (bool, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, m.opts.URL, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	m.connections.Add(1)
	log.Printf("[INFO] chunk #%d connected (%d symbols)", id, len(symbols))

	// Liveness: the read deadline is pushed forward on every frame and on
	// every protocol pong. A quiet connection past interval+timeout fails
	// the read and forces the reconnect path.
	readDeadline := m.opts.PingInterval + m.opts.PingTimeout
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	for _, symbol := range symbols {
		var msg subscribeMsg
		msg.Method = "sub.ticker"
		msg.Param.Symbol = symbol
		if err := conn.WriteJSON(msg); err != nil {
			return false, err
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	log.Printf("[INFO] chunk #%d subscribed %d symbols", id, len(symbols))

	errCh := make(chan error, 1)
	go func() {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			conn.SetReadDeadline(time.Now().Add(readDeadline))
			m.handleMessage(id, raw)
		}
	}()

	ping := time.NewTicker(m.opts.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return true, ctx.Err()
		case <-ping.C:
			// JSON ping for the feed itself plus a transport-level ping.
			if err := conn.WriteJSON(pingMsg{Method: "ping"}); err != nil {
				return true, err
			}
			deadline := time.Now().Add(m.opts.PingTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return true, err
			}
		case err := <-errCh:
			return true, err
		}
	}
}

func (m *Manager) handleMessage(id int, raw []byte) {
	m.messages.Add(1)

	kind, symbol, price := classify(raw)
	switch kind {
	case payloadTicker:
		tick := model.Tick{Symbol: symbol, Price: price, ObservedAt: time.Now()}
		if tick.Valid() {
			m.onTick(tick)
		}
	case payloadError:
		m.parseErrors.Add(1)
		log.Printf("[WARN] chunk #%d server error frame: %.120s", id, raw)
	case payloadPong, payloadAck, payloadIgnored:
		// not a tick, nothing to do
	}
}

// chunkSymbols splits symbols into slices of at most size entries, because
// the upstream feed caps subscriptions per connection.
func chunkSymbols(symbols []string, size int) [][]string {
	if size <= 0 || len(symbols) == 0 {
		return nil
	}
	var chunks [][]string
	for start := 0; start < len(symbols); start += size {
		end := start + size
		if end > len(symbols) {
			end = len(symbols)
		}
		chunks = append(chunks, symbols[start:end])
	}
	return chunks
}
