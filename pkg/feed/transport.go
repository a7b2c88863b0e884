package feed

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zeromicro/go-zero/core/logx"
)

const defaultReconnectDelay = 5 * time.Second

// UpdateHandler receives every validated price update from the feed.
type UpdateHandler func(update *PriceUpdate)

// Transport maintains one persistent websocket session to the price feed.
// It subscribes to the current asset set on every (re)connect, retries with a
// fixed delay forever, and drops malformed frames without interrupting the
// session. All methods are safe for concurrent use and none of them blocks on
// network I/O held under the store's locks.
type Transport struct {
	url            string
	dialer         *websocket.Dialer
	reconnectDelay time.Duration
	onUpdate       UpdateHandler

	mu        sync.Mutex
	writeMu   sync.Mutex
	conn      *websocket.Conn
	assetIDs  []string
	reconnect *time.Timer
	disposed  bool
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithReconnectDelay overrides the fixed delay between reconnect attempts.
func WithReconnectDelay(d time.Duration) TransportOption {
	return func(t *Transport) {
		if d > 0 {
			t.reconnectDelay = d
		}
	}
}

// WithDialer injects a custom websocket dialer.
func WithDialer(d *websocket.Dialer) TransportOption {
	return func(t *Transport) {
		if d != nil {
			t.dialer = d
		}
	}
}

// NewTransport constructs a transport for the given feed URL. Updates are
// delivered through handler from the transport's read goroutine.
func NewTransport(url string, handler UpdateHandler, opts ...TransportOption) *Transport {
	t := &Transport{
		url:            url,
		dialer:         websocket.DefaultDialer,
		reconnectDelay: defaultReconnectDelay,
		onUpdate:       handler,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start opens the feed session in the background.
func (t *Transport) Start() {
	go t.connect()
}

// SetSubscriptions replaces the subscribed asset set. When a session is open
// the full set is re-sent immediately; otherwise the next connect picks it up.
func (t *Transport) SetSubscriptions(assetIDs []string) {
	t.mu.Lock()
	t.assetIDs = append([]string(nil), assetIDs...)
	conn := t.conn
	disposed := t.disposed
	t.mu.Unlock()
	if disposed || conn == nil {
		return
	}
	if err := t.writeSubscribe(conn, assetIDs); err != nil {
		logx.Errorf("feed: resubscribe: %v", err)
		// The read loop observes the dead connection and schedules the
		// reconnect, which re-sends the current set.
		conn.Close()
	}
}

// Close tears the session down. Idempotent; cancels any pending reconnect so
// no further connection attempt fires afterwards.
func (t *Transport) Close() {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return
	}
	t.disposed = true
	if t.reconnect != nil {
		t.reconnect.Stop()
		t.reconnect = nil
	}
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func (t *Transport) connect() {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	conn, resp, err := t.dialer.Dial(t.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		logx.Errorf("feed: dial %s: %v", t.url, err)
		t.scheduleReconnect()
		return
	}

	// The asset set is read in the same critical section that publishes the
	// connection: a SetSubscriptions racing the dial either lands before the
	// read here or sees the live conn and resends itself, so the set written
	// below is never stale.
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		conn.Close()
		return
	}
	t.conn = conn
	ids := append([]string(nil), t.assetIDs...)
	t.mu.Unlock()

	if err := t.writeSubscribe(conn, ids); err != nil {
		logx.Errorf("feed: subscribe: %v", err)
		conn.Close()
	}
	t.readLoop(conn)
}

func (t *Transport) writeSubscribe(conn *websocket.Conn, assetIDs []string) error {
	payload, err := EncodeSubscribeMany(assetIDs)
	if err != nil {
		return err
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (t *Transport) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			t.mu.Lock()
			if t.conn == conn {
				t.conn = nil
			}
			disposed := t.disposed
			t.mu.Unlock()
			if disposed {
				return
			}
			logx.Errorf("feed: connection lost, retrying in %s: %v", t.reconnectDelay, err)
			t.scheduleReconnect()
			return
		}
		update, ack, err := ParseMessage(data)
		if err != nil {
			logx.Errorf("feed: drop message: %v", err)
			continue
		}
		if ack != nil {
			logx.Infof("feed: subscription acknowledged, count=%d", ack.Count)
			continue
		}
		if t.onUpdate != nil {
			t.onUpdate(update)
		}
	}
}

// scheduleReconnect arms exactly one pending reconnect attempt. The disposed
// flag is re-checked when the timer fires so teardown wins any race.
func (t *Transport) scheduleReconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed || t.reconnect != nil {
		return
	}
	t.reconnect = time.AfterFunc(t.reconnectDelay, func() {
		t.mu.Lock()
		t.reconnect = nil
		disposed := t.disposed
		t.mu.Unlock()
		if disposed {
			return
		}
		t.connect()
	})
}
