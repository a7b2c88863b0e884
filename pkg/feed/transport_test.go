package feed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedServer is a minimal in-process feed endpoint. Every accepted session is
// exposed on conns; inbound subscribeMany frames are exposed on subs.
type feedServer struct {
	*httptest.Server
	conns chan *websocket.Conn
	subs  chan []string
}

func newFeedServer(t *testing.T) *feedServer {
	t.Helper()
	fs := &feedServer{
		conns: make(chan *websocket.Conn, 4),
		subs:  make(chan []string, 16),
	}
	upgrader := websocket.Upgrader{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fs.conns <- conn
		go func() {
			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					return
				}
				var req struct {
					Type     string   `json:"type"`
					AssetIDs []string `json:"assetIds"`
				}
				if json.Unmarshal(data, &req) == nil && req.Type == "subscribeMany" {
					fs.subs <- req.AssetIDs
				}
			}
		}()
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *feedServer) wsURL() string {
	return "ws" + strings.TrimPrefix(fs.URL, "http")
}

func waitConn(t *testing.T, fs *feedServer) *websocket.Conn {
	t.Helper()
	select {
	case c := <-fs.conns:
		return c
	case <-time.After(3 * time.Second):
		t.Fatal("no connection within deadline")
		return nil
	}
}

func waitSub(t *testing.T, fs *feedServer) []string {
	t.Helper()
	select {
	case s := <-fs.subs:
		return s
	case <-time.After(3 * time.Second):
		t.Fatal("no subscribe frame within deadline")
		return nil
	}
}

func TestTransportSubscribesOnConnect(t *testing.T) {
	fs := newFeedServer(t)

	tr := NewTransport(fs.wsURL(), nil)
	tr.SetSubscriptions([]string{"mintA", "mintB"})
	tr.Start()
	defer tr.Close()

	waitConn(t, fs)
	assert.Equal(t, []string{"mintA", "mintB"}, waitSub(t, fs))
}

func TestTransportDeliversUpdates(t *testing.T) {
	fs := newFeedServer(t)

	updates := make(chan *PriceUpdate, 4)
	tr := NewTransport(fs.wsURL(), func(u *PriceUpdate) { updates <- u })
	tr.Start()
	defer tr.Close()

	conn := waitConn(t, fs)
	waitSub(t, fs)

	frame := `{"type":"price","assetId":"mintA","data":{"id":"mintA","summary":{"price_usd":1.5}}}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))

	select {
	case u := <-updates:
		assert.Equal(t, "mintA", u.AssetID)
		require.NotNil(t, u.Snapshot.PriceUsd())
		assert.Equal(t, 1.5, *u.Snapshot.PriceUsd())
	case <-time.After(3 * time.Second):
		t.Fatal("no update within deadline")
	}
}

func TestTransportDropsMalformedFramesAndKeepsSession(t *testing.T) {
	fs := newFeedServer(t)

	updates := make(chan *PriceUpdate, 4)
	tr := NewTransport(fs.wsURL(), func(u *PriceUpdate) { updates <- u })
	tr.Start()
	defer tr.Close()

	conn := waitConn(t, fs)
	waitSub(t, fs)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"mystery"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"price","data":{}}`)))
	good := `{"type":"price","assetId":"mintA","data":{"id":"mintA","summary":{}}}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(good)))

	select {
	case u := <-updates:
		assert.Equal(t, "mintA", u.AssetID)
	case <-time.After(3 * time.Second):
		t.Fatal("session did not survive malformed frames")
	}
}

func TestTransportResubscribesLiveSession(t *testing.T) {
	fs := newFeedServer(t)

	tr := NewTransport(fs.wsURL(), nil)
	tr.SetSubscriptions([]string{"mintA"})
	tr.Start()
	defer tr.Close()

	waitConn(t, fs)
	require.Equal(t, []string{"mintA"}, waitSub(t, fs))

	tr.SetSubscriptions([]string{"mintA", "mintB"})
	assert.Equal(t, []string{"mintA", "mintB"}, waitSub(t, fs))
}

func TestTransportSubscribeChangeDuringDial(t *testing.T) {
	subs := make(chan []string, 4)
	release := make(chan struct{})
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Hold the handshake until the test has changed the interest set.
		<-release
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req struct {
				Type     string   `json:"type"`
				AssetIDs []string `json:"assetIds"`
			}
			if json.Unmarshal(data, &req) == nil && req.Type == "subscribeMany" {
				subs <- req.AssetIDs
			}
		}
	}))
	defer srv.Close()

	tr := NewTransport("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	tr.SetSubscriptions([]string{"mintA"})
	tr.Start()
	defer tr.Close()

	// The set grows while the dial is in flight; the session that opens must
	// subscribe with the grown set, not the one Start saw.
	time.Sleep(50 * time.Millisecond)
	tr.SetSubscriptions([]string{"mintA", "mintB"})
	close(release)

	select {
	case got := <-subs:
		assert.Equal(t, []string{"mintA", "mintB"}, got)
	case <-time.After(3 * time.Second):
		t.Fatal("no subscribe frame within deadline")
	}
}

func TestTransportReconnectsWithCurrentSet(t *testing.T) {
	fs := newFeedServer(t)

	tr := NewTransport(fs.wsURL(), nil, WithReconnectDelay(50*time.Millisecond))
	tr.SetSubscriptions([]string{"mintA"})
	tr.Start()
	defer tr.Close()

	first := waitConn(t, fs)
	waitSub(t, fs)

	tr.SetSubscriptions([]string{"mintB"})
	waitSub(t, fs)

	first.Close()

	// The fresh session must subscribe with the latest set, not the one it
	// connected with originally.
	waitConn(t, fs)
	assert.Equal(t, []string{"mintB"}, waitSub(t, fs))
}

func TestTransportCloseStopsReconnecting(t *testing.T) {
	fs := newFeedServer(t)

	tr := NewTransport(fs.wsURL(), nil, WithReconnectDelay(30*time.Millisecond))
	tr.Start()

	conn := waitConn(t, fs)
	waitSub(t, fs)

	tr.Close()
	conn.Close()

	select {
	case <-fs.conns:
		t.Fatal("transport reconnected after Close")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestTransportCloseIdempotent(t *testing.T) {
	tr := NewTransport("ws://127.0.0.1:0", nil)
	tr.Close()
	tr.Close()
}

func TestStoreAndTransportEndToEnd(t *testing.T) {
	fs := newFeedServer(t)

	store := NewStore()
	tr := NewTransport(fs.wsURL(), store.Apply)
	store.Bind(tr)
	tr.Start()
	defer tr.Close()

	conn := waitConn(t, fs)
	waitSub(t, fs)

	h := store.EnsureInterest("mintA")
	defer h.Release()
	assert.Equal(t, []string{"mintA"}, waitSub(t, fs))

	frame := `{"type":"price","assetId":"mintA","data":{"id":"mintA","summary":{"price_usd":"3.25"}}}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))

	require.Eventually(t, func() bool {
		snap, ok := store.Latest("mintA")
		return ok && snap.PriceUsd() != nil && *snap.PriceUsd() == 3.25
	}, 3*time.Second, 10*time.Millisecond)
}
