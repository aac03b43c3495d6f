package relay

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hoopakid/HRMobileProjectBackend/core/chat"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// newRelayServer serves /ws/<room> on reg. Server side conns are published on conns when not nil.
func newRelayServer(t *testing.T, reg *chat.Registry, conns chan<- *Conn) *httptest.Server {
	t.Helper()
	up := NewUpgrader(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := NewConn(ws, 1024, nopLogger{})
		if conns != nil {
			conns <- conn
		}
		room := strings.TrimPrefix(r.URL.Path, "/ws/")
		if err := reg.Serve(r.Context(), conn, room); err != nil {
			_ = conn.CloseWith(CloseTryAgainLater, err.Error())
			return
		}
		_ = conn.Close()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, room string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + room
	ws, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func readText(t *testing.T, ws *websocket.Conn) string {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	typ, msg, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, typ)
	return string(msg)
}

func expectNothing(t *testing.T, ws *websocket.Conn) {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, msg, err := ws.ReadMessage()
	assert.Error(t, err, "unexpected message %q", msg)
}

func TestRelayRooms(t *testing.T) {
	reg := chat.NewRegistry(0, nopLogger{})
	srv := newRelayServer(t, reg, nil)

	c1 := dial(t, srv, "r1")
	c2 := dial(t, srv, "r1")
	c3 := dial(t, srv, "r2")
	require.Eventually(t, func() bool { return reg.Len() == 3 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c1.WriteMessage(websocket.TextMessage, []byte("ping")))
	assert.Equal(t, "ping", readText(t, c2))
	assert.Equal(t, "ping", readText(t, c1))
	expectNothing(t, c3)

	assert.Equal(t, 2, reg.SendFile("r1", []byte("file")))
	assert.Equal(t, "ZmlsZQ==", readText(t, c2))
}

func TestRelayDisconnect(t *testing.T) {
	reg := chat.NewRegistry(2, nopLogger{})
	srv := newRelayServer(t, reg, nil)

	c1 := dial(t, srv, "r1")
	dial(t, srv, "r1")
	require.Eventually(t, func() bool { return reg.Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c1.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_ = c1.Close()
	assert.Eventually(t, func() bool { return reg.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	// the freed slot is available again
	dial(t, srv, "r2")
	assert.Eventually(t, func() bool { return reg.Len() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestRelayCapacity(t *testing.T) {
	reg := chat.NewRegistry(1, nopLogger{})
	srv := newRelayServer(t, reg, nil)

	dial(t, srv, "r1")
	require.Eventually(t, func() bool { return reg.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	refused := dial(t, srv, "r1")
	require.NoError(t, refused.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := refused.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, CloseTryAgainLater, closeErr.Code)
	assert.Equal(t, chat.ErrCapacityExceeded.Error(), closeErr.Text)
	assert.Equal(t, 1, reg.Len())
}

func TestConnSendAfterClose(t *testing.T) {
	reg := chat.NewRegistry(0, nopLogger{})
	conns := make(chan *Conn, 1)
	srv := newRelayServer(t, reg, conns)

	client := dial(t, srv, "r1")
	conn := <-conns
	require.NoError(t, conn.Send([]byte("hello")))
	assert.Equal(t, "hello", readText(t, client))

	require.NoError(t, conn.Close())
	assert.Equal(t, ErrClosed, conn.Send([]byte("late")))

	_, _, err := client.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestUpgraderOrigins(t *testing.T) {
	check := func(up *websocket.Upgrader, origin string) bool {
		r := httptest.NewRequest(http.MethodGet, "/ws/r1", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return up.CheckOrigin(r)
	}

	open := NewUpgrader(nil)
	assert.True(t, check(open, "https://evil.example"))

	up := NewUpgrader([]string{"https://App.Example.com", "not an origin"})
	assert.True(t, check(up, "https://app.example.com"))
	assert.False(t, check(up, "https://evil.example"))
	assert.True(t, check(up, ""))

	assert.True(t, check(NewUpgrader([]string{"*"}), "https://evil.example"))
}
