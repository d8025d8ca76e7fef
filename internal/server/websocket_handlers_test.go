package server

import (
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"factoryfeed/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen serves the app on a loopback port and returns its address.
func (ts *testServer) listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	app := ts.App()
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return ln.Addr().String()
}

func TestWebsocket_ReceivesFeedEvents(t *testing.T) {
	ts := newTestServer(t, "")
	token := ts.signup(t, "alice")
	addr := ts.listen(t)

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/api/ws?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.Eventually(t, func() bool { return ts.hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	post := ts.createPost(t, token, "live update")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type    string `json:"type"`
		Payload struct {
			Post models.Post `json:"post"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, models.EventPostCreated, event.Type)
	assert.Equal(t, post.ID, event.Payload.Post.ID)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.Eventually(t, func() bool { return ts.hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebsocket_RejectsBadToken(t *testing.T) {
	ts := newTestServer(t, "")
	addr := ts.listen(t)

	_, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/api/ws?token=bogus", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
