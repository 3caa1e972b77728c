package notify

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubFansOutToAllClients(t *testing.T) {
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	go hub.Run()

	router := gin.New()
	router.GET("/ws", hub.ServeWS)
	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	var conns []*websocket.Conn
	for i := 0; i < 2; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		defer conn.Close()
		conns = append(conns, conn)
	}

	// Registration happens after the upgrade handshake; give the hub loop a
	// moment to pick both clients up before broadcasting.
	time.Sleep(100 * time.Millisecond)

	hub.Broadcast(map[string]any{"queue": []any{}})

	for _, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(raw, &payload))
		assert.Contains(t, payload, "queue")
	}
}

func TestHubBroadcastWithoutClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Nothing is connected; the broadcast must not block or panic.
	hub.Broadcast(map[string]any{"queue": []any{}})
}
