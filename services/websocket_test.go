package services

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jobboard_back_end_go/apperrors"
	"jobboard_back_end_go/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testFrame struct {
	Type          string            `json:"type"`
	Conversations []json.RawMessage `json:"conversations"`
	UnreadTotal   int               `json:"unread_total"`
	CounterpartID string            `json:"counterpart_id"`
	Messages      []struct {
		Content string  `json:"content"`
		ReadAt  *string `json:"read_at"`
	} `json:"messages"`
	Code  apperrors.Code `json:"code"`
	Draft string         `json:"draft"`
}

func dialSocket(t *testing.T, f *fixture, userID string) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	socket := NewChatSocket(f.svc, logger.Nop(), nil)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { socket.ServeWs(c, c.Query("user")) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?user=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// next reads frames until one satisfies match.
func next(t *testing.T, conn *websocket.Conn, match func(testFrame) bool) testFrame {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		var f testFrame
		require.NoError(t, conn.ReadJSON(&f))
		if match(f) {
			return f
		}
	}
}

func TestChatSocket_LiveConversationList(t *testing.T) {
	f := newFixture(t)
	conn := dialSocket(t, f, f.alice)

	first := next(t, conn, func(fr testFrame) bool { return fr.Type == frameConversations })
	assert.Empty(t, first.Conversations)

	f.send(t, f.bob, f.alice, "Hello")

	updated := next(t, conn, func(fr testFrame) bool {
		return fr.Type == frameConversations && fr.UnreadTotal == 1
	})
	assert.Len(t, updated.Conversations, 1)
}

func TestChatSocket_OpenThreadMarksRead(t *testing.T) {
	f := newFixture(t)
	f.send(t, f.alice, f.bob, "Hi")
	f.send(t, f.bob, f.alice, "Hello")
	conn := dialSocket(t, f, f.alice)

	next(t, conn, func(fr testFrame) bool { return fr.Type == frameConversations && fr.UnreadTotal == 1 })

	require.NoError(t, conn.WriteJSON(map[string]string{"type": frameOpenThread, "counterpart_id": f.bob}))
	thread := next(t, conn, func(fr testFrame) bool { return fr.Type == frameThread })
	assert.Equal(t, f.bob, thread.CounterpartID)
	require.Len(t, thread.Messages, 2)
	assert.Equal(t, "Hi", thread.Messages[0].Content)

	next(t, conn, func(fr testFrame) bool { return fr.Type == frameConversations && fr.UnreadTotal == 0 })

	// a message arriving on the open thread is read straight away
	f.send(t, f.bob, f.alice, "Still there?")
	next(t, conn, func(fr testFrame) bool {
		return fr.Type == frameThread && len(fr.Messages) == 3 && fr.Messages[2].ReadAt != nil
	})
}

func TestChatSocket_SendErrors(t *testing.T) {
	f := newFixture(t)
	conn := dialSocket(t, f, f.alice)
	next(t, conn, func(fr testFrame) bool { return fr.Type == frameConversations })

	require.NoError(t, conn.WriteJSON(map[string]string{"type": frameSend, "receiver_id": f.bob, "content": "   "}))
	empty := next(t, conn, func(fr testFrame) bool { return fr.Type == frameError })
	assert.Equal(t, apperrors.CodeInvalidArgument, empty.Code)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": frameSend, "receiver_id": f.bob, "content": "Interview at 3?"}))
	next(t, conn, func(fr testFrame) bool { return fr.Type == frameSent })

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "shout"}))
	unknown := next(t, conn, func(fr testFrame) bool { return fr.Type == frameError })
	assert.Equal(t, apperrors.CodeInvalidArgument, unknown.Code)
}

func TestChatSocket_DisconnectReleasesSubscriptions(t *testing.T) {
	f := newFixture(t)
	conn := dialSocket(t, f, f.alice)
	next(t, conn, func(fr testFrame) bool { return fr.Type == frameConversations })

	require.NoError(t, conn.WriteJSON(map[string]string{"type": frameOpenThread, "counterpart_id": f.bob}))
	next(t, conn, func(fr testFrame) bool { return fr.Type == frameThread })
	assert.Equal(t, 2, f.broker.Subscribers())

	require.NoError(t, conn.WriteJSON(map[string]string{"type": frameCloseThread}))
	require.Eventually(t, func() bool { return f.broker.Subscribers() == 1 }, waitFor, tick)

	conn.Close()
	require.Eventually(t, func() bool { return f.broker.Subscribers() == 0 }, waitFor, tick)
}
