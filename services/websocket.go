package services

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"jobboard_back_end_go/apperrors"
	"jobboard_back_end_go/logger"
	"jobboard_back_end_go/models"
	"jobboard_back_end_go/realtime"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
	sendBuffer     = 64
)

// inbound frame types
const (
	frameOpenThread  = "open_thread"
	frameCloseThread = "close_thread"
	frameSend        = "send"
	frameMarkRead    = "mark_read"
)

// outbound frame types
const (
	frameConversations = "conversations"
	frameThread        = "thread"
	frameSent          = "sent"
	frameError         = "error"
)

type inboundFrame struct {
	Type          string  `json:"type"`
	CounterpartID string  `json:"counterpart_id,omitempty"`
	ReceiverID    string  `json:"receiver_id,omitempty"`
	Content       string  `json:"content,omitempty"`
	ApplicationID *string `json:"application_id,omitempty"`
}

type conversationsFrame struct {
	Type          string                `json:"type"`
	Conversations []models.Conversation `json:"conversations"`
	UnreadTotal   int                   `json:"unread_total"`
}

type threadFrame struct {
	Type          string           `json:"type"`
	CounterpartID string           `json:"counterpart_id"`
	Messages      []models.Message `json:"messages"`
}

type sentFrame struct {
	Type    string         `json:"type"`
	Message models.Message `json:"message"`
}

type errorFrame struct {
	Type    string         `json:"type"`
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
	Draft   string         `json:"draft,omitempty"`
}

// ChatSocket serves the live messaging channel. Each connection owns its
// listeners; nothing is shared between connections except the broker.
type ChatSocket struct {
	chat     *ChatService
	logger   *logger.Logger
	upgrader websocket.Upgrader
}

func NewChatSocket(chat *ChatService, l *logger.Logger, allowedOrigins []string) *ChatSocket {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &ChatSocket{
		chat:   chat,
		logger: l,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

type Client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
	chat   *ChatService
	logger *logger.Logger

	list   *Listener[conversationsFrame]
	thread *Listener[threadFrame]
}

// ServeWs upgrades the request and blocks until the connection ends. The
// listeners it mounts are released on every way out.
func (h *ChatSocket) ServeWs(c *gin.Context, userID string) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "user_id", userID, "err", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		chat:   h.chat,
		logger: h.logger.With("user_id", userID),
	}
	client.list = client.newListListener()

	h.logger.Info("websocket connected", "user_id", userID)
	defer func() {
		client.stopListeners()
		cancel()
		close(client.send)
		h.logger.Info("websocket disconnected", "user_id", userID)
	}()

	go client.writePump()

	if err := client.list.Start(ctx, realtime.Filter{UserID: userID}); err != nil {
		client.pushError(err)
	}
	client.readPump(ctx)
}

func (c *Client) newListListener() *Listener[conversationsFrame] {
	return NewListener(ListenerConfig[conversationsFrame]{
		Name:   "conversations",
		Broker: c.chat.Broker(),
		Logger: c.logger,
		Refresh: func(ctx context.Context) (conversationsFrame, error) {
			conversations, err := c.chat.ListConversations(ctx, c.userID)
			if err != nil {
				return conversationsFrame{}, err
			}
			unread, err := c.chat.UnreadCount(ctx, c.userID)
			if err != nil {
				return conversationsFrame{}, err
			}
			return conversationsFrame{Type: frameConversations, Conversations: conversations, UnreadTotal: unread}, nil
		},
		Apply:   func(f conversationsFrame) { c.push(f) },
		OnError: c.pushError,
	})
}

func (c *Client) newThreadListener(counterpartID string) *Listener[threadFrame] {
	return NewListener(ListenerConfig[threadFrame]{
		Name:   "thread",
		Broker: c.chat.Broker(),
		Logger: c.logger.With("counterpart_id", counterpartID),
		Refresh: func(ctx context.Context) (threadFrame, error) {
			messages, err := c.chat.OpenThread(ctx, c.userID, counterpartID)
			if err != nil {
				return threadFrame{}, err
			}
			return threadFrame{Type: frameThread, CounterpartID: counterpartID, Messages: messages}, nil
		},
		Apply:   func(f threadFrame) { c.push(f) },
		OnError: c.pushError,
	})
}

func (c *Client) stopListeners() {
	if c.thread != nil {
		c.thread.Stop()
	}
	c.list.Stop()
}

func (c *Client) readPump(ctx context.Context) {
	defer c.conn.Close()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame inboundFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read failed", "err", err)
			}
			return
		}
		c.handle(ctx, frame)
	}
}

func (c *Client) handle(ctx context.Context, frame inboundFrame) {
	switch frame.Type {
	case frameOpenThread:
		if _, err := uuid.Parse(frame.CounterpartID); err != nil {
			c.pushError(apperrors.ErrInvalidUserID)
			return
		}
		if c.thread != nil {
			c.thread.Stop()
		}
		c.thread = c.newThreadListener(frame.CounterpartID)
		if err := c.thread.Start(ctx, realtime.Filter{UserID: c.userID, CounterpartID: frame.CounterpartID}); err != nil {
			c.pushError(err)
		}

	case frameCloseThread:
		if c.thread != nil {
			c.thread.Stop()
			c.thread = nil
		}

	case frameSend:
		msg, err := c.chat.SendMessage(ctx, models.NewMessage{
			SenderID:      c.userID,
			ReceiverID:    frame.ReceiverID,
			Content:       frame.Content,
			ApplicationID: frame.ApplicationID,
		})
		if err != nil {
			c.pushError(err)
			return
		}
		c.push(sentFrame{Type: frameSent, Message: msg})

	case frameMarkRead:
		if c.thread == nil {
			return
		}
		counterpartID := c.thread.Filter().CounterpartID
		if _, err := c.chat.MarkThreadRead(ctx, c.userID, counterpartID); err != nil {
			c.logger.Warn("mark read failed", "counterpart_id", counterpartID, "err", err)
		}

	default:
		c.pushError(apperrors.InvalidArg("unknown frame type: " + frame.Type))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn("websocket write failed", "err", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// push never blocks: a client that stopped reading loses frames, and the
// next refresh carries the full state anyway.
func (c *Client) push(frame interface{}) {
	payload, err := json.Marshal(frame)
	if err != nil {
		c.logger.Error("encoding websocket frame", "err", err)
		return
	}
	select {
	case c.send <- payload:
	default:
		c.logger.Warn("websocket send buffer full, dropping frame")
	}
}

func (c *Client) pushError(err error) {
	c.push(errorFrame{
		Type:    frameError,
		Code:    apperrors.CodeOf(err),
		Message: err.Error(),
		Draft:   apperrors.DraftOf(err),
	})
}
