package routes

import (
	"net/http"

	"jobboard_back_end_go/apperrors"
	"jobboard_back_end_go/auth"
	"jobboard_back_end_go/models"
	"jobboard_back_end_go/services"

	"github.com/gin-gonic/gin"
)

type sendMessageRequest struct {
	ReceiverID    string  `json:"receiver_id" binding:"required"`
	Content       string  `json:"content"`
	ApplicationID *string `json:"application_id"`
}

func currentUser(c *gin.Context) string {
	s, ok := auth.SessionFromContext(c)
	if !ok {
		return ""
	}
	return s.UserID()
}

func SetupChatRoutes(r *gin.Engine, chat *services.ChatService, socket *services.ChatSocket, authn *auth.Authenticator) {
	api := r.Group("/api/v1", authn.Middleware())

	// Conversation list for the signed-in user, most recent first
	api.GET("/conversations", func(c *gin.Context) {
		conversations, err := chat.ListConversations(c.Request.Context(), currentUser(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, conversations)
	})

	api.GET("/messages/unread-count", func(c *gin.Context) {
		n, err := chat.UnreadCount(c.Request.Context(), currentUser(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"unread_count": n})
	})

	// Opening a thread marks what it shows as read
	api.GET("/messages/:counterpartId", func(c *gin.Context) {
		thread, err := chat.OpenThread(c.Request.Context(), currentUser(c), c.Param("counterpartId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, thread)
	})

	api.POST("/messages", func(c *gin.Context) {
		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperrors.InvalidArg("invalid request body"))
			return
		}
		msg, err := chat.SendMessage(c.Request.Context(), models.NewMessage{
			SenderID:      currentUser(c),
			ReceiverID:    req.ReceiverID,
			Content:       req.Content,
			ApplicationID: req.ApplicationID,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, msg)
	})

	api.POST("/messages/:counterpartId/read", func(c *gin.Context) {
		n, err := chat.MarkThreadRead(c.Request.Context(), currentUser(c), c.Param("counterpartId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"marked": n})
	})

	api.DELETE("/messages/:messageId", func(c *gin.Context) {
		if err := chat.DeleteMessage(c.Request.Context(), currentUser(c), c.Param("messageId")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	r.GET("/ws", authn.Middleware(), func(c *gin.Context) {
		socket.ServeWs(c, currentUser(c))
	})
}
