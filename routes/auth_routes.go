package routes

import (
	"net/http"

	"jobboard_back_end_go/apperrors"
	"jobboard_back_end_go/auth"
	"jobboard_back_end_go/models"

	"github.com/gin-gonic/gin"
)

func SetupAuthRoutes(r *gin.Engine, authn *auth.Authenticator) {
	r.POST("/api/v1/auth/login", func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperrors.InvalidArg("email and password are required"))
			return
		}
		session, err := authn.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, session)
	})

	protected := r.Group("/api/v1/auth", authn.Middleware())

	// Rehydrates the session from a stored token on app start
	protected.GET("/session", func(c *gin.Context) {
		session, _ := auth.SessionFromContext(c)
		c.JSON(http.StatusOK, session)
	})

	protected.POST("/logout", func(c *gin.Context) {
		session, _ := auth.SessionFromContext(c)
		authn.Logout(session)
		c.Status(http.StatusNoContent)
	})
}
