package routes

import (
	"net/http"

	"jobboard_back_end_go/auth"
	"jobboard_back_end_go/services"

	"github.com/gin-gonic/gin"
)

func SetupProfileRoutes(r *gin.Engine, chat *services.ChatService, authn *auth.Authenticator) {
	api := r.Group("/api/v1", authn.Middleware())

	// Endpoint to search users to start a conversation with
	api.GET("/search/:username", func(c *gin.Context) {
		profiles, err := chat.SearchProfiles(c.Request.Context(), c.Param("username"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, profiles)
	})

	api.GET("/profiles/:profileId", func(c *gin.Context) {
		profile, err := chat.GetProfile(c.Request.Context(), c.Param("profileId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, profile)
	})
}
