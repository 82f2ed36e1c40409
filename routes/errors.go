package routes

import (
	"errors"
	"net/http"

	"jobboard_back_end_go/apperrors"

	"github.com/gin-gonic/gin"
)

func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.CodeInvalidArgument:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.CodePermissionDenied:
		return http.StatusForbidden
	case apperrors.CodeFailedPrecondition:
		return http.StatusConflict
	case apperrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON. Store errors behind an AppError are not
// shown to the client, only the AppError's own message.
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": apperrors.CodeInternal})
		return
	}

	body := gin.H{"error": appErr.Message, "code": appErr.Code}
	if appErr.Draft != "" {
		body["draft"] = appErr.Draft
	}
	c.JSON(statusFor(appErr.Code), body)
}
