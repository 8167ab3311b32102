package handler

import (
	"net/http"

	"github.com/farelink/service-estimates/internal/domain/estimate"
	"github.com/gin-gonic/gin"
)

// respondError maps a typed estimate error onto an HTTP status and a JSON
// error body. Anything untyped is an internal error.
func respondError(c *gin.Context, err error) {
	kind := estimate.KindOf(err)

	var status int
	switch kind {
	case estimate.KindInvalidRequest:
		status = http.StatusBadRequest
	case estimate.KindNotFound:
		status = http.StatusNotFound
	case estimate.KindCredential, estimate.KindUpstream:
		status = http.StatusBadGateway
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(status, gin.H{
		"error": gin.H{
			"kind":    string(kind),
			"message": err.Error(),
		},
	})
}
