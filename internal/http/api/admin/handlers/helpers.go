package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/netbillhq/netbill/internal/billing"
)

// parseIDParam parses the :id route parameter as an unsigned integer.
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// actorID returns the acting admin ID stored by the auth middleware.
func actorID(c *gin.Context) uint64 {
	if v, ok := c.Get("adminID"); ok {
		if id, okCast := v.(uint64); okCast {
			return id
		}
	}
	return 0
}

// respondEngineError maps billing engine errors onto HTTP responses.
func respondEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, billing.ErrValidation), errors.Is(err, billing.ErrInvalidFrequency):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, billing.ErrSubscriptionNotFound), errors.Is(err, billing.ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, billing.ErrInvalidTransition), errors.Is(err, billing.ErrPaymentLocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}
