package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/netbillhq/netbill/internal/models"
	"gorm.io/gorm"
)

// AuditLogHandler serves read-only access to the audit trail.
type AuditLogHandler struct {
	db *gorm.DB // Database handle for audit records.
}

// NewAuditLogHandler constructs an audit log handler.
func NewAuditLogHandler(db *gorm.DB) *AuditLogHandler {
	return &AuditLogHandler{db: db}
}

// List returns audit entries filtered by query parameters, newest first.
func (h *AuditLogHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.AuditLog{})
	if tableQ := strings.TrimSpace(c.Query("table")); tableQ != "" {
		q = q.Where("table_name = ?", tableQ)
	}
	if recordIDQ := strings.TrimSpace(c.Query("record_id")); recordIDQ != "" {
		if id, errParse := strconv.ParseUint(recordIDQ, 10, 64); errParse == nil {
			q = q.Where("record_id = ?", id)
		}
	}
	if actionQ := strings.TrimSpace(c.Query("action")); actionQ != "" {
		q = q.Where("action = ?", actionQ)
	}
	if actorQ := strings.TrimSpace(c.Query("user_id")); actorQ != "" {
		if id, errParse := strconv.ParseUint(actorQ, 10, 64); errParse == nil {
			q = q.Where("user_id = ?", id)
		}
	}

	limit := 100
	if limitQ := strings.TrimSpace(c.Query("limit")); limitQ != "" {
		if parsed, errParse := strconv.Atoi(limitQ); errParse == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}

	var rows []models.AuditLog
	if errFind := q.Order("created_at DESC").Limit(limit).Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list audit logs failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": rows})
}
