package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/netbillhq/netbill/internal/models"
	"gorm.io/gorm"
)

// WorkOrderHandler manages admin CRUD endpoints for work orders.
type WorkOrderHandler struct {
	db *gorm.DB // Database handle for work order records.
}

// NewWorkOrderHandler constructs a work order handler.
func NewWorkOrderHandler(db *gorm.DB) *WorkOrderHandler {
	return &WorkOrderHandler{db: db}
}

// createWorkOrderRequest captures the payload for creating a work order.
type createWorkOrderRequest struct {
	SiteID       uint64  `json:"site_id"`       // Related site ID.
	Title        string  `json:"title"`         // Short summary.
	Notes        string  `json:"notes"`         // Work details.
	ScheduledFor *string `json:"scheduled_for"` // Optional RFC3339 planned date.
}

// Create validates input and inserts a work order record.
func (h *WorkOrderHandler) Create(c *gin.Context) {
	var body createWorkOrderRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.SiteID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "site_id is required"})
		return
	}
	if strings.TrimSpace(body.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	var scheduledFor *time.Time
	if body.ScheduledFor != nil {
		t, errParse := time.Parse(time.RFC3339, *body.ScheduledFor)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scheduled_for format, use RFC3339"})
			return
		}
		scheduledFor = &t
	}

	now := time.Now().UTC()
	order := models.WorkOrder{
		SiteID:       body.SiteID,
		Title:        strings.TrimSpace(body.Title),
		Notes:        body.Notes,
		Status:       models.WorkOrderOpen,
		ScheduledFor: scheduledFor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&order).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create work order failed"})
		return
	}
	c.JSON(http.StatusCreated, order)
}

// List returns work orders filtered by query parameters.
func (h *WorkOrderHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.WorkOrder{})
	if siteIDQ := strings.TrimSpace(c.Query("site_id")); siteIDQ != "" {
		if id, errParse := strconv.ParseUint(siteIDQ, 10, 64); errParse == nil {
			q = q.Where("site_id = ?", id)
		}
	}
	if statusQ := models.WorkOrderStatus(strings.TrimSpace(c.Query("status"))); statusQ != "" && statusQ.Valid() {
		q = q.Where("status = ?", statusQ)
	}

	var rows []models.WorkOrder
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list work orders failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"work_orders": rows})
}

// updateWorkOrderRequest captures optional fields for work order updates.
type updateWorkOrderRequest struct {
	Title        *string `json:"title"`         // Optional short summary.
	Notes        *string `json:"notes"`         // Optional work details.
	Status       *string `json:"status"`        // Optional progress state.
	ScheduledFor *string `json:"scheduled_for"` // Optional RFC3339 planned date.
}

// Update validates and applies work order field updates.
func (h *WorkOrderHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body updateWorkOrderRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	now := time.Now().UTC()
	updates := map[string]any{"updated_at": now}
	if body.Title != nil {
		if strings.TrimSpace(*body.Title) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title cannot be empty"})
			return
		}
		updates["title"] = strings.TrimSpace(*body.Title)
	}
	if body.Notes != nil {
		updates["notes"] = *body.Notes
	}
	if body.Status != nil {
		status := models.WorkOrderStatus(strings.TrimSpace(*body.Status))
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}
		updates["status"] = status
		if status == models.WorkOrderDone {
			updates["completed_at"] = now
		}
	}
	if body.ScheduledFor != nil {
		t, errParse := time.Parse(time.RFC3339, *body.ScheduledFor)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scheduled_for format"})
			return
		}
		updates["scheduled_for"] = t
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.WorkOrder{}).
		Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Delete removes a work order by ID.
func (h *WorkOrderHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	res := h.db.WithContext(c.Request.Context()).Delete(&models.WorkOrder{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
