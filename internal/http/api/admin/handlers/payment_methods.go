package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/netbillhq/netbill/internal/models"
	"gorm.io/gorm"
)

// PaymentMethodHandler manages admin endpoints for settlement channels.
type PaymentMethodHandler struct {
	db *gorm.DB // Database handle for payment method records.
}

// NewPaymentMethodHandler constructs a payment method handler.
func NewPaymentMethodHandler(db *gorm.DB) *PaymentMethodHandler {
	return &PaymentMethodHandler{db: db}
}

// List returns all configured payment methods.
func (h *PaymentMethodHandler) List(c *gin.Context) {
	var rows []models.PaymentMethod
	if errFind := h.db.WithContext(c.Request.Context()).
		Order("id ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list payment methods failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_methods": rows})
}

// updatePaymentMethodRequest captures optional fields for method updates.
type updatePaymentMethodRequest struct {
	Label     *string `json:"label"`      // Optional display label.
	IsEnabled *bool   `json:"is_enabled"` // Optional selectable flag.
}

// Update applies label or enablement changes to a payment method.
func (h *PaymentMethodHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body updatePaymentMethodRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if body.Label != nil {
		if strings.TrimSpace(*body.Label) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "label cannot be empty"})
			return
		}
		updates["label"] = strings.TrimSpace(*body.Label)
	}
	if body.IsEnabled != nil {
		updates["is_enabled"] = *body.IsEnabled
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.PaymentMethod{}).
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
