package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/netbillhq/netbill/internal/models"
	"gorm.io/gorm"
)

// SiteHandler manages admin CRUD endpoints for sites.
type SiteHandler struct {
	db *gorm.DB // Database handle for site records.
}

// NewSiteHandler constructs a site handler.
func NewSiteHandler(db *gorm.DB) *SiteHandler {
	return &SiteHandler{db: db}
}

// createSiteRequest captures the payload for creating a site.
type createSiteRequest struct {
	CustomerID uint64 `json:"customer_id"` // Owning customer ID.
	Label      string `json:"label"`       // Site display label.
	Address    string `json:"address"`     // Street address.
	City       string `json:"city"`        // City name.
}

// Create validates input and inserts a site record.
func (h *SiteHandler) Create(c *gin.Context) {
	var body createSiteRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.CustomerID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_id is required"})
		return
	}
	if strings.TrimSpace(body.Label) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "label is required"})
		return
	}

	var customer models.Customer
	if errFind := h.db.WithContext(c.Request.Context()).First(&customer, body.CustomerID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query customer failed"})
		return
	}

	now := time.Now().UTC()
	site := models.Site{
		CustomerID: body.CustomerID,
		Label:      strings.TrimSpace(body.Label),
		Address:    strings.TrimSpace(body.Address),
		City:       strings.TrimSpace(body.City),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&site).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create site failed"})
		return
	}
	c.JSON(http.StatusCreated, site)
}

// List returns sites, optionally filtered by customer.
func (h *SiteHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Site{})
	if customerIDQ := strings.TrimSpace(c.Query("customer_id")); customerIDQ != "" {
		if id, errParse := strconv.ParseUint(customerIDQ, 10, 64); errParse == nil {
			q = q.Where("customer_id = ?", id)
		}
	}

	var rows []models.Site
	if errFind := q.Order("label ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list sites failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sites": rows})
}

// Get returns a site by ID with its subscriptions preloaded.
func (h *SiteHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var site models.Site
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("Subscriptions").First(&site, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, site)
}

// updateSiteRequest captures optional fields for site updates.
type updateSiteRequest struct {
	Label   *string `json:"label"`   // Optional display label.
	Address *string `json:"address"` // Optional street address.
	City    *string `json:"city"`    // Optional city name.
}

// Update validates and applies site field updates.
func (h *SiteHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body updateSiteRequest
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
	if body.Address != nil {
		updates["address"] = strings.TrimSpace(*body.Address)
	}
	if body.City != nil {
		updates["city"] = strings.TrimSpace(*body.City)
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.Site{}).
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

// Delete removes a site by ID.
func (h *SiteHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	res := h.db.WithContext(c.Request.Context()).Delete(&models.Site{}, id)
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
