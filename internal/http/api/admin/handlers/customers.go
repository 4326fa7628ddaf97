package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/netbillhq/netbill/internal/db"
	"github.com/netbillhq/netbill/internal/models"
	"gorm.io/gorm"
)

// CustomerHandler manages admin CRUD endpoints for customers.
type CustomerHandler struct {
	db *gorm.DB // Database handle for customer records.
}

// NewCustomerHandler constructs a customer handler.
func NewCustomerHandler(db *gorm.DB) *CustomerHandler {
	return &CustomerHandler{db: db}
}

// createCustomerRequest captures the payload for creating a customer.
type createCustomerRequest struct {
	Name      string `json:"name"`       // Display name.
	Email     string `json:"email"`      // Contact email.
	Phone     string `json:"phone"`      // Contact phone.
	TaxNumber string `json:"tax_number"` // Tax registration number.
	TaxOffice string `json:"tax_office"` // Tax office name.
	Notes     string `json:"notes"`      // Free-form notes.
}

// Create validates input and inserts a customer record.
func (h *CustomerHandler) Create(c *gin.Context) {
	var body createCustomerRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	now := time.Now().UTC()
	customer := models.Customer{
		Name:      strings.TrimSpace(body.Name),
		Email:     strings.TrimSpace(body.Email),
		Phone:     strings.TrimSpace(body.Phone),
		TaxNumber: strings.TrimSpace(body.TaxNumber),
		TaxOffice: strings.TrimSpace(body.TaxOffice),
		Notes:     body.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&customer).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create customer failed"})
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// List returns customers, optionally filtered by a name/email search term.
func (h *CustomerHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Customer{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := db.NormalizeLikePattern(h.db, "%"+search+"%")
		q = q.Where(h.db.Where(db.CaseInsensitiveLikeExpr(h.db, "name"), pattern).
			Or(db.CaseInsensitiveLikeExpr(h.db, "email"), pattern))
	}

	var rows []models.Customer
	if errFind := q.Order("name ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list customers failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": rows})
}

// Get returns a customer by ID with its sites preloaded.
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var customer models.Customer
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("Sites").First(&customer, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, customer)
}

// updateCustomerRequest captures optional fields for customer updates.
type updateCustomerRequest struct {
	Name      *string `json:"name"`       // Optional display name.
	Email     *string `json:"email"`      // Optional contact email.
	Phone     *string `json:"phone"`      // Optional contact phone.
	TaxNumber *string `json:"tax_number"` // Optional tax number.
	TaxOffice *string `json:"tax_office"` // Optional tax office.
	Notes     *string `json:"notes"`      // Optional notes.
}

// Update validates and applies customer field updates.
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body updateCustomerRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if body.Name != nil {
		if strings.TrimSpace(*body.Name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
			return
		}
		updates["name"] = strings.TrimSpace(*body.Name)
	}
	if body.Email != nil {
		updates["email"] = strings.TrimSpace(*body.Email)
	}
	if body.Phone != nil {
		updates["phone"] = strings.TrimSpace(*body.Phone)
	}
	if body.TaxNumber != nil {
		updates["tax_number"] = strings.TrimSpace(*body.TaxNumber)
	}
	if body.TaxOffice != nil {
		updates["tax_office"] = strings.TrimSpace(*body.TaxOffice)
	}
	if body.Notes != nil {
		updates["notes"] = *body.Notes
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.Customer{}).
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

// Delete removes a customer by ID.
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	res := h.db.WithContext(c.Request.Context()).Delete(&models.Customer{}, id)
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
