package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/netbillhq/netbill/internal/billing"
	"github.com/netbillhq/netbill/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentHandler serves payment read and recording endpoints. Recording
// goes through the billing engine.
type PaymentHandler struct {
	db     *gorm.DB        // Database handle for reads.
	engine *billing.Engine // Billing engine for mutations.
}

// NewPaymentHandler constructs a payment handler.
func NewPaymentHandler(db *gorm.DB, engine *billing.Engine) *PaymentHandler {
	return &PaymentHandler{db: db, engine: engine}
}

// Get returns a payment by ID.
func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payment models.Payment
	if errFind := h.db.WithContext(c.Request.Context()).First(&payment, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, payment)
}

// recordPaymentRequest captures the settlement payload for a payment.
type recordPaymentRequest struct {
	PaymentDate   string           `json:"payment_date"`   // RFC3339 settlement date.
	PaymentMethod string           `json:"payment_method"` // cash, card, or bank_transfer.
	ShouldInvoice bool             `json:"should_invoice"` // Invoice choice; forced for card.
	VATRate       *decimal.Decimal `json:"vat_rate"`       // Optional VAT override.
	InvoiceNo     string           `json:"invoice_no"`     // Invoice number when invoicing.
	InvoiceType   string           `json:"invoice_type"`   // Invoice type when invoicing.
	ReferenceNo   string           `json:"reference_no"`   // Bank transfer reference.
	Notes         string           `json:"notes"`          // Free-form notes.
}

// Record marks a pending payment as paid via the billing engine.
func (h *PaymentHandler) Record(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body recordPaymentRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	paymentDate, errParse := time.Parse(time.RFC3339, body.PaymentDate)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment_date format, use RFC3339"})
		return
	}

	params := billing.RecordPaymentParams{
		PaymentDate:   paymentDate,
		PaymentMethod: body.PaymentMethod,
		ShouldInvoice: body.ShouldInvoice,
		InvoiceNo:     body.InvoiceNo,
		InvoiceType:   body.InvoiceType,
		ReferenceNo:   body.ReferenceNo,
		Notes:         body.Notes,
	}
	if body.VATRate != nil {
		params.VATRate = decimal.NewNullDecimal(*body.VATRate)
	}

	payment, errRecord := h.engine.RecordPayment(c.Request.Context(), id, params, actorID(c))
	if errRecord != nil {
		respondEngineError(c, errRecord)
		return
	}
	c.JSON(http.StatusOK, payment)
}
