package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/netbillhq/netbill/internal/billing"
	"github.com/netbillhq/netbill/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SubscriptionHandler serves the subscription lifecycle endpoints. All
// mutations go through the billing engine; the handler never writes
// subscription or payment rows directly.
type SubscriptionHandler struct {
	db     *gorm.DB        // Database handle for reads.
	engine *billing.Engine // Billing engine for mutations.
}

// NewSubscriptionHandler constructs a subscription handler.
func NewSubscriptionHandler(db *gorm.DB, engine *billing.Engine) *SubscriptionHandler {
	return &SubscriptionHandler{db: db, engine: engine}
}

// createSubscriptionRequest captures the payload for creating a subscription.
type createSubscriptionRequest struct {
	SiteID          uint64  `json:"site_id"`           // Related site ID.
	PaymentMethodID *uint64 `json:"payment_method_id"` // Optional payment method ID.

	BasePrice   decimal.Decimal `json:"base_price"`    // Monthly base price.
	SMSFee      decimal.Decimal `json:"sms_fee"`       // Monthly SMS fee.
	LineFee     decimal.Decimal `json:"line_fee"`      // Monthly line fee.
	StaticIPFee decimal.Decimal `json:"static_ip_fee"` // Monthly static IP fee.
	VATRate     decimal.Decimal `json:"vat_rate"`      // VAT percentage.

	Cost         decimal.Decimal `json:"cost"`           // Internal monthly cost.
	StaticIPCost decimal.Decimal `json:"static_ip_cost"` // Internal static IP cost.
	Currency     string          `json:"currency"`       // ISO currency code.

	BillingFrequency string `json:"billing_frequency"` // monthly, 6_month, or yearly.
	BillingDay       int    `json:"billing_day"`       // Due day of month (1-31).
	StartDate        string `json:"start_date"`        // RFC3339 first period start.
}

// Create validates input and creates a subscription with its schedule.
func (h *SubscriptionHandler) Create(c *gin.Context) {
	var body createSubscriptionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	startDate, errParse := time.Parse(time.RFC3339, body.StartDate)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date format, use RFC3339"})
		return
	}

	sub, errCreate := h.engine.CreateSubscription(c.Request.Context(), billing.CreateSubscriptionParams{
		SiteID:          body.SiteID,
		PaymentMethodID: body.PaymentMethodID,
		BasePrice:       body.BasePrice,
		SMSFee:          body.SMSFee,
		LineFee:         body.LineFee,
		StaticIPFee:     body.StaticIPFee,
		VATRate:         body.VATRate,
		Cost:            body.Cost,
		StaticIPCost:    body.StaticIPCost,
		Currency:        body.Currency,
		Frequency:       body.BillingFrequency,
		BillingDay:      body.BillingDay,
		StartDate:       startDate,
	}, actorID(c))
	if errCreate != nil {
		respondEngineError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// List returns subscriptions filtered by query parameters.
func (h *SubscriptionHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Subscription{})
	if siteIDQ := strings.TrimSpace(c.Query("site_id")); siteIDQ != "" {
		if id, errParse := strconv.ParseUint(siteIDQ, 10, 64); errParse == nil {
			q = q.Where("site_id = ?", id)
		}
	}
	if statusQ := models.SubscriptionStatus(strings.TrimSpace(c.Query("status"))); statusQ != "" && statusQ.Valid() {
		q = q.Where("status = ?", statusQ)
	}

	var rows []models.Subscription
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list subscriptions failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": rows})
}

// Get returns a subscription by ID.
func (h *SubscriptionHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var sub models.Subscription
	if errFind := h.db.WithContext(c.Request.Context()).First(&sub, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, sub)
}

// updateSubscriptionRequest captures optional fields for subscription updates.
type updateSubscriptionRequest struct {
	BasePrice   *decimal.Decimal `json:"base_price"`    // Optional monthly base price.
	SMSFee      *decimal.Decimal `json:"sms_fee"`       // Optional monthly SMS fee.
	LineFee     *decimal.Decimal `json:"line_fee"`      // Optional monthly line fee.
	StaticIPFee *decimal.Decimal `json:"static_ip_fee"` // Optional static IP fee.
	VATRate     *decimal.Decimal `json:"vat_rate"`      // Optional VAT percentage.

	Cost         *decimal.Decimal `json:"cost"`           // Optional internal cost.
	StaticIPCost *decimal.Decimal `json:"static_ip_cost"` // Optional static IP cost.
	Currency     *string          `json:"currency"`       // Optional currency code.
	BillingDay   *int             `json:"billing_day"`    // Optional due day.

	PaymentMethodID *uint64 `json:"payment_method_id"` // Optional payment method ID.

	Status       *string `json:"status"`        // Optional lifecycle state.
	PauseReason  *string `json:"pause_reason"`  // Reason when pausing via status.
	CancelReason *string `json:"cancel_reason"` // Reason when cancelling via status.
}

// Update applies a patch through the billing engine's revision path.
func (h *SubscriptionHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body updateSubscriptionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	patch := billing.SubscriptionPatch{
		BasePrice:       body.BasePrice,
		SMSFee:          body.SMSFee,
		LineFee:         body.LineFee,
		StaticIPFee:     body.StaticIPFee,
		VATRate:         body.VATRate,
		Cost:            body.Cost,
		StaticIPCost:    body.StaticIPCost,
		Currency:        body.Currency,
		BillingDay:      body.BillingDay,
		PaymentMethodID: body.PaymentMethodID,
		PauseReason:     body.PauseReason,
		CancelReason:    body.CancelReason,
	}
	if body.Status != nil {
		status := models.SubscriptionStatus(strings.TrimSpace(*body.Status))
		patch.Status = &status
	}

	sub, errUpdate := h.engine.UpdateSubscription(c.Request.Context(), id, patch, actorID(c))
	if errUpdate != nil {
		respondEngineError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// transitionReasonRequest captures the reason payload for pause and cancel.
type transitionReasonRequest struct {
	Reason         string `json:"reason"`           // Mandatory transition reason.
	WriteOffUnpaid bool   `json:"write_off_unpaid"` // Cancel only: write off pending rows.
}

// Pause suspends a subscription.
func (h *SubscriptionHandler) Pause(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body transitionReasonRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	sub, errPause := h.engine.Pause(c.Request.Context(), id, body.Reason, actorID(c))
	if errPause != nil {
		respondEngineError(c, errPause)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// Cancel terminates a subscription.
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body transitionReasonRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	sub, errCancel := h.engine.Cancel(c.Request.Context(), id, body.Reason, body.WriteOffUnpaid, actorID(c))
	if errCancel != nil {
		respondEngineError(c, errCancel)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// Reactivate resumes a paused subscription.
func (h *SubscriptionHandler) Reactivate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	sub, errReactivate := h.engine.Reactivate(c.Request.Context(), id, actorID(c))
	if errReactivate != nil {
		respondEngineError(c, errReactivate)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// ListPayments returns the payment schedule of a subscription.
func (h *SubscriptionHandler) ListPayments(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var rows []models.Payment
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("subscription_id = ?", id).
		Order("payment_month ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list payments failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": rows})
}
