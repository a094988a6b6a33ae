package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmadesk/pharmacy-api/internal/application/service"
	"github.com/pharmadesk/pharmacy-api/internal/domain/enum"
	"github.com/pharmadesk/pharmacy-api/internal/presentation/http/dto/request"
	"github.com/pharmadesk/pharmacy-api/internal/presentation/http/dto/response"
)

// BillingHandler handles catalog search, billing sessions and invoices
type BillingHandler struct {
	billingService *service.BillingService
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(billingService *service.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// SearchMedicines handles GET /medicines/search?q=
func (h *BillingHandler) SearchMedicines(c *gin.Context) {
	results, err := h.billingService.SearchMedicines(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Medicines retrieved", results)
}

// StartSession handles POST /billing/sessions
func (h *BillingHandler) StartSession(c *gin.Context) {
	session := h.billingService.StartSession()
	response.Created(c, "Billing session started", session)
}

// GetSession handles GET /billing/sessions/:id
func (h *BillingHandler) GetSession(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	session, err := h.billingService.GetSession(sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Session retrieved", session)
}

// CloseSession handles DELETE /billing/sessions/:id
func (h *BillingHandler) CloseSession(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	h.billingService.CloseSession(sessionID)
	response.OK(c, "Session closed", nil)
}

// AddToCart handles POST /billing/sessions/:id/items
func (h *BillingHandler) AddToCart(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req request.AddToCartRequest
	if !bindJSON(c, &req) {
		return
	}
	medicineID, _ := uuid.Parse(req.MedicineID)

	session, err := h.billingService.AddToCart(c.Request.Context(), sessionID, medicineID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Item added to cart", session)
}

// UpdateCartQuantity handles PUT /billing/sessions/:id/items/:medicineId
func (h *BillingHandler) UpdateCartQuantity(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	medicineID, ok := parseUUIDParam(c, "medicineId")
	if !ok {
		return
	}
	var req request.UpdateCartQuantityRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.billingService.UpdateCartQuantity(c.Request.Context(), sessionID, medicineID, *req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cart updated", session)
}

// RemoveFromCart handles DELETE /billing/sessions/:id/items/:medicineId
func (h *BillingHandler) RemoveFromCart(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	medicineID, ok := parseUUIDParam(c, "medicineId")
	if !ok {
		return
	}

	session, err := h.billingService.RemoveFromCart(sessionID, medicineID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Item removed from cart", session)
}

// ClearCart handles DELETE /billing/sessions/:id/items
func (h *BillingHandler) ClearCart(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	session, err := h.billingService.ClearCart(sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cart cleared", session)
}

// SetCustomer handles PUT /billing/sessions/:id/customer
func (h *BillingHandler) SetCustomer(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req request.SetCustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	var customerID *uuid.UUID
	if req.CustomerID != nil {
		id, _ := uuid.Parse(*req.CustomerID)
		customerID = &id
	}

	session, err := h.billingService.SetCustomer(c.Request.Context(), sessionID, customerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Customer updated", session)
}

// SetPaymentMethod handles PUT /billing/sessions/:id/payment-method
func (h *BillingHandler) SetPaymentMethod(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req request.SetPaymentMethodRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.billingService.SetPaymentMethod(sessionID, req.PaymentMethod)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Payment method updated", session)
}

// Checkout handles POST /billing/sessions/:id/checkout
func (h *BillingHandler) Checkout(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req request.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	status := enum.PaymentStatusPaid
	if req.PaymentStatus == "Pending" || req.PaymentStatus == "pending" {
		status = enum.PaymentStatusPending
	}

	invoice, err := h.billingService.Checkout(c.Request.Context(), sessionID, status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Invoice created", invoice)
}

// ListPendingInvoices handles GET /billing/invoices/pending
func (h *BillingHandler) ListPendingInvoices(c *gin.Context) {
	invoices, err := h.billingService.ListPendingInvoices(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Pending invoices retrieved", invoices)
}

// GetInvoice handles GET /billing/invoices/:id
func (h *BillingHandler) GetInvoice(c *gin.Context) {
	invoiceID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := h.billingService.GetInvoiceDetails(c.Request.Context(), invoiceID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Invoice retrieved", invoice)
}

// FinalizeInvoice handles POST /billing/invoices/:id/finalize
func (h *BillingHandler) FinalizeInvoice(c *gin.Context) {
	invoiceID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req request.FinalizeInvoiceRequest
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, &req) {
			return
		}
	}

	invoice, err := h.billingService.FinalizeInvoice(c.Request.Context(), invoiceID, req.PaymentMethod)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Invoice finalized", invoice)
}
