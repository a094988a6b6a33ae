package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmadesk/pharmacy-api/internal/application/service"
	"github.com/pharmadesk/pharmacy-api/internal/presentation/http/dto/request"
	"github.com/pharmadesk/pharmacy-api/internal/presentation/http/dto/response"
)

// ReturnsHandler handles return eligibility, returns and refunds
type ReturnsHandler struct {
	returnsService *service.ReturnsService
}

// NewReturnsHandler creates a new returns handler
func NewReturnsHandler(returnsService *service.ReturnsService) *ReturnsHandler {
	return &ReturnsHandler{returnsService: returnsService}
}

// SearchInvoices handles GET /returns/invoices/search?q=
func (h *ReturnsHandler) SearchInvoices(c *gin.Context) {
	invoices, err := h.returnsService.SearchInvoices(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Invoices retrieved", invoices)
}

// GetReturnableInvoice handles GET /returns/invoices/:id
func (h *ReturnsHandler) GetReturnableInvoice(c *gin.Context) {
	invoiceID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.returnsService.GetReturnableInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Invoice retrieved", result)
}

// CreateReturn handles POST /returns
func (h *ReturnsHandler) CreateReturn(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req request.ReturnItemRequest
	if !bindJSON(c, &req) {
		return
	}
	saleID, _ := uuid.Parse(req.SaleID)

	ret, err := h.returnsService.RecordReturn(c.Request.Context(), service.ReturnInput{
		SaleID:   saleID,
		Quantity: req.Quantity,
		Reason:   req.Reason,
	}, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Return recorded", ret)
}

// CreateReturnBatch handles POST /returns/batch
func (h *ReturnsHandler) CreateReturnBatch(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req request.BatchReturnRequest
	if !bindJSON(c, &req) {
		return
	}

	items := make([]service.ReturnInput, 0, len(req.Items))
	for _, item := range req.Items {
		saleID, _ := uuid.Parse(item.SaleID)
		items = append(items, service.ReturnInput{
			SaleID:   saleID,
			Quantity: item.Quantity,
			Reason:   item.Reason,
		})
	}

	result, err := h.returnsService.RecordReturnBatch(c.Request.Context(), items, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "Batch processed"
	if len(result.Failed) > 0 && len(result.Committed) > 0 {
		message = "Batch partially processed"
	} else if len(result.Failed) > 0 {
		message = "No returns were recorded"
	}
	response.OK(c, message, result)
}

// GetReturn handles GET /returns/:id
func (h *ReturnsHandler) GetReturn(c *gin.Context) {
	returnID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	ret, refund, err := h.returnsService.GetReturnDetails(c.Request.Context(), returnID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Return retrieved", gin.H{
		"return": ret,
		"refund": refund,
	})
}

// CreateRefund handles POST /refunds
func (h *ReturnsHandler) CreateRefund(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req request.RefundRequest
	if !bindJSON(c, &req) {
		return
	}
	returnID, _ := uuid.Parse(req.ReturnID)

	refund, err := h.returnsService.RecordRefund(c.Request.Context(), service.RefundInput{
		ReturnID:      returnID,
		PaymentMethod: req.PaymentMethod,
		Reason:        req.Reason,
	}, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Refund recorded", refund)
}

// ListReturns handles GET /returns?customer_id=&page=&per_page=
func (h *ReturnsHandler) ListReturns(c *gin.Context) {
	customerID, ok := optionalUUIDQuery(c, "customer_id")
	if !ok {
		return
	}
	params := bindPagination(c)

	returns, pag, err := h.returnsService.ListReturnHistory(c.Request.Context(), customerID, params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, "Returns retrieved", returns, pag)
}

// ListRefunds handles GET /refunds?customer_id=&page=&per_page=
func (h *ReturnsHandler) ListRefunds(c *gin.Context) {
	customerID, ok := optionalUUIDQuery(c, "customer_id")
	if !ok {
		return
	}
	params := bindPagination(c)

	refunds, pag, err := h.returnsService.ListRefundHistory(c.Request.Context(), customerID, params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, "Refunds retrieved", refunds, pag)
}
