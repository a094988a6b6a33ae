package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/pharmadesk/pharmacy-api/internal/application/service"
	"github.com/pharmadesk/pharmacy-api/internal/presentation/http/dto/response"
)

// PrinterHandler handles receipt printer endpoints
type PrinterHandler struct {
	printerService *service.PrinterService
	billingService *service.BillingService
}

// NewPrinterHandler creates a new printer handler
func NewPrinterHandler(printerService *service.PrinterService, billingService *service.BillingService) *PrinterHandler {
	return &PrinterHandler{
		printerService: printerService,
		billingService: billingService,
	}
}

// Status handles GET /printer/status
func (h *PrinterHandler) Status(c *gin.Context) {
	response.OK(c, "Printer status", h.printerService.GetStatus())
}

// TestPrint handles POST /printer/test
func (h *PrinterHandler) TestPrint(c *gin.Context) {
	if err := h.printerService.TestPrint(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Test page sent to printer", nil)
}

// ReprintReceipt handles POST /printer/receipts/:id
func (h *PrinterHandler) ReprintReceipt(c *gin.Context) {
	invoiceID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.billingService.ReprintReceipt(c.Request.Context(), invoiceID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Receipt queued for printing", nil)
}
