package request

// ReturnItemRequest is one requested return against a sale line
type ReturnItemRequest struct {
	SaleID   string `json:"sale_id" binding:"required,uuid"`
	Quantity int    `json:"quantity" binding:"required"`
	Reason   string `json:"reason" binding:"omitempty,max=500"`
}

// BatchReturnRequest submits several returns processed independently
type BatchReturnRequest struct {
	Items []ReturnItemRequest `json:"items" binding:"required,min=1,dive"`
}

// RefundRequest issues the refund for a recorded return
type RefundRequest struct {
	ReturnID      string `json:"return_id" binding:"required,uuid"`
	PaymentMethod string `json:"payment_method" binding:"omitempty,oneof=Cash Card UPI Credit"`
	Reason        string `json:"reason" binding:"omitempty,max=500"`
}
