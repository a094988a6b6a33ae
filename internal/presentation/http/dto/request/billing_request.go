package request

// AddToCartRequest adds one unit of a medicine to a session cart
type AddToCartRequest struct {
	MedicineID string `json:"medicine_id" binding:"required,uuid"`
}

// UpdateCartQuantityRequest sets the quantity of a cart line. Zero removes
// the line.
type UpdateCartQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// SetCustomerRequest attaches a customer to the session. A null customer_id
// detaches for a walk-in sale.
type SetCustomerRequest struct {
	CustomerID *string `json:"customer_id" binding:"omitempty,uuid"`
}

// SetPaymentMethodRequest selects the session payment method
type SetPaymentMethodRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// CheckoutRequest commits the session cart as an invoice
type CheckoutRequest struct {
	// "Paid" commits a settled sale; "Pending" holds the invoice for later
	// finalization. Defaults to Paid.
	PaymentStatus string `json:"payment_status" binding:"omitempty,oneof=Paid Pending paid pending"`
}

// FinalizeInvoiceRequest marks a pending invoice as paid
type FinalizeInvoiceRequest struct {
	PaymentMethod string `json:"payment_method" binding:"omitempty,oneof=Cash Card UPI Credit"`
}
