package service

import (
	"context"
	"fmt"

	"github.com/pharmadesk/pharmacy-api/internal/domain/entity"
	"github.com/pharmadesk/pharmacy-api/pkg/printer"
)

// PrinterService formats invoice receipts as ESC/POS documents and sends
// them to the configured thermal printer.
type PrinterService struct {
	printer   printer.Printer
	charWidth int
	header    entity.ReceiptHeader
}

// NewPrinterService creates a new printer service
func NewPrinterService(p printer.Printer, charWidth int, header entity.ReceiptHeader) *PrinterService {
	if charWidth <= 0 {
		charWidth = 32
	}
	return &PrinterService{
		printer:   p,
		charWidth: charWidth,
		header:    header,
	}
}

// BuildReceipt composes a printable receipt from an invoice with items loaded.
func (s *PrinterService) BuildReceipt(invoice *entity.Invoice) entity.Receipt {
	items := make([]entity.ReceiptItem, 0, len(invoice.Items))
	for _, sale := range invoice.Items {
		name := sale.Medicine.Name
		if name == "" {
			name = sale.MedicineID.String()[:8]
		}
		items = append(items, entity.ReceiptItem{
			Name:      name,
			Quantity:  sale.QuantitySold,
			UnitPrice: float64(sale.UnitPriceAtSale) / 100,
			Total:     float64(sale.TotalAmount) / 100,
		})
	}

	return entity.Receipt{
		Header:        s.header,
		InvoiceNo:     invoice.InvoiceNo,
		Date:          invoice.SaleDate.Format("02 Jan 2006"),
		Customer:      invoice.CustomerName(),
		PaymentMethod: invoice.PaymentMethod,
		Items:         items,
		SubTotal:      float64(invoice.SubTotal) / 100,
		GST:           float64(invoice.GSTAmount) / 100,
		Total:         float64(invoice.Total) / 100,
	}
}

// FormatReceipt renders a receipt into ESC/POS bytes.
func (s *PrinterService) FormatReceipt(receipt entity.Receipt) []byte {
	doc := printer.NewDocument(s.charWidth)

	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text(receipt.Header.PharmacyName).
		SetFontSize(printer.FontNormal).
		SetBold(false)

	if receipt.Header.Address != "" {
		doc.Text(receipt.Header.Address)
	}
	if receipt.Header.Phone != "" {
		doc.TextF("Ph: %s", receipt.Header.Phone)
	}
	if receipt.Header.GSTIN != "" {
		doc.TextF("GSTIN: %s", receipt.Header.GSTIN)
	}

	doc.SetAlign(printer.AlignLeft).
		Separator('-').
		KeyValue("Invoice", receipt.InvoiceNo).
		KeyValue("Date", receipt.Date)
	if receipt.Customer != "" {
		doc.KeyValue("Customer", receipt.Customer)
	}
	doc.Separator('-')

	for _, item := range receipt.Items {
		doc.ItemLine(item.Quantity, item.Name, fmt.Sprintf("%.2f", item.Total))
	}

	doc.Separator('-').
		KeyValue("Subtotal", fmt.Sprintf("%.2f", receipt.SubTotal)).
		KeyValue("GST", fmt.Sprintf("%.2f", receipt.GST)).
		SetBold(true).
		KeyValue("TOTAL", fmt.Sprintf("%.2f", receipt.Total)).
		SetBold(false)

	if receipt.PaymentMethod != "" {
		doc.KeyValue("Paid by", receipt.PaymentMethod)
	}

	doc.LineFeed().
		SetAlign(printer.AlignCenter).
		Text("Thank you, get well soon!").
		FeedLines(3).
		PartialCut()

	return doc.Bytes()
}

// PrintInvoiceReceipt formats and prints a receipt for the given invoice.
func (s *PrinterService) PrintInvoiceReceipt(ctx context.Context, invoice *entity.Invoice) error {
	receipt := s.BuildReceipt(invoice)
	data := s.FormatReceipt(receipt)
	if err := s.printer.Print(data); err != nil {
		return fmt.Errorf("failed to print receipt for invoice %s: %w", invoice.InvoiceNo, err)
	}
	return nil
}

// TestPrint sends a short test page to verify printer connectivity.
func (s *PrinterService) TestPrint(ctx context.Context) error {
	doc := printer.NewDocument(s.charWidth)
	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		Text(s.header.PharmacyName).
		SetBold(false).
		Text("Printer test OK").
		FeedLines(3).
		PartialCut()
	return s.printer.Print(doc.Bytes())
}

// GetStatus reports whether the configured printer is reachable.
func (s *PrinterService) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"connected": s.printer.IsConnected(),
	}
}
