package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pharmadesk/pharmacy-api/internal/domain/repository"
	"github.com/pharmadesk/pharmacy-api/pkg/email"
)

// ReceiptQueue schedules receipt delivery for finalized invoices. Enqueue
// must never block billing: delivery failures are logged, not surfaced to
// the sale.
type ReceiptQueue interface {
	EnqueueInvoice(invoiceID uuid.UUID)
	Close()
}

// ReceiptDispatcher is the asynchronous ReceiptQueue used in production.
// A single worker drains the queue so the printer never receives
// interleaved jobs.
type ReceiptDispatcher struct {
	invoiceRepo repository.InvoiceRepository
	printers    *PrinterService
	emails      email.Sender
	jobs        chan uuid.UUID
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

// NewReceiptDispatcher creates and starts a receipt dispatcher.
func NewReceiptDispatcher(invoiceRepo repository.InvoiceRepository, printers *PrinterService, emails email.Sender) *ReceiptDispatcher {
	d := &ReceiptDispatcher{
		invoiceRepo: invoiceRepo,
		printers:    printers,
		emails:      emails,
		jobs:        make(chan uuid.UUID, 64),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// EnqueueInvoice schedules receipt delivery for an invoice. Drops the job
// with a log line if the queue is full or closed.
func (d *ReceiptDispatcher) EnqueueInvoice(invoiceID uuid.UUID) {
	select {
	case d.jobs <- invoiceID:
	default:
		log.Printf("receipt queue full, dropping receipt for invoice %s", invoiceID)
	}
}

// Close stops the worker after draining queued jobs.
func (d *ReceiptDispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.jobs)
	})
	d.wg.Wait()
}

func (d *ReceiptDispatcher) run() {
	defer d.wg.Done()
	for invoiceID := range d.jobs {
		d.deliver(invoiceID)
	}
}

func (d *ReceiptDispatcher) deliver(invoiceID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	invoice, err := d.invoiceRepo.GetWithItems(ctx, invoiceID)
	if err != nil {
		log.Printf("receipt delivery: failed to load invoice %s: %v", invoiceID, err)
		return
	}
	if invoice == nil {
		log.Printf("receipt delivery: invoice %s not found", invoiceID)
		return
	}

	if err := d.printers.PrintInvoiceReceipt(ctx, invoice); err != nil {
		log.Printf("receipt delivery: %v", err)
	}

	if invoice.Customer != nil && invoice.Customer.Email != nil && *invoice.Customer.Email != "" {
		receipt := d.printers.BuildReceipt(invoice)
		items := make([]email.ReceiptItem, 0, len(receipt.Items))
		for _, item := range receipt.Items {
			items = append(items, email.ReceiptItem{
				Name:      item.Name,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Total:     item.Total,
			})
		}
		data := email.ReceiptData{
			PharmacyName:  receipt.Header.PharmacyName,
			InvoiceNo:     receipt.InvoiceNo,
			Date:          receipt.Date,
			CustomerName:  receipt.Customer,
			PaymentMethod: receipt.PaymentMethod,
			Items:         items,
			SubTotal:      receipt.SubTotal,
			GSTAmount:     receipt.GST,
			Total:         receipt.Total,
		}
		if err := d.emails.SendReceipt(*invoice.Customer.Email, data); err != nil {
			log.Printf("receipt delivery: %v", err)
		}
	}
}
