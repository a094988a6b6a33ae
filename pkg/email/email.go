package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
)

// Config holds SMTP settings for sending receipt emails.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// ReceiptItem is one invoice line rendered into a receipt email.
type ReceiptItem struct {
	Name      string
	Quantity  int
	UnitPrice float64
	Total     float64
}

// ReceiptData carries everything the receipt template needs.
type ReceiptData struct {
	PharmacyName  string
	InvoiceNo     string
	Date          string
	CustomerName  string
	PaymentMethod string
	Items         []ReceiptItem
	SubTotal      float64
	GSTAmount     float64
	Total         float64
}

// Sender delivers transactional emails. Implementations must be safe for
// concurrent use.
type Sender interface {
	SendReceipt(to string, data ReceiptData) error
}

type smtpSender struct {
	cfg  Config
	tmpl *template.Template
}

// NewSMTPSender creates a Sender backed by net/smtp with plain auth.
func NewSMTPSender(cfg Config) (Sender, error) {
	tmpl, err := template.New("receipt").Parse(receiptTemplate)
	if err != nil {
		return nil, fmt.Errorf("email: failed to parse receipt template: %w", err)
	}
	return &smtpSender{cfg: cfg, tmpl: tmpl}, nil
}

func (s *smtpSender) SendReceipt(to string, data ReceiptData) error {
	var body bytes.Buffer
	if err := s.tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("email: failed to render receipt: %w", err)
	}

	subject := fmt.Sprintf("Receipt for invoice %s", data.InvoiceNo)

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", s.cfg.FromName, s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("email: failed to send receipt to %s: %w", to, err)
	}
	return nil
}

type noopSender struct{}

// NewNoopSender returns a Sender that silently drops emails. Used when SMTP
// is not configured.
func NewNoopSender() Sender {
	return &noopSender{}
}

func (noopSender) SendReceipt(to string, data ReceiptData) error { return nil }

const receiptTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 480px; margin: 0 auto;">
  <h2 style="text-align: center;">{{.PharmacyName}}</h2>
  <p style="text-align: center;">Invoice {{.InvoiceNo}}<br>{{.Date}}</p>
  {{if .CustomerName}}<p>Customer: {{.CustomerName}}</p>{{end}}
  <table style="width: 100%; border-collapse: collapse;">
    <tr style="border-bottom: 1px solid #ccc;">
      <th style="text-align: left;">Item</th>
      <th style="text-align: right;">Qty</th>
      <th style="text-align: right;">Price</th>
      <th style="text-align: right;">Total</th>
    </tr>
    {{range .Items}}
    <tr>
      <td>{{.Name}}</td>
      <td style="text-align: right;">{{.Quantity}}</td>
      <td style="text-align: right;">{{printf "%.2f" .UnitPrice}}</td>
      <td style="text-align: right;">{{printf "%.2f" .Total}}</td>
    </tr>
    {{end}}
  </table>
  <hr>
  <table style="width: 100%;">
    <tr><td>Subtotal</td><td style="text-align: right;">{{printf "%.2f" .SubTotal}}</td></tr>
    <tr><td>GST</td><td style="text-align: right;">{{printf "%.2f" .GSTAmount}}</td></tr>
    <tr><td><strong>Total</strong></td><td style="text-align: right;"><strong>{{printf "%.2f" .Total}}</strong></td></tr>
  </table>
  {{if .PaymentMethod}}<p>Paid by {{.PaymentMethod}}</p>{{end}}
  <p style="text-align: center;">Thank you for your purchase. Get well soon!</p>
</body>
</html>`
