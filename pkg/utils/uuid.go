package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewUUID generates a new UUID
func NewUUID() uuid.UUID {
	return uuid.New()
}

// ParseUUID parses a string into a UUID
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// GenerateInvoiceNo generates a unique invoice number. The date prefix keeps
// numbers scannable at the counter; the 48-bit random suffix keeps the
// collision odds negligible against the unique column.
func GenerateInvoiceNo() string {
	random := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "INV-" + time.Now().Format("20060102") + "-" + strings.ToUpper(random[:12])
}
