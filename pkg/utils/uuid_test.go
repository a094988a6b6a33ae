package utils

import (
	"regexp"
	"testing"
)

func TestGenerateInvoiceNoFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^INV-\d{8}-[0-9A-F]{12}$`)
	no := GenerateInvoiceNo()
	if !pattern.MatchString(no) {
		t.Fatalf("unexpected invoice number format: %q", no)
	}
}

func TestGenerateInvoiceNoUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		no := GenerateInvoiceNo()
		if seen[no] {
			t.Fatalf("duplicate invoice number generated: %q", no)
		}
		seen[no] = true
	}
}
