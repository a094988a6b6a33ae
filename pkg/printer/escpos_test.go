package printer

import (
	"bytes"
	"strings"
	"testing"
)

func TestDocumentStartsWithInit(t *testing.T) {
	doc := NewDocument(32)
	data := doc.Bytes()
	if len(data) < 2 || data[0] != ESC || data[1] != '@' {
		t.Fatalf("expected document to start with ESC @, got % x", data[:2])
	}
}

func TestKeyValueAlignsToWidth(t *testing.T) {
	doc := NewDocument(20)
	doc.KeyValue("Total", "29.50")

	data := doc.Bytes()
	idx := bytes.IndexByte(data, 'T')
	line := string(data[idx : len(data)-1]) // strip trailing LF
	if len(line) != 20 {
		t.Fatalf("expected 20-char line, got %d: %q", len(line), line)
	}
	if !strings.HasPrefix(line, "Total") || !strings.HasSuffix(line, "29.50") {
		t.Fatalf("unexpected line: %q", line)
	}
}

func TestItemLineFormat(t *testing.T) {
	doc := NewDocument(32)
	doc.ItemLine(3, "Paracetamol", "30.00")

	if !bytes.Contains(doc.Bytes(), []byte("3x Paracetamol")) {
		t.Fatalf("expected quantity prefix in %q", doc.Bytes())
	}
}

func TestSeparatorSpansWidth(t *testing.T) {
	doc := NewDocument(16)
	doc.Separator('-')

	if !bytes.Contains(doc.Bytes(), []byte(strings.Repeat("-", 16))) {
		t.Fatal("expected full-width separator")
	}
}

func TestNullPrinterAcceptsAnything(t *testing.T) {
	p := NewNullPrinter()
	if err := p.Print([]byte{0x00, 0xFF}); err != nil {
		t.Fatalf("null printer must not error: %v", err)
	}
	if p.IsConnected() {
		t.Fatal("null printer must report disconnected")
	}
}
