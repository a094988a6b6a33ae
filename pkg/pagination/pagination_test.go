package pagination

import "testing"

func TestValidateClampsParams(t *testing.T) {
	p := &PaginationParams{Page: 0, PerPage: 500}
	p.Validate()
	if p.Page != 1 {
		t.Fatalf("expected page 1, got %d", p.Page)
	}
	if p.PerPage != 100 {
		t.Fatalf("expected per_page capped at 100, got %d", p.PerPage)
	}
}

func TestOffset(t *testing.T) {
	p := &PaginationParams{Page: 3, PerPage: 15}
	if got := p.Offset(); got != 30 {
		t.Fatalf("expected offset 30, got %d", got)
	}
}

func TestNewPagination(t *testing.T) {
	pag := NewPagination(2, 10, 25)
	if pag.TotalPages != 3 {
		t.Fatalf("expected 3 total pages, got %d", pag.TotalPages)
	}
	if !pag.HasNext || !pag.HasPrev {
		t.Fatalf("page 2 of 3 should have next and prev")
	}
}
