package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pharmadesk/pharmacy-api/internal/domain/entity"
)

func TestIdempotencyKeysScopedPerOperator(t *testing.T) {
	store := NewStore()
	repo := store.IdempotencyKeys()
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	expiry := time.Now().Add(24 * time.Hour)

	if err := repo.Create(ctx, &entity.IdempotencyKey{
		Key:          "checkout-1",
		UserID:       alice,
		ResponseCode: 201,
		ResponseBody: `{"invoice":"alice"}`,
		ExpiresAt:    expiry,
	}); err != nil {
		t.Fatalf("create for first operator: %v", err)
	}
	if err := repo.Create(ctx, &entity.IdempotencyKey{
		Key:          "checkout-1",
		UserID:       bob,
		ResponseCode: 201,
		ResponseBody: `{"invoice":"bob"}`,
		ExpiresAt:    expiry,
	}); err != nil {
		t.Fatalf("create for second operator: %v", err)
	}

	got, err := repo.GetByKey(ctx, "checkout-1", alice)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ResponseBody != `{"invoice":"alice"}` {
		t.Fatalf("first operator's record was overwritten: %+v", got)
	}

	got, err = repo.GetByKey(ctx, "checkout-1", bob)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ResponseBody != `{"invoice":"bob"}` {
		t.Fatalf("second operator's record missing: %+v", got)
	}

	if got, _ := repo.GetByKey(ctx, "checkout-1", uuid.New()); got != nil {
		t.Fatalf("expected miss for unrelated operator, got %+v", got)
	}
}
