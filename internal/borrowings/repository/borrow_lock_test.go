package repository

import (
	"context"
	"errors"
	borrowingserrors "shelfkeeper/internal/borrowings/errors"
	"shelfkeeper/pkg/db/memory"
	"shelfkeeper/pkg/model"
	"testing"
	"time"
)

func TestMemoryBorrowLock_ExpiredLockIsReplaced(t *testing.T) {
	repo := NewMemoryBorrowLockRepository(memory.New())
	ctx := context.Background()
	id := model.BorrowLockID(7, 1)

	stale := &model.BorrowLock{ID: id, ExpiresAt: time.Now().UTC().Add(-time.Second)}
	if err := repo.Create(ctx, stale); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fresh := &model.BorrowLock{ID: id, ExpiresAt: time.Now().UTC().Add(time.Minute)}
	if err := repo.Create(ctx, fresh); err != nil {
		t.Fatalf("expected expired lock to be replaced, got %v", err)
	}

	again := &model.BorrowLock{ID: id, ExpiresAt: time.Now().UTC().Add(time.Minute)}
	if err := repo.Create(ctx, again); !errors.Is(err, borrowingserrors.ErrLockHeld) {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Create(ctx, again); err != nil {
		t.Fatalf("expected released lock to be free, got %v", err)
	}
}
