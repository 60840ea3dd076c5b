package repository

import (
	"context"
	inventoryerrors "shelfkeeper/internal/inventory/errors"
	"shelfkeeper/pkg/db/memory"
	"shelfkeeper/pkg/model"
	"time"
)

// BooksTable is shared with the catalog repositories.
const BooksTable = "books"

type memoryInventoryRepository struct {
	db    *memory.DB
	books *memory.Table[int64, model.Book]
}

func NewMemoryInventoryRepository(db *memory.DB) InventoryRepository {
	return &memoryInventoryRepository{
		db:    db,
		books: memory.Register[int64, model.Book](db, BooksTable),
	}
}

// Counter updates lock only the book's row, so adjustments of different
// books do not wait for each other.
func (r *memoryInventoryRepository) Adjust(ctx context.Context, bookID int64, delta int) (int, error) {
	var available int
	err := r.db.RunRow(ctx, BooksTable, bookID, func() error {
		book, err := r.apply(bookID, delta, false)
		if err != nil {
			return err
		}
		available = book.CopiesAvailable
		return nil
	})
	return available, err
}

func (r *memoryInventoryRepository) Provision(ctx context.Context, bookID int64, delta int) (*model.Book, error) {
	var out *model.Book
	err := r.db.RunRow(ctx, BooksTable, bookID, func() error {
		book, err := r.apply(bookID, delta, true)
		out = book
		return err
	})
	return out, err
}

func (r *memoryInventoryRepository) apply(bookID int64, delta int, provision bool) (*model.Book, error) {
	book, ok := r.books.Get(bookID)
	if !ok {
		return nil, inventoryerrors.ErrNotFound
	}
	if book.CopiesAvailable+delta < 0 {
		return nil, inventoryerrors.ErrInsufficient
	}
	book.CopiesAvailable += delta
	if provision {
		book.CopiesProvisioned += delta
	}
	book.UpdatedAt = time.Now().UTC()
	r.books.Put(bookID, book)
	return &book, nil
}

func (r *memoryInventoryRepository) Get(ctx context.Context, bookID int64) (*model.Book, error) {
	var out *model.Book
	err := r.db.RunRow(ctx, BooksTable, bookID, func() error {
		book, ok := r.books.Get(bookID)
		if !ok {
			return inventoryerrors.ErrNotFound
		}
		out = &book
		return nil
	})
	return out, err
}
