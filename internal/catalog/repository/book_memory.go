package repository

import (
	"context"
	catalogerrors "shelfkeeper/internal/catalog/errors"
	inventoryrepository "shelfkeeper/internal/inventory/repository"
	"shelfkeeper/pkg/db/memory"
	"shelfkeeper/pkg/model"
	"time"
)

type memoryBookRepository struct {
	db    *memory.DB
	books *memory.Table[int64, model.Book]
}

func NewMemoryBookRepository(db *memory.DB) BookRepository {
	return &memoryBookRepository{
		db:    db,
		books: memory.Register[int64, model.Book](db, inventoryrepository.BooksTable),
	}
}

func (r *memoryBookRepository) isbnTaken(isbn string, except int64) bool {
	if isbn == "" {
		return false
	}
	return len(r.books.Filter(func(b model.Book) bool {
		return b.ISBN == isbn && b.ID != except
	})) > 0
}

func (r *memoryBookRepository) Create(ctx context.Context, book *model.Book) error {
	return r.db.Run(ctx, func() error {
		if r.isbnTaken(book.ISBN, book.ID) {
			return catalogerrors.ErrDuplicateISBN
		}
		now := time.Now().UTC()
		book.CreatedAt = now
		book.UpdatedAt = now
		r.books.Put(book.ID, *book)
		return nil
	})
}

func (r *memoryBookRepository) FindByID(ctx context.Context, id int64) (*model.Book, error) {
	var out *model.Book
	err := r.db.Run(ctx, func() error {
		book, ok := r.books.Get(id)
		if !ok {
			return catalogerrors.ErrBookNotFound
		}
		out = &book
		return nil
	})
	return out, err
}

func (r *memoryBookRepository) UpdateFields(ctx context.Context, id int64, fields *model.BookFields) (*model.Book, error) {
	var out *model.Book
	err := r.db.Run(ctx, func() error {
		book, ok := r.books.Get(id)
		if !ok {
			return catalogerrors.ErrBookNotFound
		}
		if r.isbnTaken(fields.ISBN, id) {
			return catalogerrors.ErrDuplicateISBN
		}
		book.Title = fields.Title
		book.ISBN = fields.ISBN
		book.PublicationYear = fields.PublicationYear
		book.UpdatedAt = time.Now().UTC()
		r.books.Put(id, book)
		out = &book
		return nil
	})
	return out, err
}

func (r *memoryBookRepository) Delete(ctx context.Context, id int64) error {
	return r.db.Run(ctx, func() error {
		if !r.books.Delete(id) {
			return catalogerrors.ErrBookNotFound
		}
		return nil
	})
}
