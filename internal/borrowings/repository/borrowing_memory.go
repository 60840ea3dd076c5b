package repository

import (
	"context"
	borrowingserrors "shelfkeeper/internal/borrowings/errors"
	"shelfkeeper/pkg/db/memory"
	"shelfkeeper/pkg/model"
	"sort"
	"time"
)

const BorrowingsTable = "borrowings"

type memoryBorrowingRepository struct {
	db         *memory.DB
	borrowings *memory.Table[int64, model.Borrowing]
}

func NewMemoryBorrowingRepository(db *memory.DB) BorrowingRepository {
	return &memoryBorrowingRepository{
		db:         db,
		borrowings: memory.Register[int64, model.Borrowing](db, BorrowingsTable),
	}
}

func (r *memoryBorrowingRepository) active(memberID, bookID int64) []model.Borrowing {
	return r.borrowings.Filter(func(b model.Borrowing) bool {
		return b.Active && b.MemberID == memberID && b.BookID == bookID
	})
}

func (r *memoryBorrowingRepository) Create(ctx context.Context, borrowing *model.Borrowing) error {
	return r.db.Run(ctx, func() error {
		if borrowing.Active && len(r.active(borrowing.MemberID, borrowing.BookID)) > 0 {
			return borrowingserrors.ErrDuplicateActive
		}
		r.borrowings.Put(borrowing.ID, *borrowing)
		return nil
	})
}

func (r *memoryBorrowingRepository) FindByID(ctx context.Context, id int64) (*model.Borrowing, error) {
	var out *model.Borrowing
	err := r.db.Run(ctx, func() error {
		b, ok := r.borrowings.Get(id)
		if !ok {
			return borrowingserrors.ErrNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *memoryBorrowingRepository) FindActive(ctx context.Context, memberID, bookID int64) (*model.Borrowing, error) {
	var out *model.Borrowing
	err := r.db.Run(ctx, func() error {
		found := r.active(memberID, bookID)
		if len(found) == 0 {
			return borrowingserrors.ErrNotFound
		}
		out = &found[0]
		return nil
	})
	return out, err
}

func (r *memoryBorrowingRepository) MarkReturned(ctx context.Context, id int64, returnedAt time.Time, librarianID *int64) (*model.Borrowing, error) {
	var out *model.Borrowing
	err := r.db.Run(ctx, func() error {
		b, ok := r.borrowings.Get(id)
		if !ok {
			return borrowingserrors.ErrNotFound
		}
		if !b.Active {
			return borrowingserrors.ErrAlreadyReturned
		}

		at := returnedAt
		b.ReturnedAt = &at
		b.Status = model.BorrowingStatusReturned
		b.Active = false
		if librarianID != nil {
			lid := *librarianID
			b.LibrarianID = &lid
		}
		r.borrowings.Put(id, b)
		out = &b
		return nil
	})
	return out, err
}

func (r *memoryBorrowingRepository) ListByMember(ctx context.Context, memberID int64, activeOnly bool) ([]*model.Borrowing, error) {
	out := []*model.Borrowing{}
	err := r.db.Run(ctx, func() error {
		rows := r.borrowings.Filter(func(b model.Borrowing) bool {
			return b.MemberID == memberID && (!activeOnly || b.Active)
		})
		for i := range rows {
			out = append(out, &rows[i])
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *memoryBorrowingRepository) CountActiveByBook(ctx context.Context, bookID int64) (int64, error) {
	var n int
	err := r.db.Run(ctx, func() error {
		n = len(r.borrowings.Filter(func(b model.Borrowing) bool {
			return b.Active && b.BookID == bookID
		}))
		return nil
	})
	return int64(n), err
}

func (r *memoryBorrowingRepository) DeleteByBook(ctx context.Context, bookID int64) (int64, error) {
	var n int
	err := r.db.Run(ctx, func() error {
		n = r.borrowings.DeleteWhere(func(b model.Borrowing) bool { return b.BookID == bookID })
		return nil
	})
	return int64(n), err
}

func (r *memoryBorrowingRepository) DeleteByMember(ctx context.Context, memberID int64) (int64, error) {
	var n int
	err := r.db.Run(ctx, func() error {
		n = r.borrowings.DeleteWhere(func(b model.Borrowing) bool { return b.MemberID == memberID })
		return nil
	})
	return int64(n), err
}
