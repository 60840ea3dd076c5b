package repository

import (
	"context"
	cartserrors "shelfkeeper/internal/carts/errors"
	"shelfkeeper/pkg/db/memory"
	"shelfkeeper/pkg/model"
	"sort"
)

const CartsTable = "carts"

type memoryCartRepository struct {
	db      *memory.DB
	entries *memory.Table[string, model.CartEntry]
}

func NewMemoryCartRepository(db *memory.DB) CartRepository {
	return &memoryCartRepository{
		db:      db,
		entries: memory.Register[string, model.CartEntry](db, CartsTable),
	}
}

func (r *memoryCartRepository) Add(ctx context.Context, entry *model.CartEntry) (*model.CartEntry, error) {
	var out *model.CartEntry
	err := r.db.Run(ctx, func() error {
		entry.ID = model.CartEntryID(entry.MemberID, entry.BookID)
		stored, ok := r.entries.Get(entry.ID)
		if !ok {
			stored = *entry
			r.entries.Put(entry.ID, stored)
		}
		out = &stored
		return nil
	})
	return out, err
}

func (r *memoryCartRepository) Remove(ctx context.Context, memberID, bookID int64) error {
	return r.db.Run(ctx, func() error {
		if !r.entries.Delete(model.CartEntryID(memberID, bookID)) {
			return cartserrors.ErrNotFound
		}
		return nil
	})
}

func (r *memoryCartRepository) ListByMember(ctx context.Context, memberID int64) ([]*model.CartEntry, error) {
	out := []*model.CartEntry{}
	err := r.db.Run(ctx, func() error {
		rows := r.entries.Filter(func(e model.CartEntry) bool { return e.MemberID == memberID })
		for i := range rows {
			out = append(out, &rows[i])
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].BookID < out[j].BookID
		}
		return out[i].AddedAt.Before(out[j].AddedAt)
	})
	return out, err
}

func (r *memoryCartRepository) DeleteByBook(ctx context.Context, bookID int64) (int64, error) {
	var n int
	err := r.db.Run(ctx, func() error {
		n = r.entries.DeleteWhere(func(e model.CartEntry) bool { return e.BookID == bookID })
		return nil
	})
	return int64(n), err
}

func (r *memoryCartRepository) DeleteByMember(ctx context.Context, memberID int64) (int64, error) {
	var n int
	err := r.db.Run(ctx, func() error {
		n = r.entries.DeleteWhere(func(e model.CartEntry) bool { return e.MemberID == memberID })
		return nil
	})
	return int64(n), err
}
