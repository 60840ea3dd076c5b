package repository

import (
	"context"
	"fmt"
	"shelfkeeper/pkg/db/memory"
	"shelfkeeper/pkg/model"
	"sort"
)

type memoryLinkRepository struct {
	db    *memory.DB
	links *memory.Table[string, model.Link]
}

func NewMemoryLinkRepository(db *memory.DB, table string) LinkRepository {
	return &memoryLinkRepository{
		db:    db,
		links: memory.Register[string, model.Link](db, table),
	}
}

func linkKey(bookID, targetID int64) string {
	return fmt.Sprintf("%d:%d", bookID, targetID)
}

func (r *memoryLinkRepository) Replace(ctx context.Context, bookID int64, targetIDs []int64) error {
	return r.db.Run(ctx, func() error {
		r.links.DeleteWhere(func(l model.Link) bool { return l.BookID == bookID })
		for _, id := range targetIDs {
			r.links.Put(linkKey(bookID, id), model.Link{BookID: bookID, TargetID: id})
		}
		return nil
	})
}

func (r *memoryLinkRepository) ListByBook(ctx context.Context, bookID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.Run(ctx, func() error {
		for _, l := range r.links.Filter(func(l model.Link) bool { return l.BookID == bookID }) {
			ids = append(ids, l.TargetID)
		}
		return nil
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, err
}

func (r *memoryLinkRepository) DeleteByBook(ctx context.Context, bookID int64) (int64, error) {
	var n int
	err := r.db.Run(ctx, func() error {
		n = r.links.DeleteWhere(func(l model.Link) bool { return l.BookID == bookID })
		return nil
	})
	return int64(n), err
}

func (r *memoryLinkRepository) DeleteByTarget(ctx context.Context, targetID int64) (int64, error) {
	var n int
	err := r.db.Run(ctx, func() error {
		n = r.links.DeleteWhere(func(l model.Link) bool { return l.TargetID == targetID })
		return nil
	})
	return int64(n), err
}
