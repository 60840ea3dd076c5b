package repository

import (
	"context"
	"shelfkeeper/pkg/db/memory"
)

type memoryRecordRepository[T any] struct {
	db       *memory.DB
	rows     *memory.Table[int64, T]
	notFound error
	idOf     func(*T) int64
}

func NewMemoryRecordRepository[T any](db *memory.DB, table string, notFound error, idOf func(*T) int64) RecordRepository[T] {
	return &memoryRecordRepository[T]{
		db:       db,
		rows:     memory.Register[int64, T](db, table),
		notFound: notFound,
		idOf:     idOf,
	}
}

func (r *memoryRecordRepository[T]) Create(ctx context.Context, record *T) error {
	return r.db.Run(ctx, func() error {
		r.rows.Put(r.idOf(record), *record)
		return nil
	})
}

func (r *memoryRecordRepository[T]) FindByID(ctx context.Context, id int64) (*T, error) {
	var out *T
	err := r.db.Run(ctx, func() error {
		record, ok := r.rows.Get(id)
		if !ok {
			return r.notFound
		}
		out = &record
		return nil
	})
	return out, err
}

// Touch only reports missing ids. Units of work are serialized, so no write
// is needed to order them against deletes.
func (r *memoryRecordRepository[T]) Touch(ctx context.Context, ids []int64) ([]int64, error) {
	var missing []int64
	err := r.db.Run(ctx, func() error {
		for _, id := range ids {
			if _, ok := r.rows.Get(id); !ok {
				missing = append(missing, id)
			}
		}
		return nil
	})
	return missing, err
}

func (r *memoryRecordRepository[T]) Delete(ctx context.Context, id int64) error {
	return r.db.Run(ctx, func() error {
		if !r.rows.Delete(id) {
			return r.notFound
		}
		return nil
	})
}
