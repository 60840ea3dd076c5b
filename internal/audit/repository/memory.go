package repository

import (
	"context"
	"shelfkeeper/pkg/db/memory"
	"shelfkeeper/pkg/model"
	"sort"
)

const AuditTable = "audit_log"

type memoryAuditRepository struct {
	db      *memory.DB
	entries *memory.Table[string, model.AuditEntry]
}

func NewMemoryAuditRepository(db *memory.DB) AuditRepository {
	return &memoryAuditRepository{
		db:      db,
		entries: memory.Register[string, model.AuditEntry](db, AuditTable),
	}
}

func (r *memoryAuditRepository) Append(ctx context.Context, entry *model.AuditEntry) error {
	return r.db.Run(ctx, func() error {
		if _, exists := r.entries.Get(entry.ID); !exists {
			r.entries.Put(entry.ID, *entry)
		}
		return nil
	})
}

func (r *memoryAuditRepository) ListByRecord(ctx context.Context, table string, recordID int64) ([]*model.AuditEntry, error) {
	var out []*model.AuditEntry
	err := r.db.Run(ctx, func() error {
		rows := r.entries.Filter(func(e model.AuditEntry) bool {
			return e.Table == table && e.RecordID == recordID
		})
		sort.Slice(rows, func(i, j int) bool { return rows[i].Timestamp.Before(rows[j].Timestamp) })
		for i := range rows {
			out = append(out, &rows[i])
		}
		return nil
	})
	return out, err
}
