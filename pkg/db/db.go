// Package db defines the storage-neutral unit-of-work contracts used by the
// domain services. Backends live in the mongo and memory subpackages.
package db

import "context"

// TransactionFunc runs inside a unit of work. Repositories called with the
// ctx passed to it join the same unit.
type TransactionFunc func(ctx context.Context) error

type TransactionManager interface {
	// ExecuteTransaction commits every write made by fn, or none of them when
	// fn returns an error. Calls nested inside a running unit join it.
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

// Sequencer hands out monotonically increasing int64 ids per name.
// Allocated ids are never reused, even when the unit that asked for one
// rolls back.
type Sequencer interface {
	Next(ctx context.Context, name string) (int64, error)
}
