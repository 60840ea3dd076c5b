// Package memory is the in-process storage backend. A unit of work holds the
// DB exclusively from start to commit, so units are serializable, and a
// failed unit restores every table to its starting snapshot. Single-row
// operations outside a unit may instead run under RunRow, which only
// serializes callers naming the same row.
package memory

import (
	"context"
	"fmt"
	"shelfkeeper/pkg/db"
	"sync"
)

type txKey struct{}

type snapshotter interface {
	snapshot() any
	restore(state any)
}

type DB struct {
	gate      sync.RWMutex
	tables    map[string]snapshotter
	sequences map[string]int64

	rowMu    sync.Mutex
	rowLocks map[string]*sync.Mutex
}

func New() *DB {
	return &DB{
		tables:    make(map[string]snapshotter),
		sequences: make(map[string]int64),
		rowLocks:  make(map[string]*sync.Mutex),
	}
}

var (
	_ db.TransactionManager = (*DB)(nil)
	_ db.Sequencer          = (*DB)(nil)
)

func (d *DB) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*DB)
	return owner == d
}

func (d *DB) ExecuteTransaction(ctx context.Context, fn db.TransactionFunc) error {
	if d.inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.gate.Lock()
	defer d.gate.Unlock()

	snap := make(map[string]any, len(d.tables))
	for name, t := range d.tables {
		snap[name] = t.snapshot()
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		for name, t := range d.tables {
			if state, ok := snap[name]; ok {
				t.restore(state)
			}
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, d)); err != nil {
		return err
	}
	committed = true
	return nil
}

// Run executes a single repository call. Outside a unit of work it holds the
// DB exclusively for the duration of fn; inside one the DB is already held.
func (d *DB) Run(ctx context.Context, fn func() error) error {
	if d.inTx(ctx) {
		return fn()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	d.gate.Lock()
	defer d.gate.Unlock()
	return fn()
}

// RunRow executes fn, which must only touch the row key of table. Outside a
// unit of work callers naming different rows run concurrently and callers
// naming the same row take turns; units of work wait for all of them.
func (d *DB) RunRow(ctx context.Context, table string, key any, fn func() error) error {
	if d.inTx(ctx) {
		return fn()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	d.gate.RLock()
	defer d.gate.RUnlock()

	row := d.rowLock(fmt.Sprintf("%s/%v", table, key))
	row.Lock()
	defer row.Unlock()
	return fn()
}

func (d *DB) rowLock(name string) *sync.Mutex {
	d.rowMu.Lock()
	defer d.rowMu.Unlock()
	l, ok := d.rowLocks[name]
	if !ok {
		l = &sync.Mutex{}
		d.rowLocks[name] = l
	}
	return l
}

func (d *DB) Next(ctx context.Context, name string) (int64, error) {
	var id int64
	err := d.Run(ctx, func() error {
		d.sequences[name]++
		id = d.sequences[name]
		return nil
	})
	return id, err
}

// Table is a keyed row set. Rows are stored by value; callers must not
// mutate reference fields of a row in place.
type Table[K comparable, V any] struct {
	mu   sync.Mutex
	rows map[K]V
}

// Register returns the table with the given name, creating it on first use.
// Repositories of different packages that name the same table share rows.
func Register[K comparable, V any](d *DB, name string) *Table[K, V] {
	d.gate.Lock()
	defer d.gate.Unlock()

	if existing, ok := d.tables[name]; ok {
		t, ok := existing.(*Table[K, V])
		if !ok {
			panic(fmt.Sprintf("memory: table %q registered with a different row type", name))
		}
		return t
	}

	t := &Table[K, V]{rows: make(map[K]V)}
	d.tables[name] = t
	return t
}

func (t *Table[K, V]) snapshot() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := make(map[K]V, len(t.rows))
	for k, v := range t.rows {
		cp[k] = v
	}
	return cp
}

func (t *Table[K, V]) restore(state any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = state.(map[K]V)
}

func (t *Table[K, V]) Get(key K) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.rows[key]
	return v, ok
}

func (t *Table[K, V]) Put(key K, row V) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[key] = row
}

func (t *Table[K, V]) Delete(key K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.rows[key]
	delete(t.rows, key)
	return ok
}

// DeleteWhere removes the rows for which match returns true and reports how
// many were removed.
func (t *Table[K, V]) DeleteWhere(match func(V) bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for k, v := range t.rows {
		if match(v) {
			delete(t.rows, k)
			n++
		}
	}
	return n
}

func (t *Table[K, V]) Filter(match func(V) bool) []V {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []V
	for _, v := range t.rows {
		if match == nil || match(v) {
			out = append(out, v)
		}
	}
	return out
}

func (t *Table[K, V]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}
