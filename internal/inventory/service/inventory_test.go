package service

import (
	"context"
	"shelfkeeper/internal/inventory/repository"
	"shelfkeeper/pkg/config"
	"shelfkeeper/pkg/db/memory"
	apperrors "shelfkeeper/pkg/errors"
	"shelfkeeper/pkg/logger"
	"shelfkeeper/pkg/model"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoanCounter struct {
	active int64
}

func (f *fakeLoanCounter) CountActiveByBook(ctx context.Context, bookID int64) (int64, error) {
	return f.active, nil
}

type nopRecorder struct {
	records atomic.Int64
}

func (r *nopRecorder) Record(ctx context.Context, table, action string, recordID int64, payload any) {
	r.records.Add(1)
}

func (r *nopRecorder) Failures() int64 { return 0 }

type fixture struct {
	db       *memory.DB
	books    *memory.Table[int64, model.Book]
	loans    *fakeLoanCounter
	recorder *nopRecorder
	service  InventoryService
}

func newFixture() *fixture {
	db := memory.New()
	f := &fixture{
		db:       db,
		books:    memory.Register[int64, model.Book](db, repository.BooksTable),
		loans:    &fakeLoanCounter{},
		recorder: &nopRecorder{},
	}
	cfg := &config.Config{Log: logger.Discard()}
	f.service = NewInventoryService(repository.NewMemoryInventoryRepository(db), f.loans, f.recorder, cfg)
	return f
}

func (f *fixture) seed(id int64, copies int) {
	f.books.Put(id, model.Book{ID: id, Title: "Seeded", CopiesAvailable: copies, CopiesProvisioned: copies})
}

func TestAdjust_DecrementsAndIncrements(t *testing.T) {
	f := newFixture()
	f.seed(1, 2)
	ctx := context.Background()

	n, err := f.service.Adjust(ctx, 1, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.service.Adjust(ctx, 1, +1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAdjust_NeverGoesNegative(t *testing.T) {
	f := newFixture()
	f.seed(1, 0)

	_, err := f.service.Adjust(context.Background(), 1, -1)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInsufficientInventory))

	book, _ := f.books.Get(1)
	assert.Equal(t, 0, book.CopiesAvailable, "counter must be unchanged after a rejected adjust")
}

func TestAdjust_UnknownBook(t *testing.T) {
	f := newFixture()

	_, err := f.service.Adjust(context.Background(), 99, -1)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestAdjust_ConcurrentDecrementsHaveNoLostUpdates(t *testing.T) {
	f := newFixture()
	const copies, workers = 5, 40
	f.seed(1, copies)

	var wg sync.WaitGroup
	var successes, insufficient atomic.Int64
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Adjust(context.Background(), 1, -1)
			switch {
			case err == nil:
				successes.Add(1)
			case apperrors.HasCode(err, apperrors.CodeInsufficientInventory):
				insufficient.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(copies), successes.Load())
	assert.Equal(t, int64(workers-copies), insufficient.Load())
	book, _ := f.books.Get(1)
	assert.Equal(t, 0, book.CopiesAvailable)
}

func TestAdjust_DifferentBooksDoNotWaitForEachOther(t *testing.T) {
	f := newFixture()
	f.seed(1, 3)
	f.seed(2, 3)
	ctx := context.Background()

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = f.db.RunRow(ctx, repository.BooksTable, int64(1), func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	other := make(chan error, 1)
	go func() {
		_, err := f.service.Adjust(ctx, 2, -1)
		other <- err
	}()
	select {
	case err := <-other:
		require.NoError(t, err)
	case <-time.After(time.Second):
		close(release)
		t.Fatal("adjusting book 2 waited for book 1")
	}

	same := make(chan error, 1)
	go func() {
		_, err := f.service.Adjust(ctx, 1, -1)
		same <- err
	}()
	select {
	case <-same:
		t.Fatal("adjusting book 1 did not wait for its row")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	require.NoError(t, <-same)

	book, _ := f.books.Get(1)
	assert.Equal(t, 2, book.CopiesAvailable)
}

func TestAdjust_RollsBackWithEnclosingUnit(t *testing.T) {
	f := newFixture()
	f.seed(1, 3)

	err := f.db.ExecuteTransaction(context.Background(), func(ctx context.Context) error {
		if _, err := f.service.Adjust(ctx, 1, -1); err != nil {
			return err
		}
		_, err := f.service.Adjust(ctx, 2, -1)
		return err
	})
	require.Error(t, err)

	book, _ := f.books.Get(1)
	assert.Equal(t, 3, book.CopiesAvailable)
}

func TestAddCopies(t *testing.T) {
	f := newFixture()
	f.seed(1, 2)
	ctx := context.Background()

	book, err := f.service.AddCopies(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, book.CopiesProvisioned)
	assert.Equal(t, 5, book.CopiesAvailable)
	assert.Equal(t, int64(1), f.recorder.records.Load())

	_, err = f.service.AddCopies(ctx, 1, -6)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInsufficientInventory))

	_, err = f.service.AddCopies(ctx, 1, 0)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestReconcile(t *testing.T) {
	f := newFixture()
	f.books.Put(1, model.Book{ID: 1, CopiesProvisioned: 4, CopiesAvailable: 3})

	f.loans.active = 1
	report, err := f.service.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, report.Consistent)

	f.loans.active = 2
	report, err = f.service.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, report.Consistent)
	assert.Equal(t, int64(2), report.ActiveBorrowings)
}
