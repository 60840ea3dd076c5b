package service

import (
	"context"
	"errors"
	"fmt"
	borrowingsrepository "shelfkeeper/internal/borrowings/repository"
	borrowingsservice "shelfkeeper/internal/borrowings/service"
	borrowingsvalidator "shelfkeeper/internal/borrowings/validator"
	cartsrepository "shelfkeeper/internal/carts/repository"
	catalogrepository "shelfkeeper/internal/catalog/repository"
	catalogservice "shelfkeeper/internal/catalog/service"
	catalogvalidator "shelfkeeper/internal/catalog/validator"
	inventoryrepository "shelfkeeper/internal/inventory/repository"
	inventoryservice "shelfkeeper/internal/inventory/service"
	"shelfkeeper/pkg/config"
	"shelfkeeper/pkg/db/memory"
	apperrors "shelfkeeper/pkg/errors"
	"shelfkeeper/pkg/logger"
	"shelfkeeper/pkg/model"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	mu      sync.Mutex
	entries []string
}

func (r *fakeRecorder) Record(ctx context.Context, table, action string, recordID int64, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, fmt.Sprintf("%s:%s:%d", table, action, recordID))
}

func (r *fakeRecorder) Failures() int64 { return 0 }

// failingLinks fails DeleteByBook after the earlier cascade steps ran.
type failingLinks struct {
	catalogrepository.LinkRepository
}

func (failingLinks) DeleteByBook(ctx context.Context, bookID int64) (int64, error) {
	return 0, errors.New("disk on fire")
}

// interleaved runs hook once, the first time a record is touched, and gives
// it a short head start before the touch proceeds.
type interleaved[T any] struct {
	catalogrepository.RecordRepository[T]
	once sync.Once
	hook func()
	done chan struct{}
}

func (m *interleaved[T]) Touch(ctx context.Context, ids []int64) ([]int64, error) {
	m.once.Do(func() {
		go func() {
			defer close(m.done)
			m.hook()
		}()
		select {
		case <-m.done:
		case <-time.After(50 * time.Millisecond):
		}
	})
	return m.RecordRepository.Touch(ctx, ids)
}

type library struct {
	t         *testing.T
	catalog   *catalogrepository.Repositories
	loans     borrowingsrepository.BorrowingRepository
	carts     cartsrepository.CartRepository
	inventory inventoryservice.InventoryService
	ledger    borrowingsservice.BorrowingService
	recorder  *fakeRecorder
	cascade   CascadeService
	db        *memory.DB
	cfg       *config.Config
}

func newLibrary(t *testing.T) *library {
	t.Helper()
	db := memory.New()
	cfg := &config.Config{
		Log:           logger.Discard(),
		LoanPeriod:    14 * 24 * time.Hour,
		BorrowLockTTL: 30 * time.Second,
	}
	l := &library{
		t:        t,
		db:       db,
		cfg:      cfg,
		catalog:  catalogrepository.NewMemoryRepositories(db),
		loans:    borrowingsrepository.NewMemoryBorrowingRepository(db),
		carts:    cartsrepository.NewMemoryCartRepository(db),
		recorder: &fakeRecorder{},
	}
	l.inventory = inventoryservice.NewInventoryService(
		inventoryrepository.NewMemoryInventoryRepository(db), l.loans, l.recorder, cfg)
	l.ledger = borrowingsservice.NewBorrowingService(
		l.loans,
		borrowingsrepository.NewMemoryBorrowLockRepository(db),
		l.catalog,
		l.inventory,
		db, db,
		borrowingsvalidator.NewBorrowingValidator(cfg.Log),
		l.recorder,
		cfg,
	)
	l.cascade = NewCascadeService(l.catalog, l.loans, l.carts, l.inventory, db, l.recorder, cfg)
	return l
}

func (l *library) seed() {
	ctx := context.Background()
	r := require.New(l.t)

	r.NoError(l.catalog.Authors.Create(ctx, &model.Author{ID: 1, FirstName: "Frank", LastName: "Herbert"}))
	r.NoError(l.catalog.Authors.Create(ctx, &model.Author{ID: 2, FirstName: "Ursula", LastName: "Le Guin"}))
	r.NoError(l.catalog.Categories.Create(ctx, &model.Category{ID: 1, Name: "sf"}))
	for _, m := range []int64{7, 9} {
		r.NoError(l.catalog.Members.Create(ctx, &model.Member{ID: m, FirstName: "M", LastName: "X", Email: "m@x.io"}))
	}
	for _, b := range []int64{1, 2} {
		r.NoError(l.catalog.Books.Create(ctx, &model.Book{ID: b, Title: fmt.Sprintf("Book %d", b)}))
		_, err := l.inventory.Provision(ctx, b, 3)
		r.NoError(err)
	}
	r.NoError(l.catalog.BookAuthors.Replace(ctx, 1, []int64{1, 2}))
	r.NoError(l.catalog.BookAuthors.Replace(ctx, 2, []int64{2}))
	r.NoError(l.catalog.BookCategories.Replace(ctx, 1, []int64{1}))
	r.NoError(l.catalog.BookCategories.Replace(ctx, 2, []int64{1}))

	for _, m := range []int64{7, 9} {
		_, err := l.ledger.Borrow(ctx, &model.BorrowRequest{MemberID: m, BookID: 1})
		r.NoError(err)
		_, err = l.carts.Add(ctx, &model.CartEntry{MemberID: m, BookID: 1, AddedAt: time.Now()})
		r.NoError(err)
	}
	_, err := l.ledger.Borrow(ctx, &model.BorrowRequest{MemberID: 7, BookID: 2})
	r.NoError(err)
	_, err = l.carts.Add(ctx, &model.CartEntry{MemberID: 7, BookID: 2, AddedAt: time.Now()})
	r.NoError(err)
}

func (l *library) available(bookID int64) int {
	book, err := l.catalog.Books.FindByID(context.Background(), bookID)
	require.NoError(l.t, err)
	return book.CopiesAvailable
}

func (l *library) loansOf(memberID int64) int {
	loans, err := l.loans.ListByMember(context.Background(), memberID, false)
	require.NoError(l.t, err)
	return len(loans)
}

func (l *library) cartOf(memberID int64) int {
	entries, err := l.carts.ListByMember(context.Background(), memberID)
	require.NoError(l.t, err)
	return len(entries)
}

func TestDeleteBook_RemovesEveryReference(t *testing.T) {
	l := newLibrary(t)
	l.seed()
	ctx := context.Background()

	summary, err := l.cascade.DeleteBook(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.CartEntries)
	assert.Equal(t, int64(2), summary.Borrowings)
	assert.Equal(t, int64(2), summary.AuthorLinks)
	assert.Equal(t, int64(1), summary.CategoryLinks)

	_, err = l.catalog.Books.FindByID(ctx, 1)
	assert.Error(t, err)
	authors, _ := l.catalog.BookAuthors.ListByBook(ctx, 1)
	assert.Empty(t, authors)
	assert.Equal(t, 1, l.loansOf(7), "loan of the other book stays")
	assert.Equal(t, 0, l.loansOf(9))
	assert.Equal(t, 1, l.cartOf(7))

	// book 2 is untouched
	authors, _ = l.catalog.BookAuthors.ListByBook(ctx, 2)
	assert.Equal(t, []int64{2}, authors)
	assert.Equal(t, 2, l.available(2))

	_, err = l.cascade.DeleteBook(ctx, 1)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound), "got %v", err)
	assert.Contains(t, l.recorder.entries, "Books:delete:1")
}

func TestDeleteBook_MidFailureRollsBackEverything(t *testing.T) {
	l := newLibrary(t)
	l.seed()
	ctx := context.Background()

	broken := *l.catalog
	broken.BookCategories = failingLinks{l.catalog.BookCategories}
	cascade := NewCascadeService(&broken, l.loans, l.carts, l.inventory, l.db, l.recorder, l.cfg)

	before := len(l.recorder.entries)
	_, err := cascade.DeleteBook(ctx, 1)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))

	_, err = l.catalog.Books.FindByID(ctx, 1)
	assert.NoError(t, err, "book must survive")
	authors, _ := l.catalog.BookAuthors.ListByBook(ctx, 1)
	assert.Equal(t, []int64{1, 2}, authors)
	assert.Equal(t, 2, l.loansOf(7))
	assert.Equal(t, 1, l.loansOf(9))
	assert.Equal(t, 2, l.cartOf(7))
	assert.Equal(t, 1, l.available(1))
	assert.Len(t, l.recorder.entries, before, "nothing is audited for a rolled back delete")
}

func TestDeleteAuthorAndCategory_OnlyTouchLinks(t *testing.T) {
	l := newLibrary(t)
	l.seed()
	ctx := context.Background()

	summary, err := l.cascade.DeleteAuthor(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.AuthorLinks)

	authors, _ := l.catalog.BookAuthors.ListByBook(ctx, 1)
	assert.Equal(t, []int64{1}, authors)
	authors, _ = l.catalog.BookAuthors.ListByBook(ctx, 2)
	assert.Empty(t, authors)
	_, err = l.catalog.Authors.FindByID(ctx, 2)
	assert.Error(t, err)

	summary, err = l.cascade.DeleteCategory(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.CategoryLinks)

	assert.Equal(t, 2, l.loansOf(7), "borrowing history is untouched")
	assert.Equal(t, 2, l.cartOf(7))
	assert.Equal(t, 1, l.available(1))

	_, err = l.cascade.DeleteCategory(ctx, 1)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	_, err = l.cascade.DeleteAuthor(ctx, 0)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestDeleteMember_RestoresInventory(t *testing.T) {
	l := newLibrary(t)
	l.seed()
	ctx := context.Background()

	// one returned loan must not be restored twice
	loans, err := l.loans.ListByMember(ctx, 7, true)
	require.NoError(t, err)
	var returned int64
	for _, b := range loans {
		if b.BookID == 2 {
			returned = b.ID
		}
	}
	_, err = l.ledger.Return(ctx, returned, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, l.available(2))

	summary, err := l.cascade.DeleteMember(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.CopiesRestored)
	assert.Equal(t, int64(2), summary.Borrowings)
	assert.Equal(t, int64(2), summary.CartEntries)

	assert.Equal(t, 2, l.available(1))
	assert.Equal(t, 3, l.available(2))
	assert.Equal(t, 0, l.loansOf(7))
	assert.Equal(t, 1, l.loansOf(9))

	for _, b := range []int64{1, 2} {
		report, err := l.inventory.Reconcile(ctx, b)
		require.NoError(t, err)
		assert.True(t, report.Consistent, "book %d: %+v", b, report)
	}
}

func TestDeleteBook_SerializesWithBorrows(t *testing.T) {
	l := newLibrary(t)
	l.seed()
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := l.cascade.DeleteBook(ctx, 2)
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, err := l.ledger.Borrow(ctx, &model.BorrowRequest{MemberID: 9, BookID: 2})
		if err != nil {
			assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound), "got %v", err)
		}
	}()
	wg.Wait()

	_, err := l.catalog.Books.FindByID(ctx, 2)
	assert.Error(t, err)
	active, err := l.loans.ListByMember(ctx, 9, false)
	require.NoError(t, err)
	for _, b := range active {
		assert.NotEqual(t, int64(2), b.BookID, "no loan may outlive its book")
	}
}

func TestDeleteMember_InterleavedWithBorrowLeavesNoLoan(t *testing.T) {
	l := newLibrary(t)
	l.seed()
	ctx := context.Background()

	var deleteErr error
	members := &interleaved[model.Member]{
		RecordRepository: l.catalog.Members,
		done:             make(chan struct{}),
	}
	members.hook = func() {
		_, deleteErr = l.cascade.DeleteMember(context.Background(), 9)
	}
	racing := *l.catalog
	racing.Members = members
	ledger := borrowingsservice.NewBorrowingService(
		l.loans,
		borrowingsrepository.NewMemoryBorrowLockRepository(l.db),
		&racing,
		l.inventory,
		l.db, l.db,
		borrowingsvalidator.NewBorrowingValidator(l.cfg.Log),
		l.recorder,
		l.cfg,
	)

	_, err := ledger.Borrow(ctx, &model.BorrowRequest{MemberID: 9, BookID: 2})
	if err != nil {
		assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound), "got %v", err)
	}
	<-members.done
	require.NoError(t, deleteErr)

	_, err = l.catalog.Members.FindByID(ctx, 9)
	assert.Error(t, err)
	assert.Equal(t, 0, l.loansOf(9), "no loan may outlive its member")
	assert.Equal(t, 2, l.available(1))
	assert.Equal(t, 2, l.available(2))
	for _, b := range []int64{1, 2} {
		report, err := l.inventory.Reconcile(ctx, b)
		require.NoError(t, err)
		assert.True(t, report.Consistent, "book %d: %+v", b, report)
	}
}

func TestDeleteAuthor_InterleavedWithCreateBookLeavesNoLink(t *testing.T) {
	l := newLibrary(t)
	l.seed()
	ctx := context.Background()

	var deleteErr error
	authors := &interleaved[model.Author]{
		RecordRepository: l.catalog.Authors,
		done:             make(chan struct{}),
	}
	authors.hook = func() {
		_, deleteErr = l.cascade.DeleteAuthor(context.Background(), 1)
	}
	racing := *l.catalog
	racing.Authors = authors
	catalog := catalogservice.NewCatalogService(
		&racing, l.inventory, l.db, l.db,
		catalogvalidator.NewCatalogValidator(l.cfg.Log),
		l.recorder, l.cfg,
	)

	book, err := catalog.CreateBook(ctx, &model.BookInput{
		BookFields: model.BookFields{Title: "Children of Dune", PublicationYear: 1976},
		AuthorIDs:  []int64{1},
	})
	<-authors.done
	require.NoError(t, deleteErr)
	require.NoError(t, err, "the book commits before the author delete runs")

	links, err := l.catalog.BookAuthors.ListByBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Empty(t, links, "no link may outlive its author")
}
