//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/http"
	"shelfkeeper/pkg/client"
	apperrors "shelfkeeper/pkg/errors"
	"shelfkeeper/pkg/model"
	"shelfkeeper/test/integration/testutil"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func setup(t *testing.T) *client.LibraryClient {
	t.Helper()
	_, library := setupWithMongo(t)
	return library
}

func setupWithMongo(t *testing.T) (*testutil.MongoHelper, *client.LibraryClient) {
	t.Helper()
	env := testutil.NewTestEnv()
	mongo, library := env.Setup(t)
	t.Cleanup(func() { env.Cleanup(t, mongo) })
	return mongo, library
}

func newBook(t *testing.T, c *client.LibraryClient, copies int) (bookID, authorID int64) {
	t.Helper()
	resp, err := c.CreateAuthor(testutil.Author())
	authorID = testutil.CreatedID(t, resp, err)
	resp, err = c.CreateBook(testutil.NewBookBuilder(authorID).WithCopies(copies).Build())
	return testutil.CreatedID(t, resp, err), authorID
}

func newMember(t *testing.T, c *client.LibraryClient) int64 {
	t.Helper()
	resp, err := c.CreateMember(testutil.Member())
	return testutil.CreatedID(t, resp, err)
}

func copiesAvailable(t *testing.T, c *client.LibraryClient, bookID int64) int {
	t.Helper()
	resp, err := c.GetBook(bookID)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var book model.BookDetails
	testutil.DecodeData(t, resp, &book)
	return book.CopiesAvailable
}

func TestBorrowAndReturn(t *testing.T) {
	c := setup(t)
	bookID, _ := newBook(t, c, 1)
	member := newMember(t, c)

	resp, err := c.Borrow(member, bookID)
	loanID := testutil.CreatedID(t, resp, err)
	if got := copiesAvailable(t, c, bookID); got != 0 {
		t.Fatalf("expected 0 copies after borrow, got %d", got)
	}

	resp, err = c.Borrow(member, bookID)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	testutil.AssertStatusCode(t, resp, http.StatusConflict)

	resp, err = c.Return(loanID, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	if got := copiesAvailable(t, c, bookID); got != 1 {
		t.Fatalf("expected 1 copy after return, got %d", got)
	}

	resp, err = c.Return(loanID, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	testutil.AssertStatusCode(t, resp, http.StatusConflict)
	testutil.AssertErrorCode(t, resp, apperrors.CodeAlreadyReturned)
}

func TestConcurrentBorrowsNeverOversell(t *testing.T) {
	c := setup(t)
	const copies, members = 3, 12
	bookID, _ := newBook(t, c, copies)

	ids := make([]int64, members)
	for i := range ids {
		ids[i] = newMember(t, c)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for _, member := range ids {
		wg.Add(1)
		go func(member int64) {
			defer wg.Done()
			resp, err := c.Borrow(member, bookID)
			if err != nil {
				t.Errorf("request failed: %v", err)
				return
			}
			if resp.StatusCode == http.StatusCreated {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(member)
	}
	wg.Wait()

	if successes != copies {
		t.Errorf("expected %d successful borrows, got %d", copies, successes)
	}
	if got := copiesAvailable(t, c, bookID); got != 0 {
		t.Errorf("expected 0 copies left, got %d", got)
	}

	resp, err := c.Inventory(bookID)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	testutil.AssertContains(t, resp, `"consistent":true`)
}

func TestDeleteBookCascades(t *testing.T) {
	c := setup(t)
	bookID, authorID := newBook(t, c, 2)
	member := newMember(t, c)

	resp, err := c.Borrow(member, bookID)
	testutil.CreatedID(t, resp, err)
	resp, err = c.AddToCart(member, bookID)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	resp, err = c.DeleteBook(bookID)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	testutil.AssertStatusCode(t, resp, http.StatusNoContent)

	resp, err = c.GetBook(bookID)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	testutil.AssertStatusCode(t, resp, http.StatusNotFound)

	resp, err = c.MemberBorrowings(member, false)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var loans []model.BorrowingView
	testutil.DecodeData(t, resp, &loans)
	if len(loans) != 0 {
		t.Errorf("expected loans of the deleted book to be gone, got %d", len(loans))
	}

	resp, err = c.DeleteAuthor(authorID)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	testutil.AssertStatusCode(t, resp, http.StatusNoContent)
}

func TestCreateBookWithUnknownAuthor(t *testing.T) {
	c := setup(t)

	resp, err := c.CreateBook(testutil.NewBookBuilder(999999).Build())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	testutil.AssertStatusCode(t, resp, http.StatusUnprocessableEntity)
	testutil.AssertErrorCode(t, resp, apperrors.CodeInvalidReference)
}

func TestIdempotentBorrowRetry(t *testing.T) {
	c := setup(t)
	bookID, _ := newBook(t, c, 5)
	member := newMember(t, c)
	key := fmt.Sprintf("borrow-%d-%d", member, bookID)

	first, err := c.BorrowIdempotent(member, bookID, key)
	firstID := testutil.CreatedID(t, first, err)
	second, err := c.BorrowIdempotent(member, bookID, key)
	secondID := testutil.CreatedID(t, second, err)

	if firstID != secondID {
		t.Errorf("expected replayed loan %d, got %d", firstID, secondID)
	}
	if got := copiesAvailable(t, c, bookID); got != 4 {
		t.Errorf("expected exactly one copy taken, got %d available", got)
	}
}

func TestExpiredBorrowLockIsReclaimed(t *testing.T) {
	mongo, c := setupWithMongo(t)
	bookID, _ := newBook(t, c, 2)
	stale, held := newMember(t, c), newMember(t, c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	now := time.Now().UTC()
	locks := mongo.GetCollection("Borrow_locks")
	_, err := locks.InsertMany(ctx, []any{
		model.BorrowLock{ID: model.BorrowLockID(stale, bookID), ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-2 * time.Minute)},
		model.BorrowLock{ID: model.BorrowLockID(held, bookID), ExpiresAt: now.Add(time.Hour), CreatedAt: now},
	})
	if err != nil {
		t.Fatalf("failed to seed locks: %v", err)
	}

	resp, err := c.Borrow(stale, bookID)
	testutil.CreatedID(t, resp, err)

	resp, err = c.Borrow(held, bookID)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	testutil.AssertStatusCode(t, resp, http.StatusConflict)
	testutil.AssertErrorCode(t, resp, apperrors.CodeDuplicateActiveBorrowing)
}

func TestDeleteMemberRacingBorrowsLeavesNoLoan(t *testing.T) {
	mongo, c := setupWithMongo(t)
	const books = 6
	ids := make([]int64, books)
	for i := range ids {
		ids[i], _ = newBook(t, c, 1)
	}
	member := newMember(t, c)

	var wg sync.WaitGroup
	for _, bookID := range ids {
		wg.Add(1)
		go func(bookID int64) {
			defer wg.Done()
			if _, err := c.Borrow(member, bookID); err != nil {
				t.Errorf("request failed: %v", err)
			}
		}(bookID)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := c.DeleteMember(member)
		if err != nil {
			t.Errorf("request failed: %v", err)
			return
		}
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("expected member delete to succeed, got %d: %s", resp.StatusCode, resp.Body)
		}
	}()
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	orphans, err := mongo.GetCollection("Borrowings").CountDocuments(ctx, bson.M{"member_id": member})
	if err != nil {
		t.Fatalf("failed to count borrowings: %v", err)
	}
	if orphans != 0 {
		t.Errorf("expected no loans of the deleted member, got %d", orphans)
	}
	for _, bookID := range ids {
		if got := copiesAvailable(t, c, bookID); got != 1 {
			t.Errorf("book %d: expected its copy back, got %d available", bookID, got)
		}
	}
}

func TestCatalogCartAndLibrarianReturn(t *testing.T) {
	c := setup(t)
	bookID, authorID := newBook(t, c, 1)
	member := newMember(t, c)

	resp, err := c.CreateCategory(testutil.Category())
	categoryID := testutil.CreatedID(t, resp, err)
	resp, err = c.CreateLibrarian(testutil.Librarian())
	librarianID := testutil.CreatedID(t, resp, err)

	resp, err = c.UpdateBook(bookID, map[string]any{
		"title":            "Renamed",
		"publication_year": 1999,
		"author_ids":       []int64{authorID},
		"category_ids":     []int64{categoryID},
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var details model.BookDetails
	testutil.DecodeData(t, resp, &details)
	if details.Title != "Renamed" || len(details.CategoryIDs) != 1 || details.CategoryIDs[0] != categoryID {
		t.Errorf("unexpected book after update: %+v", details)
	}

	resp, err = c.AddCopies(bookID, 2)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	if got := copiesAvailable(t, c, bookID); got != 3 {
		t.Errorf("expected 3 copies after provisioning, got %d", got)
	}

	resp, err = c.AddToCart(member, bookID)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	testutil.AssertStatusCode(t, resp, http.StatusCreated)
	resp, err = c.Cart(member)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var cart []model.CartEntry
	testutil.DecodeData(t, resp, &cart)
	if len(cart) != 1 || cart[0].BookID != bookID {
		t.Errorf("unexpected cart: %+v", cart)
	}
	resp, err = c.RemoveFromCart(member, bookID)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	testutil.AssertStatusCode(t, resp, http.StatusNoContent)

	resp, err = c.Borrow(member, bookID)
	loanID := testutil.CreatedID(t, resp, err)
	resp, err = c.Return(loanID, &librarianID)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	resp, err = c.GetBorrowing(loanID)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var loan model.BorrowingView
	testutil.DecodeData(t, resp, &loan)
	if loan.State != model.BorrowingStateReturned || loan.LibrarianID == nil || *loan.LibrarianID != librarianID {
		t.Errorf("unexpected loan after return: %+v", loan)
	}

	resp, err = c.DeleteCategory(categoryID)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	testutil.AssertStatusCode(t, resp, http.StatusNoContent)
}
