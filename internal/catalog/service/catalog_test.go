package service

import (
	"context"
	"shelfkeeper/internal/catalog/repository"
	"shelfkeeper/internal/catalog/validator"
	inventoryrepository "shelfkeeper/internal/inventory/repository"
	inventoryservice "shelfkeeper/internal/inventory/service"
	"shelfkeeper/pkg/config"
	"shelfkeeper/pkg/db/memory"
	apperrors "shelfkeeper/pkg/errors"
	"shelfkeeper/pkg/logger"
	"shelfkeeper/pkg/model"
	"sync"
	"testing"
)

type recordedEntry struct {
	table    string
	action   string
	recordID int64
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []recordedEntry
}

func (r *fakeRecorder) Record(ctx context.Context, table, action string, recordID int64, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, recordedEntry{table, action, recordID})
}

func (r *fakeRecorder) Failures() int64 { return 0 }

type noLoans struct{}

func (noLoans) CountActiveByBook(ctx context.Context, bookID int64) (int64, error) { return 0, nil }

type testEnv struct {
	db       *memory.DB
	repos    *repository.Repositories
	recorder *fakeRecorder
	service  CatalogService
}

func newTestEnv() *testEnv {
	db := memory.New()
	cfg := &config.Config{Log: logger.Discard()}
	recorder := &fakeRecorder{}
	repos := repository.NewMemoryRepositories(db)
	inventory := inventoryservice.NewInventoryService(
		inventoryrepository.NewMemoryInventoryRepository(db), noLoans{}, recorder, cfg)

	return &testEnv{
		db:       db,
		repos:    repos,
		recorder: recorder,
		service: NewCatalogService(repos, inventory, db, db,
			validator.NewCatalogValidator(cfg.Log), recorder, cfg),
	}
}

func (e *testEnv) author(t *testing.T, first, last string) int64 {
	t.Helper()
	a := &model.Author{FirstName: first, LastName: last}
	if err := e.service.CreateAuthor(context.Background(), a); err != nil {
		t.Fatalf("CreateAuthor: %v", err)
	}
	return a.ID
}

func (e *testEnv) category(t *testing.T, name string) int64 {
	t.Helper()
	c := &model.Category{Name: name}
	if err := e.service.CreateCategory(context.Background(), c); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	return c.ID
}

func (e *testEnv) bookCount() int {
	return memory.Register[int64, model.Book](e.db, inventoryrepository.BooksTable).Len()
}

func TestCreateBook(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a1 := env.author(t, "Frank", "Herbert")
	a2 := env.author(t, "Brian", "Herbert")
	c1 := env.category(t, "science fiction")

	details, err := env.service.CreateBook(ctx, &model.BookInput{
		BookFields:    model.BookFields{Title: "  Dune  ", ISBN: "978-0-441-17271-9", PublicationYear: 1965},
		InitialCopies: 3,
		AuthorIDs:     []int64{a2, a1, a2},
		CategoryIDs:   []int64{c1},
	})
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	if details.Title != "Dune" {
		t.Errorf("expected sanitized title, got %q", details.Title)
	}
	if details.ISBN != "9780441172719" {
		t.Errorf("expected normalized isbn, got %q", details.ISBN)
	}
	if details.CopiesAvailable != 3 || details.CopiesProvisioned != 3 {
		t.Errorf("expected 3 copies, got available=%d provisioned=%d", details.CopiesAvailable, details.CopiesProvisioned)
	}

	got, err := env.service.GetBook(ctx, details.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if len(got.AuthorIDs) != 2 || got.AuthorIDs[0] != a1 || got.AuthorIDs[1] != a2 {
		t.Errorf("expected authors [%d %d], got %v", a1, a2, got.AuthorIDs)
	}
	if len(got.CategoryIDs) != 1 || got.CategoryIDs[0] != c1 {
		t.Errorf("expected categories [%d], got %v", c1, got.CategoryIDs)
	}

	last := env.recorder.entries[len(env.recorder.entries)-1]
	if last.table != model.AuditTableBooks || last.action != model.AuditActionCreate || last.recordID != details.ID {
		t.Errorf("expected book create audit entry, got %+v", last)
	}
}

func TestCreateBook_UnknownReferencesWriteNothing(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a1 := env.author(t, "Ursula", "Le Guin")

	tests := []struct {
		name        string
		authorIDs   []int64
		categoryIDs []int64
		resource    string
		missing     []int64
	}{
		{"unknown author", []int64{a1, 404, 405}, nil, "Author", []int64{404, 405}},
		{"unknown category", []int64{a1}, []int64{77}, "Category", []int64{77}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.CreateBook(ctx, &model.BookInput{
				BookFields:    model.BookFields{Title: "The Dispossessed"},
				InitialCopies: 2,
				AuthorIDs:     tt.authorIDs,
				CategoryIDs:   tt.categoryIDs,
			})
			if !apperrors.HasCode(err, apperrors.CodeInvalidReference) {
				t.Fatalf("expected INVALID_REFERENCE, got %v", err)
			}

			appErr := apperrors.AsAppError(err)
			if appErr.Details["resource"] != tt.resource {
				t.Errorf("expected resource %s, got %v", tt.resource, appErr.Details["resource"])
			}
			missing, _ := appErr.Details["missing_ids"].([]int64)
			if len(missing) != len(tt.missing) {
				t.Fatalf("expected missing %v, got %v", tt.missing, missing)
			}
			for i := range missing {
				if missing[i] != tt.missing[i] {
					t.Errorf("expected missing %v, got %v", tt.missing, missing)
				}
			}

			if n := env.bookCount(); n != 0 {
				t.Errorf("expected no book rows, got %d", n)
			}
		})
	}
}

func TestCreateBook_DuplicateISBN(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a1 := env.author(t, "Frank", "Herbert")

	input := func() *model.BookInput {
		return &model.BookInput{
			BookFields: model.BookFields{Title: "Dune", ISBN: "9780441172719"},
			AuthorIDs:  []int64{a1},
		}
	}

	if _, err := env.service.CreateBook(ctx, input()); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	_, err := env.service.CreateBook(ctx, input())
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
	if n := env.bookCount(); n != 1 {
		t.Errorf("expected one book, got %d", n)
	}
}

func TestCreateBook_Validation(t *testing.T) {
	env := newTestEnv()

	_, err := env.service.CreateBook(context.Background(), &model.BookInput{
		BookFields: model.BookFields{Title: "   "},
	})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestUpdateBook_ReplacesLinkSetsAndKeepsCopies(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a1 := env.author(t, "Iain", "Banks")
	a2 := env.author(t, "Ken", "MacLeod")
	c1 := env.category(t, "space opera")
	c2 := env.category(t, "politics")

	created, err := env.service.CreateBook(ctx, &model.BookInput{
		BookFields:    model.BookFields{Title: "Excession", PublicationYear: 1996},
		InitialCopies: 4,
		AuthorIDs:     []int64{a1},
		CategoryIDs:   []int64{c1, c2},
	})
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	updated, err := env.service.UpdateBook(ctx, created.ID, &model.BookUpdate{
		BookFields:  model.BookFields{Title: "Excession (2nd ed.)", PublicationYear: 1997},
		AuthorIDs:   []int64{a2},
		CategoryIDs: []int64{},
	})
	if err != nil {
		t.Fatalf("UpdateBook: %v", err)
	}
	if updated.CopiesAvailable != 4 || updated.CopiesProvisioned != 4 {
		t.Errorf("expected copies untouched, got %+v", updated.Book)
	}

	got, err := env.service.GetBook(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got.Title != "Excession (2nd ed.)" || got.PublicationYear != 1997 {
		t.Errorf("expected updated metadata, got %+v", got.Book)
	}
	if len(got.AuthorIDs) != 1 || got.AuthorIDs[0] != a2 {
		t.Errorf("expected authors [%d], got %v", a2, got.AuthorIDs)
	}
	if len(got.CategoryIDs) != 0 {
		t.Errorf("expected empty category set, got %v", got.CategoryIDs)
	}
}

func TestUpdateBook_UnknownReferenceLeavesBookUnchanged(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a1 := env.author(t, "Iain", "Banks")

	created, err := env.service.CreateBook(ctx, &model.BookInput{
		BookFields: model.BookFields{Title: "Matter"},
		AuthorIDs:  []int64{a1},
	})
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	_, err = env.service.UpdateBook(ctx, created.ID, &model.BookUpdate{
		BookFields: model.BookFields{Title: "Renamed"},
		AuthorIDs:  []int64{999},
	})
	if !apperrors.HasCode(err, apperrors.CodeInvalidReference) {
		t.Fatalf("expected INVALID_REFERENCE, got %v", err)
	}

	got, _ := env.service.GetBook(ctx, created.ID)
	if got.Title != "Matter" || len(got.AuthorIDs) != 1 || got.AuthorIDs[0] != a1 {
		t.Errorf("expected book unchanged, got %+v", got)
	}
}

func TestUpdateBook_NotFound(t *testing.T) {
	env := newTestEnv()
	a1 := env.author(t, "Iain", "Banks")

	_, err := env.service.UpdateBook(context.Background(), 42, &model.BookUpdate{
		BookFields: model.BookFields{Title: "Ghost"},
		AuthorIDs:  []int64{a1},
	})
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestRecords(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	member := &model.Member{FirstName: " Grace ", LastName: "Hopper", Email: "GRACE@Example.com", Phone: "(212) 555-1234"}
	if err := env.service.CreateMember(ctx, member); err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	got, err := env.service.GetMember(ctx, member.ID)
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if got.FirstName != "Grace" || got.Email != "grace@example.com" || got.Phone != "+12125551234" {
		t.Errorf("expected sanitized member, got %+v", got)
	}

	librarian := &model.Librarian{FirstName: "Melvil", LastName: "Dewey", Email: "melvil@example.com"}
	if err := env.service.CreateLibrarian(ctx, librarian); err != nil {
		t.Fatalf("CreateLibrarian: %v", err)
	}
	if librarian.ID != 1 {
		t.Errorf("expected librarian sequence to start at 1, got %d", librarian.ID)
	}

	if _, err := env.service.GetAuthor(ctx, 5); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND for unknown author, got %v", err)
	}
	if _, err := env.service.GetCategory(ctx, 0); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for id 0, got %v", err)
	}
	if err := env.service.CreateMember(ctx, &model.Member{FirstName: "X"}); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
	badPhone := &model.Member{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "call me"}
	if err := env.service.CreateMember(ctx, badPhone); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("expected VALIDATION_ERROR for unparseable phone, got %v", err)
	}
}
