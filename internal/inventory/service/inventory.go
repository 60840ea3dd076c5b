package service

import (
	"context"
	"errors"
	auditservice "shelfkeeper/internal/audit/service"
	inventoryerrors "shelfkeeper/internal/inventory/errors"
	"shelfkeeper/internal/inventory/repository"
	"shelfkeeper/pkg/config"
	apperrors "shelfkeeper/pkg/errors"
	"shelfkeeper/pkg/model"
)

// ActiveLoanCounter reports how many copies of a book are out on loan.
type ActiveLoanCounter interface {
	CountActiveByBook(ctx context.Context, bookID int64) (int64, error)
}

type InventoryService interface {
	// Adjust moves copies_available by delta within the caller's unit of
	// work. It fails with INSUFFICIENT_INVENTORY when the result would be
	// negative and NOT_FOUND when the book does not exist.
	Adjust(ctx context.Context, bookID int64, delta int) (int, error)
	// Provision changes the physical copy count of a book. Removing copies
	// is bounded by the copies currently on the shelf.
	Provision(ctx context.Context, bookID int64, delta int) (*model.Book, error)
	// AddCopies is Provision as a standalone, audited operation.
	AddCopies(ctx context.Context, bookID int64, delta int) (*model.Book, error)
	Reconcile(ctx context.Context, bookID int64) (*model.InventoryReport, error)
}

type inventoryService struct {
	repo     repository.InventoryRepository
	loans    ActiveLoanCounter
	recorder auditservice.Recorder
	cfg      *config.Config
}

func NewInventoryService(
	repo repository.InventoryRepository,
	loans ActiveLoanCounter,
	recorder auditservice.Recorder,
	cfg *config.Config,
) InventoryService {
	return &inventoryService{
		repo:     repo,
		loans:    loans,
		recorder: recorder,
		cfg:      cfg,
	}
}

func (s *inventoryService) Adjust(ctx context.Context, bookID int64, delta int) (int, error) {
	available, err := s.repo.Adjust(ctx, bookID, delta)
	if err != nil {
		return 0, s.mapError(bookID, err, "Failed to adjust inventory")
	}

	s.cfg.Log.Debug("Inventory adjusted",
		"book_id", bookID,
		"delta", delta,
		"copies_available", available,
	)
	return available, nil
}

func (s *inventoryService) Provision(ctx context.Context, bookID int64, delta int) (*model.Book, error) {
	book, err := s.repo.Provision(ctx, bookID, delta)
	if err != nil {
		return nil, s.mapError(bookID, err, "Failed to provision copies")
	}
	return book, nil
}

func (s *inventoryService) AddCopies(ctx context.Context, bookID int64, delta int) (*model.Book, error) {
	if delta == 0 {
		return nil, apperrors.Validation("Invalid copies input", map[string]any{
			"fields": map[string]any{"delta": "delta must not be 0"},
		})
	}

	book, err := s.Provision(ctx, bookID, delta)
	if err != nil {
		s.cfg.Log.Warn("Failed to change copies", "book_id", bookID, "delta", delta, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Book copies provisioned",
		"book_id", bookID,
		"delta", delta,
		"copies_provisioned", book.CopiesProvisioned,
		"copies_available", book.CopiesAvailable,
	)
	s.recorder.Record(ctx, model.AuditTableBooks, model.AuditActionUpdate, bookID, map[string]any{
		"copies_delta":       delta,
		"copies_provisioned": book.CopiesProvisioned,
		"copies_available":   book.CopiesAvailable,
	})
	return book, nil
}

func (s *inventoryService) Reconcile(ctx context.Context, bookID int64) (*model.InventoryReport, error) {
	book, err := s.repo.Get(ctx, bookID)
	if err != nil {
		return nil, s.mapError(bookID, err, "Failed to load inventory")
	}

	active, err := s.loans.CountActiveByBook(ctx, bookID)
	if err != nil {
		return nil, apperrors.Internal("Failed to count active borrowings", err)
	}

	report := &model.InventoryReport{
		BookID:            bookID,
		CopiesProvisioned: book.CopiesProvisioned,
		CopiesAvailable:   book.CopiesAvailable,
		ActiveBorrowings:  active,
		Consistent:        int64(book.CopiesAvailable) == int64(book.CopiesProvisioned)-active,
	}
	if !report.Consistent {
		s.cfg.Log.Error("Inventory drift detected",
			"alert", true,
			"book_id", bookID,
			"copies_provisioned", report.CopiesProvisioned,
			"copies_available", report.CopiesAvailable,
			"active_borrowings", active,
		)
	}
	return report, nil
}

func (s *inventoryService) mapError(bookID int64, err error, msg string) error {
	switch {
	case errors.Is(err, inventoryerrors.ErrNotFound):
		return apperrors.NotFoundWithID("Book", bookID)
	case errors.Is(err, inventoryerrors.ErrInsufficient):
		return apperrors.InsufficientInventory(bookID)
	default:
		return apperrors.Internal(msg, err)
	}
}
