package service

import (
	"context"
	"errors"
	auditservice "shelfkeeper/internal/audit/service"
	borrowingserrors "shelfkeeper/internal/borrowings/errors"
	"shelfkeeper/internal/borrowings/repository"
	"shelfkeeper/internal/borrowings/validator"
	catalogerrors "shelfkeeper/internal/catalog/errors"
	catalogrepository "shelfkeeper/internal/catalog/repository"
	inventoryservice "shelfkeeper/internal/inventory/service"
	"shelfkeeper/pkg/config"
	"shelfkeeper/pkg/db"
	apperrors "shelfkeeper/pkg/errors"
	"shelfkeeper/pkg/model"
	"shelfkeeper/pkg/validation"
	"time"
)

const SequenceBorrowings = "borrowings"

type BorrowingService interface {
	// Borrow takes one copy of the book off the shelf and opens a loan for
	// the member, both in one unit of work.
	Borrow(ctx context.Context, req *model.BorrowRequest) (*model.BorrowingView, error)
	// Return closes the loan and puts the copy back on the shelf.
	Return(ctx context.Context, id int64, req *model.ReturnRequest) (*model.BorrowingView, error)
	GetByID(ctx context.Context, id int64) (*model.BorrowingView, error)
	ListByMember(ctx context.Context, memberID int64, activeOnly bool) ([]*model.BorrowingView, error)
}

type Option func(*borrowingService)

// WithClock replaces the wall clock used for loan timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *borrowingService) {
		s.now = now
	}
}

type borrowingService struct {
	repo       repository.BorrowingRepository
	lockRepo   repository.BorrowLockRepository
	members    catalogrepository.RecordRepository[model.Member]
	librarians catalogrepository.RecordRepository[model.Librarian]
	inventory  inventoryservice.InventoryService
	tx         db.TransactionManager
	seq        db.Sequencer
	validator  *validator.BorrowingValidator
	recorder   auditservice.Recorder
	cfg        *config.Config
	now        func() time.Time
}

func NewBorrowingService(
	repo repository.BorrowingRepository,
	lockRepo repository.BorrowLockRepository,
	catalog *catalogrepository.Repositories,
	inventory inventoryservice.InventoryService,
	tx db.TransactionManager,
	seq db.Sequencer,
	validator *validator.BorrowingValidator,
	recorder auditservice.Recorder,
	cfg *config.Config,
	opts ...Option,
) BorrowingService {
	s := &borrowingService{
		repo:       repo,
		lockRepo:   lockRepo,
		members:    catalog.Members,
		librarians: catalog.Librarians,
		inventory:  inventory,
		tx:         tx,
		seq:        seq,
		validator:  validator,
		recorder:   recorder,
		cfg:        cfg,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *borrowingService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *borrowingService) Borrow(ctx context.Context, req *model.BorrowRequest) (*model.BorrowingView, error) {
	if req == nil {
		return nil, apperrors.InvalidInput("Borrow request cannot be empty")
	}
	if err := s.validator.ValidateBorrow(req); err != nil {
		s.cfg.Log.Warn("Borrow validation failed", "error", err)
		return nil, validation.AppError("Borrow validation failed", err)
	}

	lockID, err := s.acquireBorrowLock(ctx, req.MemberID, req.BookID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.lockRepo.Delete(context.WithoutCancel(ctx), lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release borrow lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	id, err := s.seq.Next(ctx, SequenceBorrowings)
	if err != nil {
		s.cfg.Log.Error("Failed to allocate borrowing id", "error", err)
		return nil, apperrors.Internal("Failed to allocate borrowing id", err)
	}

	now := s.timestamp()
	borrowing := &model.Borrowing{
		ID:         id,
		MemberID:   req.MemberID,
		BookID:     req.BookID,
		BorrowedAt: now,
		DueDate:    now.Add(s.cfg.LoanPeriod),
		Status:     model.BorrowingStatusBorrowed,
		Active:     true,
	}

	err = s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if err := s.holdMember(ctx, req.MemberID); err != nil {
			return err
		}
		if err := s.verifyNoActiveLoan(ctx, req.MemberID, req.BookID); err != nil {
			return err
		}
		if _, err := s.inventory.Adjust(ctx, req.BookID, -1); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, borrowing); err != nil {
			if errors.Is(err, borrowingserrors.ErrDuplicateActive) {
				return apperrors.DuplicateActiveBorrowing(req.MemberID, req.BookID)
			}
			return apperrors.Internal("Failed to create borrowing", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Warn("Borrow rejected",
			"member_id", req.MemberID,
			"book_id", req.BookID,
			"error", err,
		)
		return nil, err
	}

	s.cfg.Log.Info("Book borrowed successfully",
		"id", borrowing.ID,
		"member_id", borrowing.MemberID,
		"book_id", borrowing.BookID,
		"due_date", borrowing.DueDate,
	)
	s.recorder.Record(ctx, model.AuditTableBorrowings, model.AuditActionBorrow, borrowing.ID, borrowing)
	return model.NewBorrowingView(borrowing, now), nil
}

func (s *borrowingService) Return(ctx context.Context, id int64, req *model.ReturnRequest) (*model.BorrowingView, error) {
	if id <= 0 {
		return nil, apperrors.InvalidInput("Borrowing ID must be positive")
	}
	if req == nil {
		req = &model.ReturnRequest{}
	}
	if err := s.validator.ValidateReturn(req); err != nil {
		s.cfg.Log.Warn("Return validation failed", "error", err)
		return nil, validation.AppError("Return validation failed", err)
	}

	now := s.timestamp()
	var returned *model.Borrowing
	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if req.LibrarianID != nil {
			if _, err := s.librarians.FindByID(ctx, *req.LibrarianID); err != nil {
				if errors.Is(err, catalogerrors.ErrLibrarianNotFound) {
					return apperrors.NotFoundWithID("Librarian", *req.LibrarianID)
				}
				return apperrors.Internal("Failed to retrieve librarian", err)
			}
		}
		b, err := s.repo.MarkReturned(ctx, id, now, req.LibrarianID)
		if err != nil {
			switch {
			case errors.Is(err, borrowingserrors.ErrNotFound):
				return apperrors.NotFoundWithID("Borrowing", id)
			case errors.Is(err, borrowingserrors.ErrAlreadyReturned):
				return apperrors.AlreadyReturned(id)
			default:
				return apperrors.Internal("Failed to return borrowing", err)
			}
		}
		if _, err := s.inventory.Adjust(ctx, b.BookID, +1); err != nil {
			return err
		}
		returned = b
		return nil
	})
	if err != nil {
		s.cfg.Log.Warn("Return rejected", "id", id, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Book returned successfully",
		"id", returned.ID,
		"member_id", returned.MemberID,
		"book_id", returned.BookID,
	)
	s.recorder.Record(ctx, model.AuditTableBorrowings, model.AuditActionReturn, returned.ID, returned)
	return model.NewBorrowingView(returned, now), nil
}

func (s *borrowingService) GetByID(ctx context.Context, id int64) (*model.BorrowingView, error) {
	if id <= 0 {
		return nil, apperrors.InvalidInput("Borrowing ID must be positive")
	}

	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, borrowingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Borrowing", id)
		}
		return nil, apperrors.Internal("Failed to retrieve borrowing", err)
	}
	return model.NewBorrowingView(b, s.now()), nil
}

func (s *borrowingService) ListByMember(ctx context.Context, memberID int64, activeOnly bool) ([]*model.BorrowingView, error) {
	if memberID <= 0 {
		return nil, apperrors.InvalidInput("Member ID must be positive")
	}

	if _, err := s.members.FindByID(ctx, memberID); err != nil {
		if errors.Is(err, catalogerrors.ErrMemberNotFound) {
			return nil, apperrors.NotFoundWithID("Member", memberID)
		}
		return nil, apperrors.Internal("Failed to retrieve member", err)
	}

	borrowings, err := s.repo.ListByMember(ctx, memberID, activeOnly)
	if err != nil {
		s.cfg.Log.Error("Failed to list borrowings", "member_id", memberID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve borrowings", err)
	}

	now := s.now()
	views := make([]*model.BorrowingView, 0, len(borrowings))
	for _, b := range borrowings {
		views = append(views, model.NewBorrowingView(b, now))
	}
	return views, nil
}

// holdMember fails with NOT_FOUND for an unknown member. The member record is
// written, so a member cascade running at the same time conflicts with the
// borrow instead of missing its loan.
func (s *borrowingService) holdMember(ctx context.Context, memberID int64) error {
	missing, err := s.members.Touch(ctx, []int64{memberID})
	if err != nil {
		return apperrors.Internal("Failed to retrieve member", err)
	}
	if len(missing) > 0 {
		return apperrors.NotFoundWithID("Member", memberID)
	}
	return nil
}

func (s *borrowingService) verifyNoActiveLoan(ctx context.Context, memberID, bookID int64) error {
	_, err := s.repo.FindActive(ctx, memberID, bookID)
	switch {
	case err == nil:
		return apperrors.DuplicateActiveBorrowing(memberID, bookID)
	case errors.Is(err, borrowingserrors.ErrNotFound):
		return nil
	default:
		return apperrors.Internal("Failed to check active borrowings", err)
	}
}

// acquireBorrowLock serializes concurrent borrows of one book by one member.
// A held lock means another borrow of the pair is in flight.
func (s *borrowingService) acquireBorrowLock(ctx context.Context, memberID, bookID int64) (string, error) {
	lock := &model.BorrowLock{
		ID:        model.BorrowLockID(memberID, bookID),
		ExpiresAt: time.Now().UTC().Add(s.cfg.BorrowLockTTL),
	}

	if err := s.lockRepo.Create(ctx, lock); err != nil {
		if errors.Is(err, borrowingserrors.ErrLockHeld) {
			return "", apperrors.DuplicateActiveBorrowing(memberID, bookID)
		}
		return "", apperrors.Internal("Failed to acquire borrow lock", err)
	}
	return lock.ID, nil
}
