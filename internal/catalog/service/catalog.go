package service

import (
	"context"
	"errors"
	auditservice "shelfkeeper/internal/audit/service"
	"shelfkeeper/internal/catalog/repository"
	"shelfkeeper/internal/catalog/validator"
	inventoryservice "shelfkeeper/internal/inventory/service"
	"shelfkeeper/pkg/config"
	"shelfkeeper/pkg/db"
	apperrors "shelfkeeper/pkg/errors"
	"shelfkeeper/pkg/model"
	"shelfkeeper/pkg/sanitizer"
	"shelfkeeper/pkg/validation"
)

const (
	SequenceBooks      = "books"
	SequenceAuthors    = "authors"
	SequenceCategories = "categories"
	SequenceMembers    = "members"
	SequenceLibrarians = "librarians"
)

type CatalogService interface {
	// CreateBook writes the book, its initial copies and both link sets in
	// one unit of work.
	CreateBook(ctx context.Context, input *model.BookInput) (*model.BookDetails, error)
	// UpdateBook replaces the metadata and both link sets of a book. Copy
	// counters are left alone.
	UpdateBook(ctx context.Context, id int64, update *model.BookUpdate) (*model.BookDetails, error)
	GetBook(ctx context.Context, id int64) (*model.BookDetails, error)

	CreateAuthor(ctx context.Context, author *model.Author) error
	GetAuthor(ctx context.Context, id int64) (*model.Author, error)
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	CreateMember(ctx context.Context, member *model.Member) error
	GetMember(ctx context.Context, id int64) (*model.Member, error)
	CreateLibrarian(ctx context.Context, librarian *model.Librarian) error
	GetLibrarian(ctx context.Context, id int64) (*model.Librarian, error)
}

type catalogService struct {
	repos     *repository.Repositories
	inventory inventoryservice.InventoryService
	tx        db.TransactionManager
	seq       db.Sequencer
	validator *validator.CatalogValidator
	recorder  auditservice.Recorder
	cfg       *config.Config
}

func NewCatalogService(
	repos *repository.Repositories,
	inventory inventoryservice.InventoryService,
	tx db.TransactionManager,
	seq db.Sequencer,
	validator *validator.CatalogValidator,
	recorder auditservice.Recorder,
	cfg *config.Config,
) CatalogService {
	return &catalogService{
		repos:     repos,
		inventory: inventory,
		tx:        tx,
		seq:       seq,
		validator: validator,
		recorder:  recorder,
		cfg:       cfg,
	}
}

func (s *catalogService) validate(entity string, err error) error {
	if err == nil {
		return nil
	}
	s.cfg.Log.Warn(entity+" validation failed", "error", err)
	return validation.AppError(entity+" validation failed", err)
}

func (s *catalogService) nextID(ctx context.Context, sequence string) (int64, error) {
	id, err := s.seq.Next(ctx, sequence)
	if err != nil {
		s.cfg.Log.Error("Failed to allocate id", "sequence", sequence, "error", err)
		return 0, apperrors.Internal("Failed to allocate id", err)
	}
	return id, nil
}

func sanitizePerson(firstName, lastName, email *string) {
	*firstName = sanitizer.SanitizeName(*firstName)
	*lastName = sanitizer.SanitizeName(*lastName)
	if email != nil {
		*email = sanitizer.SanitizeEmail(*email)
	}
}

// createRecord stores record under a freshly allocated id and audits it.
func createRecord[T any](
	ctx context.Context,
	s *catalogService,
	repo repository.RecordRepository[T],
	record *T,
	setID func(int64),
	sequence, table, entity string,
) error {
	id, err := s.nextID(ctx, sequence)
	if err != nil {
		return err
	}
	setID(id)

	if err := repo.Create(ctx, record); err != nil {
		s.cfg.Log.Error("Failed to create "+entity, "error", err)
		return apperrors.Internal("Failed to create "+entity, err)
	}

	s.cfg.Log.Info(entity+" created successfully", "id", id)
	s.recorder.Record(ctx, table, model.AuditActionCreate, id, record)
	return nil
}

func getRecord[T any](ctx context.Context, repo repository.RecordRepository[T], id int64, notFound error, entity string) (*T, error) {
	if id <= 0 {
		return nil, apperrors.InvalidInput(entity + " ID must be positive")
	}

	record, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, notFound) {
			return nil, apperrors.NotFoundWithID(entity, id)
		}
		return nil, apperrors.Internal("Failed to retrieve "+entity, err)
	}
	return record, nil
}
