package service

import (
	"context"
	"errors"
	auditservice "shelfkeeper/internal/audit/service"
	borrowingsrepository "shelfkeeper/internal/borrowings/repository"
	cartsrepository "shelfkeeper/internal/carts/repository"
	catalogerrors "shelfkeeper/internal/catalog/errors"
	catalogrepository "shelfkeeper/internal/catalog/repository"
	inventoryservice "shelfkeeper/internal/inventory/service"
	"shelfkeeper/pkg/config"
	"shelfkeeper/pkg/db"
	apperrors "shelfkeeper/pkg/errors"
	"shelfkeeper/pkg/model"
)

// CascadeService deletes a record together with everything that references
// it. Each delete is one unit of work: a failure at any step leaves every
// table as it was.
type CascadeService interface {
	DeleteBook(ctx context.Context, id int64) (*model.DeletionSummary, error)
	DeleteAuthor(ctx context.Context, id int64) (*model.DeletionSummary, error)
	DeleteCategory(ctx context.Context, id int64) (*model.DeletionSummary, error)
	// DeleteMember puts every copy the member still holds back on the shelf
	// before removing the member's loans and cart.
	DeleteMember(ctx context.Context, id int64) (*model.DeletionSummary, error)
}

type cascadeService struct {
	catalog    *catalogrepository.Repositories
	borrowings borrowingsrepository.BorrowingRepository
	carts      cartsrepository.CartRepository
	inventory  inventoryservice.InventoryService
	tx         db.TransactionManager
	recorder   auditservice.Recorder
	cfg        *config.Config
}

func NewCascadeService(
	catalog *catalogrepository.Repositories,
	borrowings borrowingsrepository.BorrowingRepository,
	carts cartsrepository.CartRepository,
	inventory inventoryservice.InventoryService,
	tx db.TransactionManager,
	recorder auditservice.Recorder,
	cfg *config.Config,
) CascadeService {
	return &cascadeService{
		catalog:    catalog,
		borrowings: borrowings,
		carts:      carts,
		inventory:  inventory,
		tx:         tx,
		recorder:   recorder,
		cfg:        cfg,
	}
}

func (s *cascadeService) DeleteBook(ctx context.Context, id int64) (*model.DeletionSummary, error) {
	summary := &model.DeletionSummary{Table: model.AuditTableBooks, ID: id}

	err := s.run(ctx, summary, func(ctx context.Context) error {
		if _, err := s.catalog.Books.FindByID(ctx, id); err != nil {
			return notFound(err, catalogerrors.ErrBookNotFound, "Book", id)
		}

		var err error
		if summary.CartEntries, err = s.carts.DeleteByBook(ctx, id); err != nil {
			return apperrors.Internal("Failed to delete cart entries", err)
		}
		if summary.Borrowings, err = s.borrowings.DeleteByBook(ctx, id); err != nil {
			return apperrors.Internal("Failed to delete borrowings", err)
		}
		if summary.AuthorLinks, err = s.catalog.BookAuthors.DeleteByBook(ctx, id); err != nil {
			return apperrors.Internal("Failed to delete author links", err)
		}
		if summary.CategoryLinks, err = s.catalog.BookCategories.DeleteByBook(ctx, id); err != nil {
			return apperrors.Internal("Failed to delete category links", err)
		}
		if err := s.catalog.Books.Delete(ctx, id); err != nil {
			return notFound(err, catalogerrors.ErrBookNotFound, "Book", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *cascadeService) DeleteAuthor(ctx context.Context, id int64) (*model.DeletionSummary, error) {
	summary := &model.DeletionSummary{Table: model.AuditTableAuthors, ID: id}

	err := s.run(ctx, summary, func(ctx context.Context) error {
		if _, err := s.catalog.Authors.FindByID(ctx, id); err != nil {
			return notFound(err, catalogerrors.ErrAuthorNotFound, "Author", id)
		}

		var err error
		if summary.AuthorLinks, err = s.catalog.BookAuthors.DeleteByTarget(ctx, id); err != nil {
			return apperrors.Internal("Failed to delete author links", err)
		}
		if err := s.catalog.Authors.Delete(ctx, id); err != nil {
			return notFound(err, catalogerrors.ErrAuthorNotFound, "Author", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *cascadeService) DeleteCategory(ctx context.Context, id int64) (*model.DeletionSummary, error) {
	summary := &model.DeletionSummary{Table: model.AuditTableCategories, ID: id}

	err := s.run(ctx, summary, func(ctx context.Context) error {
		if _, err := s.catalog.Categories.FindByID(ctx, id); err != nil {
			return notFound(err, catalogerrors.ErrCategoryNotFound, "Category", id)
		}

		var err error
		if summary.CategoryLinks, err = s.catalog.BookCategories.DeleteByTarget(ctx, id); err != nil {
			return apperrors.Internal("Failed to delete category links", err)
		}
		if err := s.catalog.Categories.Delete(ctx, id); err != nil {
			return notFound(err, catalogerrors.ErrCategoryNotFound, "Category", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *cascadeService) DeleteMember(ctx context.Context, id int64) (*model.DeletionSummary, error) {
	summary := &model.DeletionSummary{Table: model.AuditTableMembers, ID: id}

	err := s.run(ctx, summary, func(ctx context.Context) error {
		if _, err := s.catalog.Members.FindByID(ctx, id); err != nil {
			return notFound(err, catalogerrors.ErrMemberNotFound, "Member", id)
		}

		active, err := s.borrowings.ListByMember(ctx, id, true)
		if err != nil {
			return apperrors.Internal("Failed to list active borrowings", err)
		}
		for _, b := range active {
			if _, err := s.inventory.Adjust(ctx, b.BookID, +1); err != nil {
				return err
			}
		}
		summary.CopiesRestored = int64(len(active))

		if summary.CartEntries, err = s.carts.DeleteByMember(ctx, id); err != nil {
			return apperrors.Internal("Failed to delete cart entries", err)
		}
		if summary.Borrowings, err = s.borrowings.DeleteByMember(ctx, id); err != nil {
			return apperrors.Internal("Failed to delete borrowings", err)
		}
		if err := s.catalog.Members.Delete(ctx, id); err != nil {
			return notFound(err, catalogerrors.ErrMemberNotFound, "Member", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// run executes fn as one unit of work and audits the delete once it has
// committed. fn may run more than once when the store retries the unit, so
// the summary counters are reset before each attempt.
func (s *cascadeService) run(ctx context.Context, summary *model.DeletionSummary, fn func(ctx context.Context) error) error {
	if summary.ID <= 0 {
		return apperrors.InvalidInput(summary.Table + " ID must be positive")
	}

	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		*summary = model.DeletionSummary{Table: summary.Table, ID: summary.ID}
		return fn(ctx)
	})
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			s.cfg.Log.Warn("Cascading delete of missing record", "table", summary.Table, "id", summary.ID)
		} else {
			s.cfg.Log.Error("Cascading delete rolled back", "table", summary.Table, "id", summary.ID, "error", err)
		}
		return err
	}

	s.cfg.Log.Info("Record deleted",
		"table", summary.Table,
		"id", summary.ID,
		"cart_entries", summary.CartEntries,
		"borrowings", summary.Borrowings,
		"author_links", summary.AuthorLinks,
		"category_links", summary.CategoryLinks,
		"copies_restored", summary.CopiesRestored,
	)
	s.recorder.Record(ctx, summary.Table, model.AuditActionDelete, summary.ID, summary)
	return nil
}

func notFound(err, sentinel error, resource string, id int64) error {
	if errors.Is(err, sentinel) {
		return apperrors.NotFoundWithID(resource, id)
	}
	return apperrors.Internal("Failed to load "+resource, err)
}
