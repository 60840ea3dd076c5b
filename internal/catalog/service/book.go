package service

import (
	"context"
	"errors"
	catalogerrors "shelfkeeper/internal/catalog/errors"
	apperrors "shelfkeeper/pkg/errors"
	"shelfkeeper/pkg/model"
	"shelfkeeper/pkg/sanitizer"
)

func (s *catalogService) CreateBook(ctx context.Context, input *model.BookInput) (*model.BookDetails, error) {
	if input == nil {
		return nil, apperrors.InvalidInput("Book input cannot be empty")
	}

	s.sanitizeFields(&input.BookFields)
	input.AuthorIDs = sanitizer.SanitizeIDs(input.AuthorIDs)
	input.CategoryIDs = sanitizer.SanitizeIDs(input.CategoryIDs)
	if err := s.validate("Book", s.validator.ValidateBook(input)); err != nil {
		return nil, err
	}

	id, err := s.nextID(ctx, SequenceBooks)
	if err != nil {
		return nil, err
	}

	var details *model.BookDetails
	err = s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkReferences(ctx, input.AuthorIDs, input.CategoryIDs); err != nil {
			return err
		}

		book := &model.Book{
			ID:              id,
			Title:           input.Title,
			ISBN:            input.ISBN,
			PublicationYear: input.PublicationYear,
		}
		if err := s.repos.Books.Create(ctx, book); err != nil {
			return s.mapBookError(id, err, "Failed to create book")
		}

		if input.InitialCopies > 0 {
			provisioned, err := s.inventory.Provision(ctx, id, input.InitialCopies)
			if err != nil {
				return err
			}
			book = provisioned
		}

		if err := s.replaceLinks(ctx, id, input.AuthorIDs, input.CategoryIDs); err != nil {
			return err
		}

		details = &model.BookDetails{Book: *book, AuthorIDs: input.AuthorIDs, CategoryIDs: input.CategoryIDs}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create book", "id", id, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Book created successfully",
		"id", id,
		"title", details.Title,
		"copies", details.CopiesProvisioned,
		"authors", len(details.AuthorIDs),
		"categories", len(details.CategoryIDs),
	)
	s.recorder.Record(ctx, model.AuditTableBooks, model.AuditActionCreate, id, details)
	return details, nil
}

func (s *catalogService) UpdateBook(ctx context.Context, id int64, update *model.BookUpdate) (*model.BookDetails, error) {
	if id <= 0 {
		return nil, apperrors.InvalidInput("Book ID must be positive")
	}
	if update == nil {
		return nil, apperrors.InvalidInput("Book update cannot be empty")
	}

	s.sanitizeFields(&update.BookFields)
	update.AuthorIDs = sanitizer.SanitizeIDs(update.AuthorIDs)
	update.CategoryIDs = sanitizer.SanitizeIDs(update.CategoryIDs)
	if err := s.validate("Book", s.validator.ValidateBookUpdate(update)); err != nil {
		return nil, err
	}

	var details *model.BookDetails
	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repos.Books.FindByID(ctx, id); err != nil {
			return s.mapBookError(id, err, "Failed to retrieve book")
		}
		if err := s.checkReferences(ctx, update.AuthorIDs, update.CategoryIDs); err != nil {
			return err
		}

		book, err := s.repos.Books.UpdateFields(ctx, id, &update.BookFields)
		if err != nil {
			return s.mapBookError(id, err, "Failed to update book")
		}
		if err := s.replaceLinks(ctx, id, update.AuthorIDs, update.CategoryIDs); err != nil {
			return err
		}

		details = &model.BookDetails{Book: *book, AuthorIDs: update.AuthorIDs, CategoryIDs: update.CategoryIDs}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update book", "id", id, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Book updated successfully", "id", id)
	s.recorder.Record(ctx, model.AuditTableBooks, model.AuditActionUpdate, id, details)
	return details, nil
}

func (s *catalogService) GetBook(ctx context.Context, id int64) (*model.BookDetails, error) {
	if id <= 0 {
		return nil, apperrors.InvalidInput("Book ID must be positive")
	}

	book, err := s.repos.Books.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapBookError(id, err, "Failed to retrieve book")
	}

	authors, err := s.repos.BookAuthors.ListByBook(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("Failed to retrieve book authors", err)
	}
	categories, err := s.repos.BookCategories.ListByBook(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("Failed to retrieve book categories", err)
	}

	return &model.BookDetails{Book: *book, AuthorIDs: authors, CategoryIDs: categories}, nil
}

// checkReferences fails with INVALID_REFERENCE listing every unknown id. The
// referenced records are touched so that deleting one of them concurrently
// conflicts with the unit writing the links.
func (s *catalogService) checkReferences(ctx context.Context, authorIDs, categoryIDs []int64) error {
	missing, err := s.repos.Authors.Touch(ctx, authorIDs)
	if err != nil {
		return apperrors.Internal("Failed to check authors", err)
	}
	if len(missing) > 0 {
		s.cfg.Log.Warn("Unknown authors referenced", "missing_ids", missing)
		return apperrors.InvalidReference("Author", missing)
	}

	missing, err = s.repos.Categories.Touch(ctx, categoryIDs)
	if err != nil {
		return apperrors.Internal("Failed to check categories", err)
	}
	if len(missing) > 0 {
		s.cfg.Log.Warn("Unknown categories referenced", "missing_ids", missing)
		return apperrors.InvalidReference("Category", missing)
	}
	return nil
}

func (s *catalogService) replaceLinks(ctx context.Context, bookID int64, authorIDs, categoryIDs []int64) error {
	if err := s.repos.BookAuthors.Replace(ctx, bookID, authorIDs); err != nil {
		return apperrors.Internal("Failed to write book authors", err)
	}
	if err := s.repos.BookCategories.Replace(ctx, bookID, categoryIDs); err != nil {
		return apperrors.Internal("Failed to write book categories", err)
	}
	return nil
}

func (s *catalogService) sanitizeFields(fields *model.BookFields) {
	fields.Title = sanitizer.SanitizeTitle(fields.Title)
	fields.ISBN = sanitizer.SanitizeISBN(fields.ISBN)
}

func (s *catalogService) mapBookError(id int64, err error, msg string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, catalogerrors.ErrBookNotFound):
		return apperrors.NotFoundWithID("Book", id)
	case errors.Is(err, catalogerrors.ErrDuplicateISBN):
		return apperrors.Conflict("A book with this ISBN already exists")
	default:
		return apperrors.Internal(msg, err)
	}
}
