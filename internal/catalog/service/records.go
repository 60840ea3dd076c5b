package service

import (
	"context"
	catalogerrors "shelfkeeper/internal/catalog/errors"
	apperrors "shelfkeeper/pkg/errors"
	"shelfkeeper/pkg/model"
	"shelfkeeper/pkg/sanitizer"
	"time"
)

func (s *catalogService) CreateAuthor(ctx context.Context, author *model.Author) error {
	if author == nil {
		return apperrors.InvalidInput("Author cannot be empty")
	}
	sanitizePerson(&author.FirstName, &author.LastName, nil)
	if err := s.validate("Author", s.validator.ValidateAuthor(author)); err != nil {
		return err
	}
	author.CreatedAt = time.Now().UTC()

	return createRecord(ctx, s, s.repos.Authors, author,
		func(id int64) { author.ID = id },
		SequenceAuthors, model.AuditTableAuthors, "Author")
}

func (s *catalogService) GetAuthor(ctx context.Context, id int64) (*model.Author, error) {
	return getRecord(ctx, s.repos.Authors, id, catalogerrors.ErrAuthorNotFound, "Author")
}

func (s *catalogService) CreateCategory(ctx context.Context, category *model.Category) error {
	if category == nil {
		return apperrors.InvalidInput("Category cannot be empty")
	}
	category.Name = sanitizer.SanitizeName(category.Name)
	if err := s.validate("Category", s.validator.ValidateCategory(category)); err != nil {
		return err
	}
	category.CreatedAt = time.Now().UTC()

	return createRecord(ctx, s, s.repos.Categories, category,
		func(id int64) { category.ID = id },
		SequenceCategories, model.AuditTableCategories, "Category")
}

func (s *catalogService) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	return getRecord(ctx, s.repos.Categories, id, catalogerrors.ErrCategoryNotFound, "Category")
}

func (s *catalogService) CreateMember(ctx context.Context, member *model.Member) error {
	if member == nil {
		return apperrors.InvalidInput("Member cannot be empty")
	}
	sanitizePerson(&member.FirstName, &member.LastName, &member.Email)
	member.Phone = sanitizer.SanitizePhone(member.Phone)
	if err := s.validate("Member", s.validator.ValidateMember(member)); err != nil {
		return err
	}
	member.CreatedAt = time.Now().UTC()

	return createRecord(ctx, s, s.repos.Members, member,
		func(id int64) { member.ID = id },
		SequenceMembers, model.AuditTableMembers, "Member")
}

func (s *catalogService) GetMember(ctx context.Context, id int64) (*model.Member, error) {
	return getRecord(ctx, s.repos.Members, id, catalogerrors.ErrMemberNotFound, "Member")
}

func (s *catalogService) CreateLibrarian(ctx context.Context, librarian *model.Librarian) error {
	if librarian == nil {
		return apperrors.InvalidInput("Librarian cannot be empty")
	}
	sanitizePerson(&librarian.FirstName, &librarian.LastName, &librarian.Email)
	if err := s.validate("Librarian", s.validator.ValidateLibrarian(librarian)); err != nil {
		return err
	}
	librarian.CreatedAt = time.Now().UTC()

	return createRecord(ctx, s, s.repos.Librarians, librarian,
		func(id int64) { librarian.ID = id },
		SequenceLibrarians, model.AuditTableLibrarians, "Librarian")
}

func (s *catalogService) GetLibrarian(ctx context.Context, id int64) (*model.Librarian, error) {
	return getRecord(ctx, s.repos.Librarians, id, catalogerrors.ErrLibrarianNotFound, "Librarian")
}
