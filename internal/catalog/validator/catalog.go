package validator

import (
	"shelfkeeper/pkg/logger"
	"shelfkeeper/pkg/model"
	"shelfkeeper/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type CatalogValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewCatalogValidator(log *logger.Logger) *CatalogValidator {
	return &CatalogValidator{
		validate: validation.New(),
		logger:   log,
	}
}

func (v *CatalogValidator) ValidateBook(input *model.BookInput) error {
	return validation.Struct(v.validate, input)
}

func (v *CatalogValidator) ValidateBookUpdate(update *model.BookUpdate) error {
	return validation.Struct(v.validate, update)
}

func (v *CatalogValidator) ValidateAuthor(author *model.Author) error {
	return validation.Struct(v.validate, author)
}

func (v *CatalogValidator) ValidateCategory(category *model.Category) error {
	return validation.Struct(v.validate, category)
}

func (v *CatalogValidator) ValidateMember(member *model.Member) error {
	return validation.Struct(v.validate, member)
}

func (v *CatalogValidator) ValidateLibrarian(librarian *model.Librarian) error {
	return validation.Struct(v.validate, librarian)
}
