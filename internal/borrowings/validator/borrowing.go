package validator

import (
	"shelfkeeper/pkg/logger"
	"shelfkeeper/pkg/model"
	"shelfkeeper/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type BorrowingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBorrowingValidator(log *logger.Logger) *BorrowingValidator {
	return &BorrowingValidator{
		validate: validation.New(),
		logger:   log,
	}
}

func (v *BorrowingValidator) ValidateBorrow(req *model.BorrowRequest) error {
	return validation.Struct(v.validate, req)
}

func (v *BorrowingValidator) ValidateReturn(req *model.ReturnRequest) error {
	return validation.Struct(v.validate, req)
}
