package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound                 = "NOT_FOUND"
	CodeValidation               = "VALIDATION_ERROR"
	CodeInvalidReference         = "INVALID_REFERENCE"
	CodeInsufficientInventory    = "INSUFFICIENT_INVENTORY"
	CodeDuplicateActiveBorrowing = "DUPLICATE_ACTIVE_BORROWING"
	CodeAlreadyReturned          = "ALREADY_RETURNED"
	CodeConflict                 = "CONFLICT"
	CodeInternal                 = "INTERNAL_ERROR"
	CodeTimeout                  = "TIMEOUT"
	CodeUnavailable              = "SERVICE_UNAVAILABLE"
	CodeInvalidInput             = "INVALID_INPUT"
	CodeRateLimited              = "RATE_LIMITED"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}

func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
	return data
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NotFoundWithID(resource string, id int64) *AppError {
	return NotFound(resource).WithDetails(map[string]any{
		"resource": resource,
		"id":       id,
	})
}

func Validation(message string, details map[string]any) *AppError {
	return New(CodeValidation, message, http.StatusUnprocessableEntity).WithDetails(details)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message, http.StatusBadRequest)
}

// InvalidReference reports ids in a link list that name no existing entity.
func InvalidReference(resource string, missing []int64) *AppError {
	return New(
		CodeInvalidReference,
		fmt.Sprintf("Unknown %s id(s) referenced", resource),
		http.StatusUnprocessableEntity,
	).WithDetails(map[string]any{
		"resource":    resource,
		"missing_ids": missing,
	})
}

func InsufficientInventory(bookID int64) *AppError {
	return New(
		CodeInsufficientInventory,
		"No copies of the book are available",
		http.StatusConflict,
	).WithDetails(map[string]any{"book_id": bookID})
}

func DuplicateActiveBorrowing(memberID, bookID int64) *AppError {
	return New(
		CodeDuplicateActiveBorrowing,
		"Member already holds an unreturned copy of this book",
		http.StatusConflict,
	).WithDetails(map[string]any{"member_id": memberID, "book_id": bookID})
}

func AlreadyReturned(borrowingID int64) *AppError {
	return New(
		CodeAlreadyReturned,
		"Borrowing has already been returned",
		http.StatusConflict,
	).WithDetails(map[string]any{"borrowing_id": borrowingID})
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

func Internal(message string, err error) *AppError {
	return Wrap(err, CodeInternal, message, http.StatusInternalServerError)
}

func Timeout(message string) *AppError {
	return New(CodeTimeout, message, http.StatusGatewayTimeout)
}

func Unavailable(service string) *AppError {
	return New(CodeUnavailable, fmt.Sprintf("%s is temporarily unavailable", service), http.StatusServiceUnavailable)
}

func RateLimited() *AppError {
	return New(CodeRateLimited, "Rate limit exceeded", http.StatusTooManyRequests)
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
