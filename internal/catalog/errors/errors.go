package errors

import "errors"

var (
	ErrBookNotFound = errors.New("book not found")

	ErrAuthorNotFound = errors.New("author not found")

	ErrCategoryNotFound = errors.New("category not found")

	ErrMemberNotFound = errors.New("member not found")

	ErrLibrarianNotFound = errors.New("librarian not found")

	ErrDuplicateISBN = errors.New("a book with this ISBN already exists")
)
