package errors

import "errors"

var (
	ErrNotFound = errors.New("book not found")

	ErrInsufficient = errors.New("adjustment would leave a negative number of copies")
)
