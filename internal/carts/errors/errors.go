package errors

import "errors"

var (
	ErrNotFound = errors.New("cart entry not found")
)
