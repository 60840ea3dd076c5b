package errors

import "errors"

var (
	ErrNotFound = errors.New("borrowing not found")

	ErrAlreadyReturned = errors.New("borrowing already returned")

	ErrDuplicateActive = errors.New("member already holds an active borrowing of this book")

	ErrLockHeld = errors.New("a borrow of this book by this member is already in progress")
)
