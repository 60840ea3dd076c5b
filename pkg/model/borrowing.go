package model

import "time"

const (
	BorrowingStatusBorrowed = "borrowed"
	BorrowingStatusReturned = "returned"
)

const (
	BorrowingStateActive   = "active"
	BorrowingStateOverdue  = "overdue"
	BorrowingStateReturned = "returned"
)

// Borrowing is one loan of one copy of a book. Only borrowed and returned
// are stored; overdue is derived when the loan is read.
type Borrowing struct {
	ID          int64      `json:"id" bson:"_id"`
	MemberID    int64      `json:"member_id" bson:"member_id"`
	BookID      int64      `json:"book_id" bson:"book_id"`
	BorrowedAt  time.Time  `json:"borrowed_at" bson:"borrowed_at"`
	DueDate     time.Time  `json:"due_date" bson:"due_date"`
	ReturnedAt  *time.Time `json:"returned_at,omitempty" bson:"returned_at,omitempty"`
	Status      string     `json:"status" bson:"status"`
	LibrarianID *int64     `json:"librarian_id,omitempty" bson:"librarian_id,omitempty"`
	// Active mirrors ReturnedAt == nil; the unique partial index on
	// (member_id, book_id) filters on it.
	Active bool `json:"-" bson:"active"`
}

func (b *Borrowing) IsReturned() bool {
	return b.ReturnedAt != nil
}

// StateAt derives the read-time state of the loan.
func (b *Borrowing) StateAt(now time.Time) string {
	if b.ReturnedAt != nil {
		return BorrowingStateReturned
	}
	if now.After(b.DueDate) {
		return BorrowingStateOverdue
	}
	return BorrowingStateActive
}

type BorrowingView struct {
	Borrowing
	State string `json:"state"`
}

func NewBorrowingView(b *Borrowing, now time.Time) *BorrowingView {
	return &BorrowingView{Borrowing: *b, State: b.StateAt(now)}
}

type BorrowRequest struct {
	MemberID int64 `json:"member_id" validate:"required,gt=0"`
	BookID   int64 `json:"book_id" validate:"required,gt=0"`
}

type ReturnRequest struct {
	LibrarianID *int64 `json:"librarian_id,omitempty" validate:"omitempty,gt=0"`
}
