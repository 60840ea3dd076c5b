package model

import (
	"fmt"
	"time"
)

// BorrowLock is a short-lived advisory lock on one (member, book) pair held
// while a borrow is in flight.
type BorrowLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func BorrowLockID(memberID, bookID int64) string {
	return fmt.Sprintf("borrow_lock_%d_%d", memberID, bookID)
}
