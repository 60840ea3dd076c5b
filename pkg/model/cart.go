package model

import (
	"fmt"
	"time"
)

type CartEntry struct {
	ID       string    `json:"-" bson:"_id"`
	MemberID int64     `json:"member_id" bson:"member_id"`
	BookID   int64     `json:"book_id" bson:"book_id"`
	AddedAt  time.Time `json:"added_at" bson:"added_at"`
}

func CartEntryID(memberID, bookID int64) string {
	return fmt.Sprintf("%d:%d", memberID, bookID)
}

type CartRequest struct {
	BookID int64 `json:"book_id" validate:"required,gt=0"`
}
