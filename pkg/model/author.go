package model

import (
	"strings"
	"time"
)

type Author struct {
	ID        int64     `json:"id" bson:"_id"`
	FirstName string    `json:"first_name" bson:"first_name" validate:"required,max=100"`
	LastName  string    `json:"last_name" bson:"last_name" validate:"required,max=100"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

func (a Author) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

type Category struct {
	ID        int64     `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name" validate:"required,max=100"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// DisplayName is the name with its first letter upper-cased.
func (c Category) DisplayName() string {
	if c.Name == "" {
		return ""
	}
	return strings.ToUpper(c.Name[:1]) + c.Name[1:]
}

// Link is one row of a book's author or category link set.
type Link struct {
	BookID   int64 `json:"book_id" bson:"book_id"`
	TargetID int64 `json:"target_id" bson:"target_id"`
}
