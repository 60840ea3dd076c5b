package model

import "time"

type Book struct {
	ID                int64     `json:"id" bson:"_id"`
	Title             string    `json:"title" bson:"title"`
	ISBN              string    `json:"isbn,omitempty" bson:"isbn,omitempty"`
	PublicationYear   int       `json:"publication_year" bson:"publication_year"`
	CopiesAvailable   int       `json:"copies_available" bson:"copies_available"`
	CopiesProvisioned int       `json:"copies_provisioned" bson:"copies_provisioned"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" bson:"updated_at"`
}

// BookFields are the caller-editable metadata of a book.
type BookFields struct {
	Title           string `json:"title" validate:"required,max=255"`
	ISBN            string `json:"isbn,omitempty" validate:"omitempty,isbn"`
	PublicationYear int    `json:"publication_year" validate:"gte=0,lte=2100"`
}

type BookInput struct {
	BookFields
	InitialCopies int     `json:"initial_copies" validate:"gte=0,lte=100000"`
	AuthorIDs     []int64 `json:"author_ids" validate:"required,min=1,dive,gt=0"`
	CategoryIDs   []int64 `json:"category_ids,omitempty" validate:"omitempty,dive,gt=0"`
}

type BookUpdate struct {
	BookFields
	AuthorIDs   []int64 `json:"author_ids" validate:"required,min=1,dive,gt=0"`
	CategoryIDs []int64 `json:"category_ids" validate:"omitempty,dive,gt=0"`
}

// BookDetails is a book together with the contents of its link sets.
type BookDetails struct {
	Book
	AuthorIDs   []int64 `json:"author_ids"`
	CategoryIDs []int64 `json:"category_ids"`
}

// InventoryReport compares a book's counters against its outstanding loans.
type InventoryReport struct {
	BookID            int64 `json:"book_id"`
	CopiesProvisioned int   `json:"copies_provisioned"`
	CopiesAvailable   int   `json:"copies_available"`
	ActiveBorrowings  int64 `json:"active_borrowings"`
	Consistent        bool  `json:"consistent"`
}

type ProvisionRequest struct {
	Delta int `json:"delta" validate:"required,ne=0"`
}
