package testutil

import (
	"fmt"
	"sync/atomic"
)

var seq atomic.Int64

func unique(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, seq.Add(1))
}

func Author() map[string]any {
	return map[string]any{"first_name": "Test", "last_name": unique("Author")}
}

func Category() map[string]any {
	return map[string]any{"name": unique("category")}
}

func Member() map[string]any {
	return map[string]any{
		"first_name": "Test",
		"last_name":  unique("Member"),
		"email":      unique("member") + "@example.com",
	}
}

func Librarian() map[string]any {
	return map[string]any{
		"first_name": "Test",
		"last_name":  unique("Librarian"),
		"email":      unique("librarian") + "@example.com",
	}
}

// BookBuilder assembles a create-book request body.
type BookBuilder struct {
	body map[string]any
}

func NewBookBuilder(authorIDs ...int64) *BookBuilder {
	return &BookBuilder{body: map[string]any{
		"title":            unique("Test Book "),
		"publication_year": 2001,
		"initial_copies":   1,
		"author_ids":       authorIDs,
	}}
}

func (b *BookBuilder) WithCopies(n int) *BookBuilder {
	b.body["initial_copies"] = n
	return b
}

func (b *BookBuilder) WithCategories(ids ...int64) *BookBuilder {
	b.body["category_ids"] = ids
	return b
}

func (b *BookBuilder) WithISBN(isbn string) *BookBuilder {
	b.body["isbn"] = isbn
	return b
}

func (b *BookBuilder) Build() map[string]any {
	return b.body
}
