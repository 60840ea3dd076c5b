package repository

import (
	"shelfkeeper/pkg/config"
	"shelfkeeper/pkg/db/memory"
	"shelfkeeper/pkg/model"
)

const (
	BooksCollection          = "Books"
	AuthorsCollection        = "Authors"
	CategoriesCollection     = "Categories"
	MembersCollection        = "Members"
	LibrariansCollection     = "Librarians"
	BookAuthorsCollection    = "Book_authors"
	BookCategoriesCollection = "Book_categories"
)

// Repositories groups the entity store of one backend.
type Repositories struct {
	Books          BookRepository
	Authors        RecordRepository[model.Author]
	Categories     RecordRepository[model.Category]
	Members        RecordRepository[model.Member]
	Librarians     RecordRepository[model.Librarian]
	BookAuthors    LinkRepository
	BookCategories LinkRepository
}

func NewMongoRepositories(cfg *config.Config) *Repositories {
	return &Repositories{
		Books:          NewMongoBookRepository(cfg),
		Authors:        NewMongoRecordRepository[model.Author](cfg, AuthorsCollection, errAuthorNotFound),
		Categories:     NewMongoRecordRepository[model.Category](cfg, CategoriesCollection, errCategoryNotFound),
		Members:        NewMongoRecordRepository[model.Member](cfg, MembersCollection, errMemberNotFound),
		Librarians:     NewMongoRecordRepository[model.Librarian](cfg, LibrariansCollection, errLibrarianNotFound),
		BookAuthors:    NewMongoLinkRepository(cfg, BookAuthorsCollection, "author_id"),
		BookCategories: NewMongoLinkRepository(cfg, BookCategoriesCollection, "category_id"),
	}
}

func NewMemoryRepositories(db *memory.DB) *Repositories {
	return &Repositories{
		Books: NewMemoryBookRepository(db),
		Authors: NewMemoryRecordRepository(db, "authors", errAuthorNotFound,
			func(a *model.Author) int64 { return a.ID }),
		Categories: NewMemoryRecordRepository(db, "categories", errCategoryNotFound,
			func(c *model.Category) int64 { return c.ID }),
		Members: NewMemoryRecordRepository(db, "members", errMemberNotFound,
			func(m *model.Member) int64 { return m.ID }),
		Librarians: NewMemoryRecordRepository(db, "librarians", errLibrarianNotFound,
			func(l *model.Librarian) int64 { return l.ID }),
		BookAuthors:    NewMemoryLinkRepository(db, "book_authors"),
		BookCategories: NewMemoryLinkRepository(db, "book_categories"),
	}
}
