package model

// DeletionSummary counts the rows a cascading delete removed along with its
// root record.
type DeletionSummary struct {
	Table          string `json:"table"`
	ID             int64  `json:"id"`
	CartEntries    int64  `json:"cart_entries,omitempty"`
	Borrowings     int64  `json:"borrowings,omitempty"`
	AuthorLinks    int64  `json:"author_links,omitempty"`
	CategoryLinks  int64  `json:"category_links,omitempty"`
	CopiesRestored int64  `json:"copies_restored,omitempty"`
}
