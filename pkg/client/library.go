package client

import (
	"fmt"
	"net/url"
	"time"
)

// LibraryClient calls the shelfkeeper HTTP API.
type LibraryClient struct {
	httpClient *HttpClient
}

func NewLibraryClient(baseUrl, actor string) *LibraryClient {
	httpClient := NewHttpClient(baseUrl)
	httpClient.Actor = actor
	return &LibraryClient{httpClient: httpClient}
}

func (c *LibraryClient) WaitForHealthy(maxWait time.Duration) error {
	return c.httpClient.WaitForHealthy(maxWait)
}

func (c *LibraryClient) CreateAuthor(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/authors", body)
}

func (c *LibraryClient) CreateCategory(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/categories", body)
}

func (c *LibraryClient) CreateMember(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/members", body)
}

func (c *LibraryClient) CreateLibrarian(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/librarians", body)
}

func (c *LibraryClient) CreateBook(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/books", body)
}

func (c *LibraryClient) GetBook(id int64) (*Response, error) {
	return c.httpClient.GET(bookPath(id))
}

func (c *LibraryClient) UpdateBook(id int64, body any) (*Response, error) {
	return c.httpClient.PUT(bookPath(id), body)
}

func (c *LibraryClient) AddCopies(id int64, delta int) (*Response, error) {
	return c.httpClient.POST(bookPath(id)+"/copies", map[string]int{"delta": delta})
}

func (c *LibraryClient) Inventory(id int64) (*Response, error) {
	return c.httpClient.GET(bookPath(id) + "/inventory")
}

func (c *LibraryClient) Borrow(memberID, bookID int64) (*Response, error) {
	return c.httpClient.POST("/api/v1/borrowings", map[string]int64{
		"member_id": memberID,
		"book_id":   bookID,
	})
}

// BorrowIdempotent sends the borrow with an Idempotency-Key so a retry
// returns the first outcome instead of a second loan attempt.
func (c *LibraryClient) BorrowIdempotent(memberID, bookID int64, key string) (*Response, error) {
	return c.httpClient.POSTWithHeaders("/api/v1/borrowings", map[string]int64{
		"member_id": memberID,
		"book_id":   bookID,
	}, map[string]string{"Idempotency-Key": key})
}

func (c *LibraryClient) GetBorrowing(id int64) (*Response, error) {
	return c.httpClient.GET(fmt.Sprintf("/api/v1/borrowings/%d", id))
}

// Return closes a loan. librarianID may be nil.
func (c *LibraryClient) Return(id int64, librarianID *int64) (*Response, error) {
	path := fmt.Sprintf("/api/v1/borrowings/%d/return", id)
	if librarianID == nil {
		return c.httpClient.POST(path, nil)
	}
	return c.httpClient.POST(path, map[string]int64{"librarian_id": *librarianID})
}

func (c *LibraryClient) MemberBorrowings(memberID int64, activeOnly bool) (*Response, error) {
	path := fmt.Sprintf("/api/v1/members/%d/borrowings", memberID)
	if activeOnly {
		q := url.Values{}
		q.Set("active", "true")
		path += "?" + q.Encode()
	}
	return c.httpClient.GET(path)
}

func (c *LibraryClient) AddToCart(memberID, bookID int64) (*Response, error) {
	return c.httpClient.POST(fmt.Sprintf("/api/v1/members/%d/cart", memberID), map[string]int64{"book_id": bookID})
}

func (c *LibraryClient) Cart(memberID int64) (*Response, error) {
	return c.httpClient.GET(fmt.Sprintf("/api/v1/members/%d/cart", memberID))
}

func (c *LibraryClient) RemoveFromCart(memberID, bookID int64) (*Response, error) {
	return c.httpClient.DELETE(fmt.Sprintf("/api/v1/members/%d/cart/%d", memberID, bookID))
}

func (c *LibraryClient) DeleteBook(id int64) (*Response, error) {
	return c.httpClient.DELETE(bookPath(id))
}

func (c *LibraryClient) DeleteAuthor(id int64) (*Response, error) {
	return c.httpClient.DELETE(fmt.Sprintf("/api/v1/authors/%d", id))
}

func (c *LibraryClient) DeleteCategory(id int64) (*Response, error) {
	return c.httpClient.DELETE(fmt.Sprintf("/api/v1/categories/%d", id))
}

func (c *LibraryClient) DeleteMember(id int64) (*Response, error) {
	return c.httpClient.DELETE(fmt.Sprintf("/api/v1/members/%d", id))
}

func bookPath(id int64) string {
	return fmt.Sprintf("/api/v1/books/%d", id)
}
