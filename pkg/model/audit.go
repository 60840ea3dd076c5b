package model

import "time"

const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
	AuditActionBorrow = "borrow"
	AuditActionReturn = "return"
)

type AuditEntry struct {
	ID        string    `json:"id" bson:"_id"`
	Table     string    `json:"table" bson:"table"`
	Action    string    `json:"action" bson:"action"`
	RecordID  int64     `json:"record_id" bson:"record_id"`
	Actor     string    `json:"actor" bson:"actor"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Payload   any       `json:"payload,omitempty" bson:"payload,omitempty"`
}

const (
	AuditTableBooks      = "Books"
	AuditTableAuthors    = "Authors"
	AuditTableCategories = "Categories"
	AuditTableMembers    = "Members"
	AuditTableLibrarians = "Librarians"
	AuditTableBorrowings = "Borrowings"
	AuditTableCarts      = "Carts"
)
