package model

import "time"

type Member struct {
	ID        int64     `json:"id" bson:"_id"`
	FirstName string    `json:"first_name" bson:"first_name" validate:"required,max=100"`
	LastName  string    `json:"last_name" bson:"last_name" validate:"required,max=100"`
	Email     string    `json:"email" bson:"email" validate:"required,email,max=255"`
	Phone     string    `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type Librarian struct {
	ID        int64     `json:"id" bson:"_id"`
	FirstName string    `json:"first_name" bson:"first_name" validate:"required,max=100"`
	LastName  string    `json:"last_name" bson:"last_name" validate:"required,max=100"`
	Email     string    `json:"email" bson:"email" validate:"required,email,max=255"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
