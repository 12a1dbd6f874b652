package model

import "time"

// Account is owned by the identity collaborator. The engine only needs the
// id for weak references and the operator flag for transition guards.
type Account struct {
	ID       string `json:"id,omitempty" bson:"_id,omitempty"`
	Name     string `json:"name" bson:"name" validate:"required,min=1,max=150"`
	Email    string `json:"email" bson:"email" validate:"required,email"`
	Operator bool   `json:"operator" bson:"operator"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
