// Package models defines the core data structures for users and todos.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccessAuth is the purpose tag carried by session tokens.
const AccessAuth = "auth"

// TokenEntry is a single issued session token belonging to a user.
// A user holds one entry per active session; logout removes the entry.
type TokenEntry struct {
	// Access is the purpose tag the token was issued for.
	Access string `bson:"access" json:"access"`
	// Token is the signed token string.
	Token string `bson:"token" json:"token"`
}

// User represents an application user with credentials and active sessions.
type User struct {
	// ID is the unique identifier for the user.
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	// Email is the unique, lowercased login email.
	Email string `bson:"email" json:"email"`
	// Password is the bcrypt hash of the user's password.
	Password string `bson:"password" json:"-"`
	// Tokens is the list of currently valid session tokens.
	Tokens []TokenEntry `bson:"tokens" json:"-"`
}

// PublicUser is the subset of a User record safe to return to clients.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Public returns the client-facing view of the user, excluding the
// password hash and token list.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID.Hex(), Email: u.Email}
}

// Todo represents a single todo item owned by a user.
type Todo struct {
	// ID is the unique identifier for the todo.
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	// Text is the todo description.
	Text string `bson:"text" json:"text"`
	// Completed reports whether the todo is done.
	Completed bool `bson:"completed" json:"completed"`
	// CompletedAt is the unix-millisecond completion timestamp.
	// It is nil whenever Completed is false.
	CompletedAt *int64 `bson:"completedAt" json:"completedAt"`
	// Creator is the id of the owning user.
	Creator primitive.ObjectID `bson:"creator" json:"creator"`
}

// TodoPatch carries the only fields a client is allowed to change on a
// todo. Decoding a request body into this struct drops every other
// supplied field by construction.
type TodoPatch struct {
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}

// TodoUpdate is the resolved set of field values written by an update.
// Completed and CompletedAt are always written; Text only when non-nil.
type TodoUpdate struct {
	Text        *string
	Completed   bool
	CompletedAt *int64
}
