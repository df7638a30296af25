// Package schemas defines the data structures
package schemas

import (
	"time"

	"github.com/google/uuid"
)

// User represents the data model for a user in the system.
type User struct {
	ID                *uuid.UUID `json:"id"`                 // Unique identifier for the user.
	Username          string     `json:"username"`           // Username of the user.
	Email             string     `json:"email"`              // Email address of the user.
	Password          string     `json:"password"`           // Password hash of the user.
	VerificationCode  string     `json:"verification_code"`  // Six-digit code pending verification, cleared afterwards.
	CodeExpiresAt     *time.Time `json:"code_expires_at"`    // Timestamp when the verification code expires.
	VerifiedAt        *time.Time `json:"verified_at"`        // Timestamp when the user account was verified.
	AcceptingMessages bool       `json:"accepting_messages"` // Whether the user currently accepts anonymous messages.
	CreatedAt         *time.Time `json:"created_at"`         // Timestamp when the user was created.
}

// Message represents an anonymous message stored against a user.
type Message struct {
	ID        *uuid.UUID `json:"id"`         // Unique identifier for the message.
	OwnerID   *uuid.UUID `json:"owner_id"`   // Identifier of the user who received the message.
	Content   string     `json:"content"`    // Message body, 10-300 characters.
	CreatedAt *time.Time `json:"created_at"` // Timestamp when the message was persisted.
}
