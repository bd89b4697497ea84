package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents an application user.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SafeUser removes sensitive fields for response payloads.
func (u User) SafeUser() User {
	u.PasswordHash = ""
	return u
}

// OwnerID is the opaque identifier fragments are scoped to. It is derived
// from the email rather than the row id so that the same principal always
// maps to the same owner, regardless of how the account record came to be.
func (u User) OwnerID() string {
	return HashOwnerID(u.Email)
}

// HashOwnerID derives the opaque owner identifier for an email address.
func HashOwnerID(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}
