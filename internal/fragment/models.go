package fragment

import (
	"time"

	"github.com/google/uuid"
)

// Metadata describes a stored fragment without its data payload.
type Metadata struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     string    `json:"owner_id"`
	ContentType string    `json:"type"`
	SizeBytes   int64     `json:"size"`
	CreatedAt   time.Time `json:"created"`
	UpdatedAt   time.Time `json:"updated"`
}
