package store

import "github.com/google/uuid"

// IDGenerator produces run IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7 generates time-ordered UUIDv7 run IDs.
type UUIDv7 struct{}

// Generate returns a new UUIDv7 string.
func (UUIDv7) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
