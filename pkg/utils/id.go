package utils

import "github.com/google/uuid"

// NewID returns a random identifier for new records.
func NewID() string { return uuid.NewString() }
