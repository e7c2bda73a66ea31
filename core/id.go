package core

import "github.com/google/uuid"

// NewID generates a new unique identifier for traces, steps and generated
// problems.
func NewID() string { return uuid.NewString() }
