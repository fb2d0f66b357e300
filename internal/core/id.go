package core

import (
	"github.com/google/uuid"
)

// NewThreadID generates an opaque debate thread identifier.
func NewThreadID() string {
	return uuid.New().String()
}

// NewRecordID generates an identifier for stored sub-records such as
// argument units.
func NewRecordID() string {
	return uuid.New().String()
}
