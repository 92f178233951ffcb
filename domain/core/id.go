package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Falls back to v4 if v7 generation fails
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	ModelID    ID
	ColumnName ID
)

// String conversions for domain IDs
func (id ModelID) String() string    { return ID(id).String() }
func (id ColumnName) String() string { return ID(id).String() }

// NewModelID creates a time-ordered identifier for a trained model
func NewModelID() ModelID {
	return ModelID(NewID())
}

// ParseModelID parses a string into ModelID
func ParseModelID(s string) (ModelID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("model ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("model ID %q is not a valid UUID: %w", s, err)
	}
	return ModelID(s), nil
}
