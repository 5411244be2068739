package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateUUIDWithSuffix generates a UUID with a given module name as a prefix.
// This is useful for creating unique identifiers with context-specific prefixes.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	return fmt.Sprintf("%s_%s", module, id.String())
}

// NormalizeEmail returns the identity key used for a recipient address.
// Two addresses that differ only in surrounding whitespace or letter case
// refer to the same recipient.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
