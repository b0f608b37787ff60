package store

import (
	"strings"
)

// Key identifies a stored resource.
type Key struct {
	// Prefix namespaces all keys of one store (e.g., "bytecodes")
	Prefix string

	// Kind is the resource kind (e.g., "bytecodes")
	Kind string

	// ID is the content hash
	ID string
}

// String generates the storage key.
// Format: prefix:kind:id
//
// Example:
//
//	truffle:bytecodes:0x5f2b...
func (k Key) String() string {
	parts := make([]string, 0, 3)
	if p := strings.Trim(k.Prefix, ":"); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, k.Kind, k.ID)
	return strings.Join(parts, ":")
}
