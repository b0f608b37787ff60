package store

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sternrassler/compile-bytecodes/pkg/compile"
	"golang.org/x/crypto/sha3"
)

// Entry is a stored bytecode.
type Entry struct {
	// ID is the content hash of Bytecode
	ID string `json:"id"`

	// Kind is the resource kind the entry was loaded as
	Kind string `json:"kind"`

	Bytecode *compile.BytecodeInput `json:"bytecode"`

	// StoredAt is when the entry was first written
	StoredAt time.Time `json:"stored_at"`
}

// ID returns the content identifier of a bytecode: the 0x-prefixed
// keccak256 hash of the JSON encoding of its bytes and link references.
// Missing and malformed bytecodes have no ID.
func ID(input *compile.BytecodeInput) (string, error) {
	if input == nil {
		return "", fmt.Errorf("%w: missing bytecode", ErrInvalidInput)
	}
	if input.Malformed() {
		return "", fmt.Errorf("%w: bytecode is not an object: %s", ErrInvalidInput, input.Raw)
	}

	// Normalize so nil and empty link references hash the same.
	content := struct {
		Bytes          string                  `json:"bytes"`
		LinkReferences []compile.LinkReference `json:"linkReferences"`
	}{
		Bytes:          input.Bytes,
		LinkReferences: input.LinkReferences,
	}
	if content.LinkReferences == nil {
		content.LinkReferences = []compile.LinkReference{}
	}

	data, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("marshal bytecode: %w", err)
	}

	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return "0x" + hex.EncodeToString(h.Sum(nil)), nil
}

// newEntries validates a request and builds its entries, in request order.
func newEntries(kind string, inputs []*compile.BytecodeInput) ([]Entry, error) {
	if kind != compile.ResourceBytecodes {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}

	now := time.Now()
	entries := make([]Entry, len(inputs))
	for i, input := range inputs {
		id, err := ID(input)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		entries[i] = Entry{
			ID:       id,
			Kind:     kind,
			Bytecode: input,
			StoredAt: now,
		}
	}

	return entries, nil
}

// idObjects returns the IDObject of each entry, in order.
func idObjects(entries []Entry) []compile.IDObject {
	out := make([]compile.IDObject, len(entries))
	for i, e := range entries {
		out[i] = compile.IDObject{ID: e.ID}
	}
	return out
}
