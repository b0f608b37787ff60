package compile

import (
	"encoding/json"
	"fmt"
)

// ResourceBytecodes is the resource kind requested from the loader.
const ResourceBytecodes = "bytecodes"

// Keys set on a contract's db record.
const (
	KeyCreateBytecode = "createBytecode"
	KeyCallBytecode   = "callBytecode"
)

// LinkReference marks an unlinked library placeholder inside bytecode.
type LinkReference struct {
	Offsets []int  `json:"offsets"`
	Length  int    `json:"length"`
	Name    string `json:"name,omitempty"`
}

// BytecodeInput is a bytecode as submitted to the loader.
//
// A leaf that is not a JSON object is kept verbatim in Raw and passed to the
// loader unchanged; Malformed reports it.
type BytecodeInput struct {
	Bytes          string          `json:"bytes"`
	LinkReferences []LinkReference `json:"linkReferences"`

	// Extra holds the object's keys other than bytes and linkReferences
	Extra map[string]json.RawMessage `json:"-"`

	// Raw is the original value of a non-object leaf
	Raw json.RawMessage `json:"-"`
}

// Malformed reports whether b was decoded from a non-object value.
func (b *BytecodeInput) Malformed() bool {
	return b != nil && b.Raw != nil
}

// IDObject references a stored resource by its identifier.
type IDObject struct {
	ID string `json:"id"`
}

// Contract is a compiled contract.
// Bytecode and DeployedBytecode may be nil; they are passed to the loader as-is.
// Every other key of the contract object (abi, ast, sourceMap, ...) is kept
// in Extra and written back unchanged.
type Contract struct {
	ContractName string `json:"contractName,omitempty"`

	Bytecode         *BytecodeInput `json:"bytecode"`
	DeployedBytecode *BytecodeInput `json:"deployedBytecode"`

	DB DB `json:"db,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Compilation is a set of contracts produced by one compiler run.
// Compiler and the keys kept in Extra (sourceIndexes, ...) are opaque.
type Compilation struct {
	Compiler  json.RawMessage `json:"compiler,omitempty"`
	Contracts []Contract      `json:"contracts"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Field names one of the two bytecode fields of a contract.
type Field int

const (
	// FieldBytecode is Contract.Bytecode.
	FieldBytecode Field = iota

	// FieldDeployedBytecode is Contract.DeployedBytecode.
	FieldDeployedBytecode
)

// bytecodeFields is the order in which a contract's fields enter the batch.
var bytecodeFields = [...]Field{FieldBytecode, FieldDeployedBytecode}

// String returns the JSON field name.
func (f Field) String() string {
	switch f {
	case FieldBytecode:
		return "bytecode"
	case FieldDeployedBytecode:
		return "deployedBytecode"
	default:
		return fmt.Sprintf("Field(%d)", int(f))
	}
}

// DBKey returns the db record key that receives the field's result.
func (f Field) DBKey() string {
	if f == FieldBytecode {
		return KeyCreateBytecode
	}
	return KeyCallBytecode
}

// input returns the field's value on c.
func (f Field) input(c *Contract) *BytecodeInput {
	if f == FieldBytecode {
		return c.Bytecode
	}
	return c.DeployedBytecode
}

// Breadcrumb records where a batch entry came from.
type Breadcrumb struct {
	CompilationIndex int
	ContractIndex    int
	Field            Field
}
