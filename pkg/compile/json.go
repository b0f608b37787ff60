package compile

import (
	"bytes"
	"encoding/json"
)

var (
	bytecodeKeys    = []string{"bytes", "linkReferences"}
	contractKeys    = []string{"contractName", "bytecode", "deployedBytecode", "db"}
	compilationKeys = []string{"compiler", "contracts"}
)

// The *JSON types share the field layout without the JSON methods.
type (
	bytecodeJSON    BytecodeInput
	contractJSON    Contract
	compilationJSON Compilation
)

// UnmarshalJSON decodes an object leaf, keeping unknown keys in Extra. Any
// other value is kept in Raw.
func (b *BytecodeInput) UnmarshalJSON(data []byte) error {
	if !isObject(data) {
		*b = BytecodeInput{Raw: append(json.RawMessage(nil), data...)}
		return nil
	}

	var fields bytecodeJSON
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := splitObject(data, bytecodeKeys)
	if err != nil {
		return err
	}

	*b = BytecodeInput(fields)
	b.Extra = extra
	return nil
}

// MarshalJSON writes Raw for a malformed leaf, otherwise the object with
// its Extra keys.
func (b BytecodeInput) MarshalJSON() ([]byte, error) {
	if b.Raw != nil {
		return b.Raw, nil
	}
	return joinObject(bytecodeJSON(b), b.Extra)
}

// UnmarshalJSON decodes a contract, keeping unknown keys in Extra.
func (c *Contract) UnmarshalJSON(data []byte) error {
	var fields contractJSON
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := splitObject(data, contractKeys)
	if err != nil {
		return err
	}

	*c = Contract(fields)
	c.Extra = extra
	return nil
}

// MarshalJSON writes the contract with its Extra keys.
func (c Contract) MarshalJSON() ([]byte, error) {
	return joinObject(contractJSON(c), c.Extra)
}

// UnmarshalJSON decodes a compilation, keeping unknown keys in Extra.
func (c *Compilation) UnmarshalJSON(data []byte) error {
	var fields compilationJSON
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := splitObject(data, compilationKeys)
	if err != nil {
		return err
	}

	*c = Compilation(fields)
	c.Extra = extra
	return nil
}

// MarshalJSON writes the compilation with its Extra keys.
func (c Compilation) MarshalJSON() ([]byte, error) {
	return joinObject(compilationJSON(c), c.Extra)
}

func isObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

// splitObject returns the keys of the object data that are not in known,
// or nil when there are none.
func splitObject(data []byte, known []string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for _, key := range known {
		delete(fields, key)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fields, nil
}

// joinObject marshals v and adds the extra keys to the resulting object.
// Keys written by v take precedence.
func joinObject(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for key, value := range extra {
		if _, ok := fields[key]; !ok {
			fields[key] = value
		}
	}
	return json.Marshal(fields)
}
