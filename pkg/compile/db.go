package compile

import "encoding/json"

// DB is a contract's db record. Values are arbitrary; the keys set by this
// package hold IDObject values.
type DB map[string]any

// Merge returns a new record with every key of d, plus every key of updates.
// Keys present in both take the value from updates. d is not modified, and
// the result is never nil.
func (d DB) Merge(updates DB) DB {
	out := make(DB, len(d)+len(updates))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range updates {
		out[k] = v
	}
	return out
}

// CreateBytecode returns the creation bytecode reference, if set.
func (d DB) CreateBytecode() (IDObject, bool) {
	return d.idObject(KeyCreateBytecode)
}

// CallBytecode returns the deployed bytecode reference, if set.
func (d DB) CallBytecode() (IDObject, bool) {
	return d.idObject(KeyCallBytecode)
}

// idObject reads key as an IDObject. Records decoded from JSON hold
// map[string]any, so that shape is accepted too.
func (d DB) idObject(key string) (IDObject, bool) {
	switch v := d[key].(type) {
	case IDObject:
		return v, true
	case *IDObject:
		if v == nil {
			return IDObject{}, false
		}
		return *v, true
	case map[string]any:
		id, ok := v["id"].(string)
		return IDObject{ID: id}, ok
	case json.RawMessage:
		var obj IDObject
		if err := json.Unmarshal(v, &obj); err != nil {
			return IDObject{}, false
		}
		return obj, true
	default:
		return IDObject{}, false
	}
}
