// Package testutil provides testing utilities for bytecode batch loading.
package testutil

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/compile-bytecodes/pkg/batch"
	"github.com/Sternrassler/compile-bytecodes/pkg/compile"
)

// MockLoaderResponse defines the behavior of a mock load.
type MockLoaderResponse struct {
	// Results are returned verbatim when set; otherwise sequential IDs are generated
	Results []compile.IDObject
	Err     error
	Delay   time.Duration
}

// MockLoader is a configurable loader that records the requests it receives.
type MockLoader struct {
	mu       sync.RWMutex
	handlers map[string]func(ctx context.Context, req batch.Request[*compile.BytecodeInput]) ([]compile.IDObject, error)

	// Tracking
	RequestCount int
	Requests     []batch.Request[*compile.BytecodeInput]
}

// NewMockLoader creates a new mock loader.
func NewMockLoader() *MockLoader {
	return &MockLoader{
		handlers: make(map[string]func(ctx context.Context, req batch.Request[*compile.BytecodeInput]) ([]compile.IDObject, error)),
	}
}

// Load implements batch.Loader.
func (m *MockLoader) Load(ctx context.Context, req batch.Request[*compile.BytecodeInput]) ([]compile.IDObject, error) {
	m.mu.Lock()
	m.RequestCount++
	inputs := make([]*compile.BytecodeInput, len(req.Inputs))
	copy(inputs, req.Inputs)
	m.Requests = append(m.Requests, batch.Request[*compile.BytecodeInput]{Kind: req.Kind, Inputs: inputs})
	handler, exists := m.handlers[req.Kind]
	m.mu.Unlock()

	if exists {
		return handler(ctx, req)
	}

	return SequentialIDs(len(req.Inputs)), nil
}

// Reset clears all tracking state.
func (m *MockLoader) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.Requests = nil
}

// SetHandler sets a custom handler for a resource kind.
func (m *MockLoader) SetHandler(kind string, handler func(ctx context.Context, req batch.Request[*compile.BytecodeInput]) ([]compile.IDObject, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[kind] = handler
}

// SetResponse configures a fixed response for a resource kind.
func (m *MockLoader) SetResponse(kind string, resp MockLoaderResponse) {
	m.SetHandler(kind, func(ctx context.Context, req batch.Request[*compile.BytecodeInput]) ([]compile.IDObject, error) {
		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if resp.Err != nil {
			return nil, resp.Err
		}
		if resp.Results != nil {
			return resp.Results, nil
		}
		return SequentialIDs(len(req.Inputs)), nil
	})
}

// GetRequestCount returns the number of Load calls.
func (m *MockLoader) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// LastRequest returns the most recent request, if any.
func (m *MockLoader) LastRequest() (batch.Request[*compile.BytecodeInput], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.Requests) == 0 {
		return batch.Request[*compile.BytecodeInput]{}, false
	}
	return m.Requests[len(m.Requests)-1], true
}

// SequentialIDs returns n results with IDs "1".."n".
func SequentialIDs(n int) []compile.IDObject {
	out := make([]compile.IDObject, n)
	for i := range out {
		out[i] = compile.IDObject{ID: strconv.Itoa(i + 1)}
	}
	return out
}

// Bytecode returns a bytecode input with no link references.
func Bytecode(bytes string) *compile.BytecodeInput {
	return &compile.BytecodeInput{Bytes: bytes}
}

// Compilation builds a compilation whose contracts carry the given
// bytecode/deployedBytecode pairs.
func Compilation(pairs ...[2]string) compile.Compilation {
	c := compile.Compilation{
		Compiler:  json.RawMessage(`{"name":"solc","version":"0.8.19"}`),
		Contracts: make([]compile.Contract, 0, len(pairs)),
	}
	for i, p := range pairs {
		c.Contracts = append(c.Contracts, compile.Contract{
			ContractName:     "Contract" + strconv.Itoa(i),
			Bytecode:         Bytecode(p[0]),
			DeployedBytecode: Bytecode(p[1]),
		})
	}
	return c
}
