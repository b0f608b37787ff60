package compile_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Sternrassler/compile-bytecodes/internal/testutil"
	"github.com/Sternrassler/compile-bytecodes/pkg/batch"
	"github.com/Sternrassler/compile-bytecodes/pkg/compile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareBytecodesBatch_Length(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
	}{
		{name: "zero compilations", counts: nil},
		{name: "one empty compilation", counts: []int{0}},
		{name: "one compilation many contracts", counts: []int{7}},
		{name: "mixed", counts: []int{2, 0, 3, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compilations := make([]compile.Compilation, len(tt.counts))
			total := 0
			for i, n := range tt.counts {
				pairs := make([][2]string, n)
				for j := range pairs {
					pairs[j] = [2]string{"0x01", "0x02"}
				}
				compilations[i] = testutil.Compilation(pairs...)
				total += n
			}

			b := compile.PrepareBytecodesBatch(compilations)
			assert.Equal(t, 2*total, b.Len())
			assert.Len(t, b.Inputs(), 2*total)
		})
	}
}

func TestPrepareBytecodesBatch_Order(t *testing.T) {
	compilations := []compile.Compilation{
		testutil.Compilation([2]string{"0xA0", "0xA1"}, [2]string{"0xB0", "0xB1"}),
		testutil.Compilation(),
		testutil.Compilation([2]string{"0xC0", "0xC1"}),
	}

	b := compile.PrepareBytecodesBatch(compilations)

	want := []struct {
		bytes string
		crumb compile.Breadcrumb
	}{
		{"0xA0", compile.Breadcrumb{CompilationIndex: 0, ContractIndex: 0, Field: compile.FieldBytecode}},
		{"0xA1", compile.Breadcrumb{CompilationIndex: 0, ContractIndex: 0, Field: compile.FieldDeployedBytecode}},
		{"0xB0", compile.Breadcrumb{CompilationIndex: 0, ContractIndex: 1, Field: compile.FieldBytecode}},
		{"0xB1", compile.Breadcrumb{CompilationIndex: 0, ContractIndex: 1, Field: compile.FieldDeployedBytecode}},
		{"0xC0", compile.Breadcrumb{CompilationIndex: 2, ContractIndex: 0, Field: compile.FieldBytecode}},
		{"0xC1", compile.Breadcrumb{CompilationIndex: 2, ContractIndex: 0, Field: compile.FieldDeployedBytecode}},
	}

	require.Equal(t, len(want), b.Len())
	for i, w := range want {
		assert.Equal(t, w.bytes, b.Inputs()[i].Bytes, "input %d", i)
		crumb, ok := b.Breadcrumb(i)
		require.True(t, ok, "breadcrumb %d", i)
		assert.Equal(t, w.crumb, crumb, "breadcrumb %d", i)
	}
}

func TestPrepareBytecodesBatch_PassesThroughMissingLeaves(t *testing.T) {
	compilations := []compile.Compilation{{
		Contracts: []compile.Contract{{ContractName: "NoBytecode"}},
	}}

	b := compile.PrepareBytecodesBatch(compilations)
	require.Equal(t, 2, b.Len())
	assert.Nil(t, b.Inputs()[0])
	assert.Nil(t, b.Inputs()[1])
}

func TestUnbatch_Scenario(t *testing.T) {
	compilations := []compile.Compilation{
		testutil.Compilation([2]string{"0xAA", "0xBB"}, [2]string{"0xCC", "0xDD"}),
	}

	b := compile.PrepareBytecodesBatch(compilations)
	got := make([]string, 0, b.Len())
	for _, in := range b.Inputs() {
		got = append(got, in.Bytes)
	}
	assert.Equal(t, []string{"0xAA", "0xBB", "0xCC", "0xDD"}, got)

	out, err := b.Unbatch(testutil.SequentialIDs(4))
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Contracts, 2)

	assert.Equal(t, compile.DB{
		compile.KeyCreateBytecode: compile.IDObject{ID: "1"},
		compile.KeyCallBytecode:   compile.IDObject{ID: "2"},
	}, out[0].Contracts[0].DB)
	assert.Equal(t, compile.DB{
		compile.KeyCreateBytecode: compile.IDObject{ID: "3"},
		compile.KeyCallBytecode:   compile.IDObject{ID: "4"},
	}, out[0].Contracts[1].DB)

	// Carried-through fields survive.
	assert.Equal(t, "Contract0", out[0].Contracts[0].ContractName)
	assert.Equal(t, "0xCC", out[0].Contracts[1].Bytecode.Bytes)
	assert.Equal(t, compilations[0].Compiler, out[0].Compiler)
}

func TestUnbatch_RoundTrip(t *testing.T) {
	compilations := []compile.Compilation{
		testutil.Compilation([2]string{"0x10", "0x11"}),
		testutil.Compilation(),
		testutil.Compilation([2]string{"0x20", "0x21"}, [2]string{"0x30", "0x31"}, [2]string{"0x40", "0x41"}),
		testutil.Compilation([2]string{"0x50", "0x51"}),
	}

	b := compile.PrepareBytecodesBatch(compilations)
	results := make([]compile.IDObject, b.Len())
	for i, in := range b.Inputs() {
		results[i] = compile.IDObject{ID: "id-" + in.Bytes}
	}

	out, err := b.Unbatch(results)
	require.NoError(t, err)
	require.Len(t, out, len(compilations))

	k := 0
	for i := range compilations {
		require.Len(t, out[i].Contracts, len(compilations[i].Contracts), "compilation %d", i)
		assert.NotNil(t, out[i].Contracts, "compilation %d contracts", i)
		for j := range compilations[i].Contracts {
			contract := out[i].Contracts[j]
			create, ok := contract.DB.CreateBytecode()
			require.True(t, ok)
			call, ok := contract.DB.CallBytecode()
			require.True(t, ok)
			assert.Equal(t, results[2*k], create)
			assert.Equal(t, results[2*k+1], call)
			assert.Equal(t, compilations[i].Contracts[j].ContractName, contract.ContractName)
			k++
		}
	}
}

func TestUnbatch_PreservesExistingDB(t *testing.T) {
	compilation := testutil.Compilation([2]string{"0xAA", "0xBB"})
	compilation.Contracts[0].DB = compile.DB{
		"foo":                     1,
		compile.KeyCreateBytecode: compile.IDObject{ID: "stale"},
	}
	compilations := []compile.Compilation{compilation}

	out, err := compile.PrepareBytecodesBatch(compilations).Unbatch(testutil.SequentialIDs(2))
	require.NoError(t, err)

	assert.Equal(t, compile.DB{
		"foo":                     1,
		compile.KeyCreateBytecode: compile.IDObject{ID: "1"},
		compile.KeyCallBytecode:   compile.IDObject{ID: "2"},
	}, out[0].Contracts[0].DB)

	// Input record is untouched.
	assert.Equal(t, compile.DB{
		"foo":                     1,
		compile.KeyCreateBytecode: compile.IDObject{ID: "stale"},
	}, compilations[0].Contracts[0].DB)
}

func TestUnbatch_DoesNotMutateInput(t *testing.T) {
	compilations := []compile.Compilation{
		testutil.Compilation([2]string{"0xAA", "0xBB"}),
	}
	before, err := json.Marshal(compilations)
	require.NoError(t, err)

	_, err = compile.PrepareBytecodesBatch(compilations).Unbatch(testutil.SequentialIDs(2))
	require.NoError(t, err)

	after, err := json.Marshal(compilations)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
	assert.Nil(t, compilations[0].Contracts[0].DB)
}

func TestUnbatch_Boundaries(t *testing.T) {
	t.Run("zero compilations", func(t *testing.T) {
		b := compile.PrepareBytecodesBatch(nil)
		assert.Equal(t, 0, b.Len())

		out, err := b.Unbatch(nil)
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("one compilation without contracts", func(t *testing.T) {
		compilations := []compile.Compilation{testutil.Compilation()}
		b := compile.PrepareBytecodesBatch(compilations)
		assert.Equal(t, 0, b.Len())

		out, err := b.Unbatch([]compile.IDObject{})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.NotNil(t, out[0].Contracts)
		assert.Empty(t, out[0].Contracts)
		assert.Equal(t, compilations[0].Compiler, out[0].Compiler)
	})
}

func TestUnbatch_LengthMismatch(t *testing.T) {
	compilations := []compile.Compilation{
		testutil.Compilation([2]string{"0xAA", "0xBB"}, [2]string{"0xCC", "0xDD"}),
	}
	b := compile.PrepareBytecodesBatch(compilations)

	for _, n := range []int{0, 3, 5} {
		out, err := b.Unbatch(testutil.SequentialIDs(n))
		var mismatch *batch.LengthMismatchError
		require.ErrorAs(t, err, &mismatch, "n=%d", n)
		assert.Equal(t, 4, mismatch.Expected)
		assert.Equal(t, n, mismatch.Got)
		assert.Nil(t, out)
	}
}

func TestLoadBytecodes(t *testing.T) {
	loader := testutil.NewMockLoader()
	compilations := []compile.Compilation{
		testutil.Compilation([2]string{"0xAA", "0xBB"}, [2]string{"0xCC", "0xDD"}),
	}

	out, err := compile.LoadBytecodes(context.Background(), loader, compilations)
	require.NoError(t, err)

	assert.Equal(t, 1, loader.GetRequestCount())
	req, ok := loader.LastRequest()
	require.True(t, ok)
	assert.Equal(t, compile.ResourceBytecodes, req.Kind)
	require.Len(t, req.Inputs, 4)
	assert.Equal(t, "0xDD", req.Inputs[3].Bytes)

	id, ok := out[0].Contracts[1].DB.CallBytecode()
	require.True(t, ok)
	assert.Equal(t, "4", id.ID)
}

func TestLoadBytecodes_EmptyInputStillRequests(t *testing.T) {
	loader := testutil.NewMockLoader()

	out, err := compile.LoadBytecodes(context.Background(), loader, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 1, loader.GetRequestCount())
}

func TestLoadBytecodes_Errors(t *testing.T) {
	compilations := []compile.Compilation{
		testutil.Compilation([2]string{"0xAA", "0xBB"}),
	}
	backendDown := errors.New("backend down")

	tests := []struct {
		name  string
		resp  testutil.MockLoaderResponse
		check func(t *testing.T, err error)
	}{
		{
			name: "loader failure propagates",
			resp: testutil.MockLoaderResponse{Err: backendDown},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, backendDown)
			},
		},
		{
			name: "short result sequence",
			resp: testutil.MockLoaderResponse{Results: testutil.SequentialIDs(1)},
			check: func(t *testing.T, err error) {
				var mismatch *batch.LengthMismatchError
				require.ErrorAs(t, err, &mismatch)
				assert.Equal(t, compile.ResourceBytecodes, mismatch.Kind)
			},
		},
		{
			name: "long result sequence",
			resp: testutil.MockLoaderResponse{Results: testutil.SequentialIDs(3)},
			check: func(t *testing.T, err error) {
				var mismatch *batch.LengthMismatchError
				require.ErrorAs(t, err, &mismatch)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := testutil.NewMockLoader()
			loader.SetResponse(compile.ResourceBytecodes, tt.resp)

			out, err := compile.LoadBytecodes(context.Background(), loader, compilations)
			require.Error(t, err)
			assert.Nil(t, out)
			tt.check(t, err)
		})
	}
}

func TestLoadBytecodes_Cancelled(t *testing.T) {
	loader := testutil.NewMockLoader()
	loader.SetResponse(compile.ResourceBytecodes, testutil.MockLoaderResponse{Delay: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := compile.LoadBytecodes(ctx, loader, []compile.Compilation{
		testutil.Compilation([2]string{"0xAA", "0xBB"}),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
}

const opaqueCompilationsJSON = `[{
	"compiler": {"name": "solc", "version": "0.8.0", "settings": {"optimizer": {"enabled": true, "runs": 200}}},
	"sourceIndexes": ["contracts/A.sol"],
	"contracts": [{
		"contractName": "A",
		"abi": [],
		"immutableReferences": {"12": [{"start": 1, "length": 32}]},
		"generatedSources": [],
		"bytecode": {"bytes": "0x6080", "linkReferences": [], "opcodes": "PUSH1"},
		"deployedBytecode": "0xAA",
		"db": {"source": {"id": "0xsrc"}}
	}, {
		"contractName": "B",
		"bytecode": null,
		"deployedBytecode": {"bytes": "0x01", "linkReferences": []}
	}]
}]`

func TestCompilationJSON_RoundTrip(t *testing.T) {
	var compilations []compile.Compilation
	require.NoError(t, json.Unmarshal([]byte(opaqueCompilationsJSON), &compilations))

	data, err := json.Marshal(compilations)
	require.NoError(t, err)
	assert.JSONEq(t, opaqueCompilationsJSON, string(data))
}

func TestUnbatch_KeepsOpaqueFields(t *testing.T) {
	var compilations []compile.Compilation
	require.NoError(t, json.Unmarshal([]byte(opaqueCompilationsJSON), &compilations))

	b := compile.PrepareBytecodesBatch(compilations)
	require.Equal(t, 4, b.Len())

	// Leaves reach the loader as they were decoded.
	inputs := b.Inputs()
	assert.Equal(t, "0x6080", inputs[0].Bytes)
	assert.JSONEq(t, `"PUSH1"`, string(inputs[0].Extra["opcodes"]))
	assert.True(t, inputs[1].Malformed())
	assert.JSONEq(t, `"0xAA"`, string(inputs[1].Raw))
	assert.Nil(t, inputs[2])
	assert.Equal(t, "0x01", inputs[3].Bytes)

	out, err := b.Unbatch(testutil.SequentialIDs(4))
	require.NoError(t, err)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `[{
		"compiler": {"name": "solc", "version": "0.8.0", "settings": {"optimizer": {"enabled": true, "runs": 200}}},
		"sourceIndexes": ["contracts/A.sol"],
		"contracts": [{
			"contractName": "A",
			"abi": [],
			"immutableReferences": {"12": [{"start": 1, "length": 32}]},
			"generatedSources": [],
			"bytecode": {"bytes": "0x6080", "linkReferences": [], "opcodes": "PUSH1"},
			"deployedBytecode": "0xAA",
			"db": {"source": {"id": "0xsrc"}, "createBytecode": {"id": "1"}, "callBytecode": {"id": "2"}}
		}, {
			"contractName": "B",
			"bytecode": null,
			"deployedBytecode": {"bytes": "0x01", "linkReferences": []},
			"db": {"createBytecode": {"id": "3"}, "callBytecode": {"id": "4"}}
		}]
	}]`, string(data))
}
