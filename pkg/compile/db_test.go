package compile_test

import (
	"encoding/json"
	"testing"

	"github.com/Sternrassler/compile-bytecodes/pkg/compile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_Merge(t *testing.T) {
	tests := []struct {
		name    string
		db      compile.DB
		updates compile.DB
		want    compile.DB
	}{
		{
			name: "nil record",
			want: compile.DB{},
		},
		{
			name:    "adds keys",
			db:      compile.DB{"foo": 1},
			updates: compile.DB{"bar": 2},
			want:    compile.DB{"foo": 1, "bar": 2},
		},
		{
			name:    "updates win",
			db:      compile.DB{"foo": 1, "bar": 1},
			updates: compile.DB{"bar": 2},
			want:    compile.DB{"foo": 1, "bar": 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.db.Merge(tt.updates)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDB_MergeCopies(t *testing.T) {
	db := compile.DB{"foo": 1}
	merged := db.Merge(nil)
	merged["bar"] = 2

	assert.Equal(t, compile.DB{"foo": 1}, db)
}

func TestDB_IDObjectAccessors(t *testing.T) {
	var decoded compile.DB
	require.NoError(t, json.Unmarshal([]byte(`{"createBytecode":{"id":"0xabc"}}`), &decoded))

	id, ok := decoded.CreateBytecode()
	require.True(t, ok)
	assert.Equal(t, "0xabc", id.ID)

	_, ok = decoded.CallBytecode()
	assert.False(t, ok)

	id, ok = compile.DB{compile.KeyCallBytecode: &compile.IDObject{ID: "7"}}.CallBytecode()
	require.True(t, ok)
	assert.Equal(t, "7", id.ID)
}

func TestField(t *testing.T) {
	assert.Equal(t, "bytecode", compile.FieldBytecode.String())
	assert.Equal(t, "deployedBytecode", compile.FieldDeployedBytecode.String())
	assert.Equal(t, compile.KeyCreateBytecode, compile.FieldBytecode.DBKey())
	assert.Equal(t, compile.KeyCallBytecode, compile.FieldDeployedBytecode.DBKey())
}

func TestContract_JSON(t *testing.T) {
	raw := `{
		"compiler": {"name": "solc", "version": "0.8.19"},
		"contracts": [{
			"contractName": "Token",
			"abi": [],
			"bytecode": {"bytes": "6080", "linkReferences": [{"offsets": [4], "length": 20, "name": "Lib"}]},
			"deployedBytecode": {"bytes": "6081", "linkReferences": []},
			"db": {"foo": 1}
		}]
	}`

	var c compile.Compilation
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	require.Len(t, c.Contracts, 1)
	assert.Equal(t, "Lib", c.Contracts[0].Bytecode.LinkReferences[0].Name)
	assert.Equal(t, float64(1), c.Contracts[0].DB["foo"])
}
