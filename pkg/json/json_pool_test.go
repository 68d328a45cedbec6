package json

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/flightbridge/pkg/connector/core"
	"github.com/ajitpratap0/flightbridge/pkg/types"
)

func TestSplitRoundTrip(t *testing.T) {
	split := &core.Split{
		Locations: []string{"grpc+tcp://replica:8815", "grpc+tcp://primary:8815"},
		Ticket:    []byte{0x00, 0xff, 'o', 'r', 'd'},
	}

	data, err := Marshal(split)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\n")

	var decoded core.Split
	require.NoError(t, Unmarshal(data, &decoded))
	assert.Equal(t, split, &decoded)
}

func TestOutputTableHandleRoundTrip(t *testing.T) {
	handle := &core.OutputTableHandle{
		TableHandle: &core.TableHandle{TableName: "orders"},
		ColumnHandles: []*core.ColumnHandle{
			{ColumnName: "id", ColumnType: types.BigInt},
			{ColumnName: "qty", ColumnType: types.Integer},
		},
	}

	data, err := Marshal(handle)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tableHandle":{"tableName":"orders"},"columnHandles":[{"columnName":"id","columnType":"bigint"},{"columnName":"qty","columnType":"integer"}]}`, string(data))

	var decoded core.OutputTableHandle
	require.NoError(t, Unmarshal(data, &decoded))
	assert.Equal(t, handle, &decoded)
}

func TestUnmarshalRejectsUnknownFields(t *testing.T) {
	var handle core.TableHandle
	err := Unmarshal([]byte(`{"tableName":"orders","schema":"x"}`), &handle)
	assert.Error(t, err)
}

func TestUnmarshalRejectsBadType(t *testing.T) {
	var column core.ColumnHandle
	err := Unmarshal([]byte(`{"columnName":"id","columnType":"uuid"}`), &column)
	assert.Error(t, err)
}
