package testutil

import (
	"fmt"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"
)

// IntRecord builds a record of integer columns. Each column is a slice of int64
// values or nil for null; values are narrowed to the field's width.
func IntRecord(t *testing.T, mem memory.Allocator, schema *arrow.Schema, columns ...[]any) arrow.Record {
	t.Helper()
	require.Len(t, columns, schema.NumFields())

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for i, column := range columns {
		require.NoError(t, appendInts(b.Field(i), column), schema.Field(i).Name)
	}
	return b.NewRecord()
}

// Sequence returns n values starting at start
func Sequence(start int64, n int) []any {
	values := make([]any, n)
	for i := range values {
		values[i] = start + int64(i)
	}
	return values
}

func appendInts(fb array.Builder, values []any) error {
	for _, v := range values {
		if v == nil {
			fb.AppendNull()
			continue
		}
		n, ok := v.(int64)
		if !ok {
			if i, isInt := v.(int); isInt {
				n, ok = int64(i), true
			}
		}
		if !ok {
			return fmt.Errorf("value %v is not an integer", v)
		}
		switch b := fb.(type) {
		case *array.Int64Builder:
			b.Append(n)
		case *array.Int32Builder:
			b.Append(int32(n))
		case *array.Int16Builder:
			b.Append(int16(n))
		case *array.Int8Builder:
			b.Append(int8(n))
		case *array.Uint64Builder:
			b.Append(uint64(n))
		case *array.Uint32Builder:
			b.Append(uint32(n))
		case *array.Uint16Builder:
			b.Append(uint16(n))
		case *array.Uint8Builder:
			b.Append(uint8(n))
		default:
			return fmt.Errorf("unsupported builder %T", fb)
		}
	}
	return nil
}
