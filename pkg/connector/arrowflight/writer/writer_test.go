package writer

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/flightbridge/pkg/columnar"
	"github.com/ajitpratap0/flightbridge/pkg/errors"
	"github.com/ajitpratap0/flightbridge/pkg/testutil"
	"github.com/ajitpratap0/flightbridge/pkg/types"
)

func TestLongWriterAppendsAcrossBlocks(t *testing.T) {
	mem := testutil.CheckedAllocator(t)
	w, err := ForType(types.BigInt)
	require.NoError(t, err)
	assert.Equal(t, arrow.PrimitiveTypes.Int64, w.ArrowType())

	b := array.NewInt64Builder(mem)
	defer b.Release()

	require.NoError(t, w.Write(b, columnar.NewLongBlock([]int64{1, 0, 3}, []bool{false, true, false})))
	require.NoError(t, w.Write(b, columnar.NewLongBlock([]int64{4}, nil)))

	arr := b.NewInt64Array()
	defer arr.Release()
	require.Equal(t, 4, arr.Len())
	assert.Equal(t, int64(1), arr.Value(0))
	assert.True(t, arr.IsNull(1))
	assert.Equal(t, int64(3), arr.Value(2))
	assert.Equal(t, int64(4), arr.Value(3))
}

func TestIntegerWriter(t *testing.T) {
	mem := testutil.CheckedAllocator(t)
	w, err := ForType(types.Integer)
	require.NoError(t, err)

	b := array.NewInt32Builder(mem)
	defer b.Release()
	require.NoError(t, w.Write(b, columnar.NewIntBlock([]int32{0, 7}, []bool{true, false})))

	arr := b.NewInt32Array()
	defer arr.Release()
	assert.True(t, arr.IsNull(0))
	assert.Equal(t, int32(7), arr.Value(1))
}

func TestWriterRejectsMismatchedBlock(t *testing.T) {
	mem := testutil.CheckedAllocator(t)
	b := array.NewInt64Builder(mem)
	defer b.Release()

	err := LongWriter{}.Write(b, columnar.NewIntBlock([]int32{1}, nil))
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestSmallIntIsNotWritable(t *testing.T) {
	for _, typ := range []types.Type{types.SmallInt, types.TinyInt, types.Varchar, types.Double} {
		_, err := ForType(typ)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeUnsupportedType), typ.String())
	}
}
