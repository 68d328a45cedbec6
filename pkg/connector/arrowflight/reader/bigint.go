package reader

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/ajitpratap0/flightbridge/pkg/columnar"
	"github.com/ajitpratap0/flightbridge/pkg/types"
)

// BigIntReader reads signed or unsigned 64-bit integer vectors
type BigIntReader struct{}

func (BigIntReader) Type() types.Type { return types.BigInt }

func (BigIntReader) Read(vec arrow.Array, offset, length int) (columnar.Block, error) {
	var (
		values []int64
		nulls  []bool
		err    error
	)
	if _, ok := vec.(*array.Uint64); ok {
		values, nulls, err = readAs[int64, uint64, *array.Uint64](vec, offset, length)
	} else {
		values, nulls, err = readFixed[int64, *array.Int64](vec, offset, length)
	}
	if err != nil {
		return nil, err
	}
	return columnar.NewLongBlock(values, nulls), nil
}
