package reader

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/ajitpratap0/flightbridge/pkg/columnar"
	"github.com/ajitpratap0/flightbridge/pkg/types"
)

// IntegerReader reads signed or unsigned 32-bit integer vectors
type IntegerReader struct{}

func (IntegerReader) Type() types.Type { return types.Integer }

func (IntegerReader) Read(vec arrow.Array, offset, length int) (columnar.Block, error) {
	var (
		values []int32
		nulls  []bool
		err    error
	)
	if _, ok := vec.(*array.Uint32); ok {
		values, nulls, err = readAs[int32, uint32, *array.Uint32](vec, offset, length)
	} else {
		values, nulls, err = readFixed[int32, *array.Int32](vec, offset, length)
	}
	if err != nil {
		return nil, err
	}
	return columnar.NewIntBlock(values, nulls), nil
}
