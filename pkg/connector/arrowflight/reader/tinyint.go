package reader

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/ajitpratap0/flightbridge/pkg/columnar"
	"github.com/ajitpratap0/flightbridge/pkg/types"
)

// TinyIntReader reads signed or unsigned 8-bit integer vectors
type TinyIntReader struct{}

func (TinyIntReader) Type() types.Type { return types.TinyInt }

func (TinyIntReader) Read(vec arrow.Array, offset, length int) (columnar.Block, error) {
	var (
		values []int8
		nulls  []bool
		err    error
	)
	if _, ok := vec.(*array.Uint8); ok {
		values, nulls, err = readAs[int8, uint8, *array.Uint8](vec, offset, length)
	} else {
		values, nulls, err = readFixed[int8, *array.Int8](vec, offset, length)
	}
	if err != nil {
		return nil, err
	}
	return columnar.NewByteBlock(values, nulls), nil
}
