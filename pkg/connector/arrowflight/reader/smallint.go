package reader

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/ajitpratap0/flightbridge/pkg/columnar"
	"github.com/ajitpratap0/flightbridge/pkg/types"
)

// SmallIntReader reads signed or unsigned 16-bit integer vectors
type SmallIntReader struct{}

func (SmallIntReader) Type() types.Type { return types.SmallInt }

func (SmallIntReader) Read(vec arrow.Array, offset, length int) (columnar.Block, error) {
	var (
		values []int16
		nulls  []bool
		err    error
	)
	if _, ok := vec.(*array.Uint16); ok {
		values, nulls, err = readAs[int16, uint16, *array.Uint16](vec, offset, length)
	} else {
		values, nulls, err = readFixed[int16, *array.Int16](vec, offset, length)
	}
	if err != nil {
		return nil, err
	}
	return columnar.NewShortBlock(values, nulls), nil
}
