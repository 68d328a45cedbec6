package writer

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/ajitpratap0/flightbridge/pkg/columnar"
	"github.com/ajitpratap0/flightbridge/pkg/types"
)

// IntegerWriter writes integer blocks as 32-bit integer vectors
type IntegerWriter struct{}

func (IntegerWriter) Type() types.Type { return types.Integer }

func (IntegerWriter) ArrowType() arrow.DataType { return arrow.PrimitiveTypes.Int32 }

func (IntegerWriter) Write(fb array.Builder, block columnar.Block) error {
	return writeFixed[int32, *array.Int32Builder](fb, block)
}
