package writer

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/ajitpratap0/flightbridge/pkg/columnar"
	"github.com/ajitpratap0/flightbridge/pkg/types"
)

// LongWriter writes bigint blocks as 64-bit integer vectors
type LongWriter struct{}

func (LongWriter) Type() types.Type { return types.BigInt }

func (LongWriter) ArrowType() arrow.DataType { return arrow.PrimitiveTypes.Int64 }

func (LongWriter) Write(fb array.Builder, block columnar.Block) error {
	return writeFixed[int64, *array.Int64Builder](fb, block)
}
