package pipeline

import (
	"context"

	"github.com/ajitpratap0/flightbridge/pkg/columnar"
	"github.com/ajitpratap0/flightbridge/pkg/connector/core"
	"github.com/ajitpratap0/flightbridge/pkg/errors"
)

// Generate streams rows of synthetic data in pages of at most pageRows rows. Column c
// of row r holds r+c, narrowed to the column width; when nullEvery is positive every
// nullEvery-th row is null in all columns. The channel is closed after the last page
// and left open if ctx is canceled first.
func Generate(ctx context.Context, columns []core.ColumnMetadata, rows, pageRows, nullEvery int) (<-chan *columnar.Page, error) {
	if rows < 0 || pageRows <= 0 {
		return nil, errors.Newf(errors.ErrorTypeValidation, "invalid generator sizes: rows=%d page_rows=%d", rows, pageRows)
	}
	builders := make([]columnar.BlockBuilder, len(columns))
	for i, c := range columns {
		b, err := columnar.NewBlockBuilder(c.Type, pageRows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeUnsupportedType, "cannot generate column "+c.Name)
		}
		builders[i] = b
	}

	pages := make(chan *columnar.Page)
	go func() {
		for start := 0; start < rows; start += pageRows {
			size := min(pageRows, rows-start)
			blocks := make([]columnar.Block, len(builders))
			for c, b := range builders {
				for r := start; r < start+size; r++ {
					if nullEvery > 0 && r%nullEvery == nullEvery-1 {
						b.AppendNull()
						continue
					}
					appendValue(b, int64(r+c))
				}
				blocks[c] = b.Build()
			}
			page, err := columnar.NewPage(size, blocks...)
			if err != nil {
				// builders always produce size positions
				panic(err)
			}
			select {
			case pages <- page:
			case <-ctx.Done():
				return
			}
		}
		close(pages)
	}()
	return pages, nil
}

func appendValue(b columnar.BlockBuilder, v int64) {
	switch b := b.(type) {
	case *columnar.LongBlockBuilder:
		b.Append(v)
	case *columnar.IntBlockBuilder:
		b.Append(int32(v))
	case *columnar.ShortBlockBuilder:
		b.Append(int16(v))
	case *columnar.ByteBlockBuilder:
		b.Append(int8(v))
	}
}
