package columnar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/flightbridge/pkg/types"
)

func TestBuilderPreservesNulls(t *testing.T) {
	b, err := NewBlockBuilder(types.BigInt, 4)
	require.NoError(t, err)
	lb := b.(*LongBlockBuilder)

	lb.Append(1)
	lb.AppendNull()
	lb.Append(3)

	block := lb.Build().(*LongBlock)
	require.Equal(t, 3, block.PositionCount())
	assert.False(t, block.IsNull(0))
	assert.True(t, block.IsNull(1))
	assert.False(t, block.IsNull(2))
	assert.Equal(t, int64(1), block.Value(0))
	assert.Equal(t, int64(3), block.Value(2))
	assert.Equal(t, 0, lb.PositionCount(), "builder resets after Build")
}

func TestBuilderWithoutNullsHasNoMask(t *testing.T) {
	b, err := NewBlockBuilder(types.TinyInt, 2)
	require.NoError(t, err)
	bb := b.(*ByteBlockBuilder)
	bb.Append(-1)
	bb.Append(127)

	block := bb.Build().(*ByteBlock)
	assert.False(t, block.MayHaveNull())
	assert.Equal(t, int8(-1), block.Value(0))
	assert.Equal(t, types.TinyInt, block.Type())
}

func TestNewBlockBuilderUnsupported(t *testing.T) {
	_, err := NewBlockBuilder(types.Varchar, 1)
	assert.Error(t, err)
}

func TestPageSize(t *testing.T) {
	page, err := NewPage(3,
		NewLongBlock([]int64{1, 2, 3}, nil),
		NewIntBlock([]int32{1, 2, 3}, []bool{false, true, false}),
		NewShortBlock([]int16{1, 2, 3}, nil),
		NewByteBlock([]int8{1, 2, 3}, nil),
	)
	require.NoError(t, err)
	assert.Equal(t, 4, page.ChannelCount())
	assert.Equal(t, 3, page.PositionCount())
	assert.Equal(t, int64(3*9+3*5+3*3+3*2), page.SizeInBytes())
	assert.True(t, page.Block(1).IsNull(1))
}

func TestNewPageRejectsMismatchedBlocks(t *testing.T) {
	_, err := NewPage(2, NewLongBlock([]int64{1}, nil))
	assert.Error(t, err)
}

func TestEmptyPage(t *testing.T) {
	page, err := NewPage(0)
	require.NoError(t, err)
	assert.Zero(t, page.SizeInBytes())
	assert.Zero(t, page.ChannelCount())
}
