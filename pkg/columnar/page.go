package columnar

import "fmt"

// Page is the engine's unit of columnar execution: a row count and one Block per channel.
type Page struct {
	positionCount int
	blocks        []Block
}

// NewPage creates a page. Every block must have positionCount positions.
func NewPage(positionCount int, blocks ...Block) (*Page, error) {
	for i, block := range blocks {
		if block.PositionCount() != positionCount {
			return nil, fmt.Errorf("block %d has %d positions, page has %d", i, block.PositionCount(), positionCount)
		}
	}
	return &Page{positionCount: positionCount, blocks: blocks}, nil
}

// PositionCount returns the number of rows
func (p *Page) PositionCount() int { return p.positionCount }

// ChannelCount returns the number of columns
func (p *Page) ChannelCount() int { return len(p.blocks) }

// Block returns the block for a channel
func (p *Page) Block(channel int) Block { return p.blocks[channel] }

// SizeInBytes estimates the memory held by the page
func (p *Page) SizeInBytes() int64 {
	var total int64
	for _, block := range p.blocks {
		total += block.SizeInBytes()
	}
	return total
}
