package testutil

import (
	"context"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/suite"
)

// IntegrationTestSuite provides a context and a checked allocator per test.
// Every buffer allocated from Allocator must be released before the test ends.
type IntegrationTestSuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	allocator *memory.CheckedAllocator
	startTime time.Time
}

// SetupTest runs before each test in the suite
func (s *IntegrationTestSuite) SetupTest() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), time.Minute)
	s.allocator = memory.NewCheckedAllocator(memory.NewGoAllocator())
	s.startTime = time.Now()
}

// TearDownTest runs after each test in the suite
func (s *IntegrationTestSuite) TearDownTest() {
	s.cancel()
	s.allocator.AssertSize(s.T(), 0)
	s.T().Logf("%s completed in %v", s.T().Name(), time.Since(s.startTime))
}

// Context returns the test context
func (s *IntegrationTestSuite) Context() context.Context {
	return s.ctx
}

// Allocator returns the test's checked allocator
func (s *IntegrationTestSuite) Allocator() *memory.CheckedAllocator {
	return s.allocator
}
