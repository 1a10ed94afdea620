package mqtt

import (
	"fmt"
	"sync"

	"github.com/kwhlab/battsim/core/model"
)

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	mu        sync.Mutex
	Published []string
	Fail      bool
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// PublishSchedule records the model name or returns an error if configured
// to fail.
func (m *MockPublisher) PublishSchedule(simModel string, res *model.DispatchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return fmt.Errorf("publish failed")
	}
	m.Published = append(m.Published, simModel)
	return nil
}

// Close is a no-op.
func (m *MockPublisher) Close() {}
