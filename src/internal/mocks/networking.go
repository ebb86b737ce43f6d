package mocks

import (
	"sync"

	"github.com/maksimkurb/keen-ipmon/src/internal/domain"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

var (
	_ domain.KernelRouteApplier = (*MockRouteApplier)(nil)
	_ domain.InterfaceResolver  = (*MockInterfaceResolver)(nil)
)

// MockRouteApplier is a mock implementation of the KernelRouteApplier interface.
//
// It records every route it is asked to add or remove so tests can check
// the kernel side of a synchronization without touching the routing table.
type MockRouteApplier struct {
	// AddFunc is called by Add if not nil
	AddFunc func(route models.IPv4Route) error

	// RemoveFunc is called by Remove if not nil
	RemoveFunc func(route models.IPv4Route) error

	// Track calls for verification in tests
	Added   []models.IPv4Route
	Removed []models.IPv4Route

	mu sync.Mutex
}

// NewMockRouteApplier creates a new mock route applier that accepts every route.
func NewMockRouteApplier() *MockRouteApplier {
	return &MockRouteApplier{}
}

// Add records the route and returns the AddFunc result.
func (m *MockRouteApplier) Add(route models.IPv4Route) error {
	m.mu.Lock()
	m.Added = append(m.Added, route)
	fn := m.AddFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(route)
	}
	return nil
}

// Remove records the route and returns the RemoveFunc result.
func (m *MockRouteApplier) Remove(route models.IPv4Route) error {
	m.mu.Lock()
	m.Removed = append(m.Removed, route)
	fn := m.RemoveFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(route)
	}
	return nil
}

// Calls returns copies of the recorded additions and removals.
func (m *MockRouteApplier) Calls() (added, removed []models.IPv4Route) {
	m.mu.Lock()
	defer m.mu.Unlock()
	added = append([]models.IPv4Route(nil), m.Added...)
	removed = append([]models.IPv4Route(nil), m.Removed...)
	return added, removed
}

// Reset forgets recorded calls.
func (m *MockRouteApplier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Added = nil
	m.Removed = nil
}

// MockInterfaceResolver is a mock implementation of the InterfaceResolver interface
// backed by a fixed name to index table.
type MockInterfaceResolver struct {
	Interfaces map[string]int

	NameToIndexCalls int

	mu sync.Mutex
}

// NewMockInterfaceResolver creates a resolver knowing the given interfaces.
// The loopback interface "lo" is always known with index 1.
func NewMockInterfaceResolver(interfaces map[string]int) *MockInterfaceResolver {
	m := &MockInterfaceResolver{Interfaces: map[string]int{"lo": 1}}
	for name, idx := range interfaces {
		m.Interfaces[name] = idx
	}
	return m
}

// NameToIndex returns the configured index or 0.
func (m *MockInterfaceResolver) NameToIndex(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NameToIndexCalls++
	return m.Interfaces[name]
}

// IndexToName searches the table for the index.
func (m *MockInterfaceResolver) IndexToName(index int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, idx := range m.Interfaces {
		if idx == index {
			return name, true
		}
	}
	return "", false
}

// Set adds or replaces an interface.
func (m *MockInterfaceResolver) Set(name string, index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Interfaces[name] = index
}
