package api

import (
	"context"
	"sync"
)

// MockBackendClient is a mock implementation of BackendClientInterface for testing
type MockBackendClient struct {
	mu sync.Mutex

	// Mock return values
	SendFunc   func(ctx context.Context, req Request) ([]byte, error)
	SendBody   []byte
	SendErr    error
	IngestErr  error
	HealthVal  string
	HealthErr  error
	BaseURLVal string

	// Call counters/recorders
	SendCalls   int
	IngestCalls int
	LastRequest Request
}

// Ensure MockBackendClient implements BackendClientInterface
var _ BackendClientInterface = (*MockBackendClient)(nil)

func (m *MockBackendClient) Send(ctx context.Context, req Request) ([]byte, error) {
	m.mu.Lock()
	m.SendCalls++
	m.LastRequest = req
	fn := m.SendFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return m.SendBody, m.SendErr
}

func (m *MockBackendClient) Ingest(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IngestCalls++
	return m.IngestErr
}

func (m *MockBackendClient) Health(ctx context.Context) (string, error) {
	return m.HealthVal, m.HealthErr
}

func (m *MockBackendClient) BaseURL() string {
	return m.BaseURLVal
}

// Calls returns the number of Send calls so far
func (m *MockBackendClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SendCalls
}

// Last returns the most recent request passed to Send
func (m *MockBackendClient) Last() Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LastRequest
}
