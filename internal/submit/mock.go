package submit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sabaqlab/sabaq/internal/api"
	"github.com/sabaqlab/sabaq/internal/assessment"
)

// MockResponse is a canned response for the MockTransport.
type MockResponse struct {
	Result *assessment.Result
	Err    error
}

// MockTransport is a deterministic Transport for testing.
// It returns canned responses in FIFO order and records all records.
type MockTransport struct {
	mu        sync.Mutex
	name      string
	responses []MockResponse
	// Delay, when set, is slept (ctx-aware) before answering.
	Delay time.Duration
	Calls []Record
}

// NewMockTransport creates a MockTransport with the given canned responses.
func NewMockTransport(name string, responses ...MockResponse) *MockTransport {
	return &MockTransport{name: name, responses: responses}
}

// Submit returns the next canned response, or a network error if the
// queue is empty.
func (m *MockTransport) Submit(ctx context.Context, rec *Record) (*assessment.Result, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, *rec)
	delay := m.Delay
	var resp MockResponse
	empty := len(m.responses) == 0
	if !empty {
		resp = m.responses[0]
		m.responses = m.responses[1:]
	}
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if empty {
		return nil, &api.NetworkError{Op: "mock " + m.name, Err: errors.New("no canned response")}
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return resp.Result, nil
}

// Name returns the name given at construction.
func (m *MockTransport) Name() string {
	return m.name
}

// AddResponse appends a canned response to the queue.
func (m *MockTransport) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Submit calls made.
func (m *MockTransport) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
