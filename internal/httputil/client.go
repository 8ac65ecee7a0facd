// Package httputil provides HTTP client and response helpers shared by the
// Smartsheet client and the analysis API.
package httputil

import (
	"io"
	"net/http"
	"strings"
	"sync"
)

// Doer abstracts the HTTP transport so clients can be tested with canned
// responses. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// MockDoer is a Doer returning queued responses in order. Once the queue is
// exhausted, further requests return Err (or a 500 if Err is nil).
type MockDoer struct {
	mu        sync.Mutex
	Requests  []*http.Request
	responses []mockResponse
	Err       error
}

type mockResponse struct {
	status int
	body   string
	err    error
}

// Queue appends a canned response.
func (m *MockDoer) Queue(status int, body string) *MockDoer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResponse{status: status, body: body})
	return m
}

// QueueError appends a transport error.
func (m *MockDoer) QueueError(err error) *MockDoer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResponse{err: err})
	return m
}

// Do records the request and pops the next queued response.
func (m *MockDoer) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)
	if len(m.responses) == 0 {
		if m.Err != nil {
			return nil, m.Err
		}
		return &http.Response{
			StatusCode: http.StatusInternalServerError,
			Body:       io.NopCloser(strings.NewReader("no response queued")),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	}

	next := m.responses[0]
	m.responses = m.responses[1:]
	if next.err != nil {
		return nil, next.err
	}
	return &http.Response{
		StatusCode: next.status,
		Body:       io.NopCloser(strings.NewReader(next.body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}
