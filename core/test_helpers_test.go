package core

import (
	"context"
	"sync"
	"testing"
)

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

// scriptedTransport replays canned responses and records every request.
type scriptedTransport struct {
	mu        sync.Mutex
	requests  []TransportRequest
	responses []TransportResponse
	err       error
}

func (*scriptedTransport) Kind() string { return "scripted" }

func (s *scriptedTransport) Do(_ context.Context, req TransportRequest) (TransportResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return TransportResponse{}, s.err
	}
	if len(s.responses) == 0 {
		return TransportResponse{StatusCode: 200, Body: []byte(`{}`)}, nil
	}
	res := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return res, nil
}

func (s *scriptedTransport) lastRequest(t *testing.T) TransportRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		t.Fatalf("expected at least one transport request")
	}
	return s.requests[len(s.requests)-1]
}

func newTestClient(t *testing.T, transport TransportAdapter, opts ...Option) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.APIKey = "sk_test_123"
	cfg.BaseURL = "https://api.simplyq.test"
	client, err := NewClient(cfg, append([]Option{WithTransport(transport)}, opts...)...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}
