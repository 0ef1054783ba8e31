package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Metadata             map[string]any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	// Reason is the status line's reason phrase, without the numeric code.
	Reason   string
	Headers  map[string]string
	Body     []byte
	Metadata map[string]any
}

// TransportAdapter executes one HTTP exchange. Implementations return an error
// only when no response was received; non-2xx responses are not errors here.
type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// ReplayLedger records claims on keys for a bounded time. Claim reports false
// when the key is already held.
type ReplayLedger interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Identifiable is implemented by every model that can appear in a Page.
type Identifiable interface {
	ListID() string
}

// Caller is the request pipeline consumed by the resource APIs.
type Caller interface {
	Call(ctx context.Context, req APIRequest) (TransportResponse, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
