package core

import (
	"sort"
	"time"
)

const (
	RetryStrategyBaseExponentialBackoffWithDeadline = "base_exponential_backoff_with_deadline"
	RetryStrategyExponentialBackoff                 = "exponential_backoff"
	RetryStrategyExponentialBackoffWithDeadline     = "exponential_backoff_with_deadline"
	RetryStrategyFixedWait                          = "fixed_wait"
	RetryStrategyFixedWaitWithDeadline              = "fixed_wait_with_deadline"

	DefaultRetryStrategyType = RetryStrategyBaseExponentialBackoffWithDeadline
)

var supportedRetryStrategies = []string{
	RetryStrategyBaseExponentialBackoffWithDeadline,
	RetryStrategyExponentialBackoff,
	RetryStrategyExponentialBackoffWithDeadline,
	RetryStrategyFixedWait,
	RetryStrategyFixedWaitWithDeadline,
}

type DeliveryStatus string

const (
	DeliveryStatusPending DeliveryStatus = "pending"
	DeliveryStatusSuccess DeliveryStatus = "success"
	DeliveryStatusFailed  DeliveryStatus = "failed"
)

type RetryStrategy struct {
	Type       string `json:"type,omitempty"`
	MaxRetries *int   `json:"max_retries,omitempty"`
	RetryDelay *int   `json:"retry_delay,omitempty"`
	Deadline   *int   `json:"deadline,omitempty"`
}

type Application struct {
	UID           string         `json:"uid,omitempty"`
	Name          string         `json:"name,omitempty"`
	RateLimit     *int           `json:"rate_limit,omitempty"`
	RetryStrategy *RetryStrategy `json:"retry_strategy,omitempty"`
	CreatedAt     time.Time      `json:"created_at,omitzero"`
	UpdatedAt     time.Time      `json:"updated_at,omitzero"`
}

func (a Application) ListID() string { return a.UID }

func (a *Application) normalize() {
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
}

// EndpointHeaders holds the static headers sent with every delivery. Sensitive
// headers are write-only and come back redacted.
type EndpointHeaders struct {
	Headers   map[string]string `json:"headers,omitempty"`
	Sensitive map[string]string `json:"sensitive,omitempty"`
}

func (h EndpointHeaders) HasSensitive() bool {
	return len(h.Sensitive) > 0
}

// SensitiveNames returns the sensitive header names in sorted order.
func (h EndpointHeaders) SensitiveNames() []string {
	names := make([]string, 0, len(h.Sensitive))
	for name := range h.Sensitive {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type Endpoint struct {
	UID         string           `json:"uid,omitempty"`
	URL         string           `json:"url,omitempty"`
	Version     *int             `json:"version,omitempty"`
	Description string           `json:"description,omitempty"`
	FilterTypes []string         `json:"filter_types,omitempty"`
	Topics      []string         `json:"topics,omitempty"`
	Active      *bool            `json:"active,omitempty"`
	RateLimit   *int             `json:"rate_limit,omitempty"`
	Headers     *EndpointHeaders `json:"headers,omitempty"`
	Secret      string           `json:"secret,omitempty"`
	CreatedAt   time.Time        `json:"created_at,omitzero"`
	UpdatedAt   time.Time        `json:"updated_at,omitzero"`
}

func (e Endpoint) ListID() string { return e.UID }

func (e *Endpoint) normalize() {
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
}

type Event struct {
	UID             string         `json:"uid,omitempty"`
	EventType       string         `json:"event_type,omitempty"`
	Topics          []string       `json:"topics,omitempty"`
	Payload         map[string]any `json:"payload,omitempty"`
	RetentionPeriod *int           `json:"retention_period,omitempty"`
	CreatedAt       time.Time      `json:"created_at,omitzero"`
}

func (e Event) ListID() string { return e.UID }

func (e *Event) normalize() {
	e.CreatedAt = e.CreatedAt.UTC()
}

type DeliveryAttempt struct {
	ID                 string         `json:"id"`
	EventID            string         `json:"event_id,omitempty"`
	EndpointID         string         `json:"endpoint_id,omitempty"`
	Response           string         `json:"response,omitempty"`
	ResponseStatusCode int            `json:"response_status_code,omitempty"`
	Status             DeliveryStatus `json:"status,omitempty"`
	TriggerType        string         `json:"trigger_type,omitempty"`
	// AttemptedAt is nil while the attempt is still pending.
	AttemptedAt *time.Time `json:"attempted_at,omitempty"`
}

func (d DeliveryAttempt) ListID() string { return d.ID }

func (d *DeliveryAttempt) normalize() {
	if d.AttemptedAt != nil {
		utc := d.AttemptedAt.UTC()
		d.AttemptedAt = &utc
	}
}

func (d DeliveryAttempt) Pending() bool {
	return d.Status == DeliveryStatusPending || d.AttemptedAt == nil
}

// InboundEvent is the decoded body of a verified webhook delivery.
type InboundEvent struct {
	Data map[string]any
}

func (e InboundEvent) Get(key string) any {
	if e.Data == nil {
		return nil
	}
	return e.Data[key]
}

// String returns a string field, or "" when absent or not a string.
func (e InboundEvent) String(key string) string {
	value, _ := e.Get(key).(string)
	return value
}

type normalizer interface {
	normalize()
}

func normalizeModel(v any) {
	if n, ok := v.(normalizer); ok {
		n.normalize()
	}
}

func IntPtr(v int) *int { return &v }

func BoolPtr(v bool) *bool { return &v }
