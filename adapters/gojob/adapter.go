// Package gojob hands verified webhook events and replay ledger maintenance
// to a go-job queue owned by the caller.
package gojob

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/simplyqio/simplyq-go/core"
	"github.com/simplyqio/simplyq-go/webhooks"
)

const (
	JobIDWebhookEvent = "simplyq.webhook.event"
	JobIDReplayPurge  = "simplyq.replay.purge"
)

const (
	paramEvent = "event"

	dedupDrop job.DeduplicationPolicy = "drop"
)

// RetryPolicy bounds how often a failed delivery is requeued.
type RetryPolicy struct {
	MaxAttempts     int
	RetryDelay      time.Duration
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// NormalizeAttempt clamps the delay and stops requeueing once attempt reaches
// MaxAttempts.
func (p RetryPolicy) NormalizeAttempt(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.DeadLetter {
		out.Requeue = false
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Requeue = false
		if p.DeadLetterOnMax || out.DeadLetter {
			out.DeadLetter = true
		}
	}
	if !out.Requeue && !out.DeadLetter {
		out.Requeue = true
	}
	return out
}

func (p RetryPolicy) nack(ctx context.Context, delivery queue.Delivery, attempt int, cause error) error {
	opts := p.NormalizeAttempt(queue.NackOptions{
		Delay:   p.RetryDelay,
		Requeue: true,
		Reason:  cause.Error(),
	}, attempt)
	if err := delivery.Nack(ctx, opts); err != nil {
		return fmt.Errorf("gojob: nack: %w", err)
	}
	return cause
}

// EventEnqueuer is a webhooks.EventHandler that defers event processing to a
// go-job worker. The Handler has already claimed the delivery, so the replay
// key doubles as the job idempotency key.
type EventEnqueuer struct {
	enqueuer queue.Enqueuer
}

func NewEventEnqueuer(enqueuer queue.Enqueuer) *EventEnqueuer {
	return &EventEnqueuer{enqueuer: enqueuer}
}

func (e *EventEnqueuer) HandleEvent(ctx context.Context, event core.InboundEvent) error {
	if e == nil || e.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	key, _ := webhooks.ReplayKeyFromContext(ctx)
	if err := e.enqueuer.Enqueue(ctx, EventMessage(event, key)); err != nil {
		return fmt.Errorf("gojob: enqueue %s: %w", JobIDWebhookEvent, err)
	}
	return nil
}

// EventMessage builds the execution message carrying one inbound event.
func EventMessage(event core.InboundEvent, idempotencyKey string) *job.ExecutionMessage {
	msg := &job.ExecutionMessage{
		JobID:          JobIDWebhookEvent,
		ScriptPath:     JobIDWebhookEvent,
		Parameters:     map[string]any{paramEvent: copyAnyMap(event.Data)},
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
	}
	if msg.IdempotencyKey != "" {
		msg.DedupPolicy = dedupDrop
	}
	return msg
}

// EventFromMessage recovers the inbound event from an execution message.
func EventFromMessage(msg *job.ExecutionMessage) (core.InboundEvent, error) {
	if msg == nil {
		return core.InboundEvent{}, fmt.Errorf("gojob: execution message is required")
	}
	if strings.TrimSpace(msg.JobID) != JobIDWebhookEvent {
		return core.InboundEvent{}, fmt.Errorf("gojob: unexpected job %q", msg.JobID)
	}
	data, ok := msg.Parameters[paramEvent].(map[string]any)
	if !ok {
		return core.InboundEvent{}, fmt.Errorf("gojob: %s message has no event payload", JobIDWebhookEvent)
	}
	return core.InboundEvent{Data: copyAnyMap(data)}, nil
}

// ReplayPurger drops elapsed replay claims. Both core.MemoryReplayLedger and
// the SQL replay ledger store implement it.
type ReplayPurger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// EnqueuePurge schedules one replay ledger purge. Purges enqueued within the
// same window share an idempotency key and collapse into one job.
func EnqueuePurge(ctx context.Context, enqueuer queue.Enqueuer, window time.Time) error {
	if enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	msg := &job.ExecutionMessage{
		JobID:      JobIDReplayPurge,
		ScriptPath: JobIDReplayPurge,
		Parameters: map[string]any{},
	}
	if !window.IsZero() {
		msg.IdempotencyKey = JobIDReplayPurge + ":" + window.UTC().Format(time.RFC3339)
		msg.DedupPolicy = dedupDrop
	}
	if err := enqueuer.Enqueue(ctx, msg); err != nil {
		return fmt.Errorf("gojob: enqueue %s: %w", JobIDReplayPurge, err)
	}
	return nil
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	return maps.Clone(in)
}

var _ webhooks.EventHandler = (*EventEnqueuer)(nil)
