package gojob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/simplyqio/simplyq-go/core"
	"github.com/simplyqio/simplyq-go/webhooks"
)

// Processor runs the jobs this package enqueues. A caller's worker loop
// dequeues a delivery and hands it to Process together with its attempt.
type Processor struct {
	Events webhooks.EventHandler
	Purger ReplayPurger
	Policy RetryPolicy
	Logger core.Logger
}

// Process executes one delivery, then acks it or nacks it through the retry
// policy. Malformed messages are dead-lettered since retrying cannot fix them.
func (p *Processor) Process(ctx context.Context, delivery queue.Delivery, attempt int) error {
	if p == nil {
		return fmt.Errorf("gojob: processor is not configured")
	}
	if delivery == nil {
		return fmt.Errorf("gojob: delivery is required")
	}
	msg := delivery.Message()
	if msg == nil {
		return p.deadLetter(ctx, delivery, fmt.Errorf("gojob: delivery has no message"))
	}

	var err error
	switch strings.TrimSpace(msg.JobID) {
	case JobIDWebhookEvent:
		var event core.InboundEvent
		event, err = EventFromMessage(msg)
		if err != nil {
			return p.deadLetter(ctx, delivery, err)
		}
		if p.Events == nil {
			return p.deadLetter(ctx, delivery, fmt.Errorf("gojob: no event handler for %s", msg.JobID))
		}
		if key := strings.TrimSpace(msg.IdempotencyKey); key != "" {
			ctx = webhooks.ContextWithReplayKey(ctx, key)
		}
		err = p.Events.HandleEvent(ctx, event)
	case JobIDReplayPurge:
		if p.Purger == nil {
			return p.deadLetter(ctx, delivery, fmt.Errorf("gojob: no replay purger for %s", msg.JobID))
		}
		var purged int
		purged, err = p.Purger.PurgeExpired(ctx)
		if err == nil {
			p.logger().Debug("replay claims purged", "count", purged)
		}
	default:
		return p.deadLetter(ctx, delivery, fmt.Errorf("gojob: unexpected job %q", msg.JobID))
	}

	if err != nil {
		p.logger().Warn("job failed", "job_id", msg.JobID, "attempt", attempt, "error", err)
		return p.Policy.nack(ctx, delivery, attempt, err)
	}
	if err := delivery.Ack(ctx); err != nil {
		return fmt.Errorf("gojob: ack %s: %w", msg.JobID, err)
	}
	return nil
}

func (p *Processor) deadLetter(ctx context.Context, delivery queue.Delivery, cause error) error {
	p.logger().Error("job dead-lettered", "error", cause)
	if err := delivery.Nack(ctx, queue.NackOptions{DeadLetter: true, Reason: cause.Error()}); err != nil {
		return fmt.Errorf("gojob: nack: %w", err)
	}
	return cause
}

func (p *Processor) logger() core.Logger {
	if p != nil && p.Logger != nil {
		return p.Logger
	}
	return glog.Nop()
}

// MetricsHook reports worker lifecycle events through a core.MetricsRecorder.
type MetricsHook struct {
	recorder core.MetricsRecorder
}

func NewMetricsHook(recorder core.MetricsRecorder) *MetricsHook {
	if recorder == nil {
		recorder = core.NopMetricsRecorder{}
	}
	return &MetricsHook{recorder: recorder}
}

func (h *MetricsHook) OnStart(context.Context, worker.Event) {}

func (h *MetricsHook) OnSuccess(ctx context.Context, event worker.Event) {
	h.record(ctx, event, "success")
}

func (h *MetricsHook) OnFailure(ctx context.Context, event worker.Event) {
	h.record(ctx, event, "failure")
}

func (h *MetricsHook) OnRetry(ctx context.Context, event worker.Event) {
	h.record(ctx, event, "retry")
}

func (h *MetricsHook) record(ctx context.Context, event worker.Event, status string) {
	if h == nil || h.recorder == nil {
		return
	}
	tags := map[string]string{
		"operation": jobID(event),
		"status":    status,
	}
	if event.Err != nil {
		if kind, ok := core.KindOf(event.Err); ok {
			tags["error_kind"] = string(kind)
		}
	}
	h.recorder.IncCounter(ctx, "simplyq.job.completed", 1, tags)
	if event.Duration > 0 {
		h.recorder.ObserveHistogram(ctx, "simplyq.job.duration_ms", float64(event.Duration)/float64(time.Millisecond), tags)
	}
}

func jobID(event worker.Event) string {
	msg := event.Message
	if msg == nil && event.Delivery != nil {
		msg = event.Delivery.Message()
	}
	if msg == nil {
		return ""
	}
	return strings.TrimSpace(msg.JobID)
}

var _ worker.Hook = (*MetricsHook)(nil)
