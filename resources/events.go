package resources

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/simplyqio/simplyq-go/core"
)

type EventAPI struct {
	caller core.Caller
	// NewIdempotencyKey generates the Idempotency-Key for Create when the
	// caller does not supply one.
	NewIdempotencyKey func() string
}

func NewEventAPI(caller core.Caller) *EventAPI {
	return &EventAPI{caller: caller, NewIdempotencyKey: uuid.NewString}
}

func (a *EventAPI) Retrieve(ctx context.Context, appID string, eventID string) (core.Event, error) {
	ids, err := requireIDs("application id", appID, "event id", eventID)
	if err != nil {
		return core.Event{}, err
	}
	return retrieve[core.Event](ctx, a.caller, core.APIRequest{
		Operation: "retrieve_event",
		Method:    http.MethodGet,
		Path:      fmt.Sprintf(eventPath, ids...),
	})
}

func (a *EventAPI) List(ctx context.Context, appID string, filters map[string]string) (*core.Page[core.Event], error) {
	ids, err := requireIDs("application id", appID)
	if err != nil {
		return nil, err
	}
	fetch := func(ctx context.Context, filters map[string]string) (*core.Page[core.Event], error) {
		return a.List(ctx, appID, filters)
	}
	return list(ctx, a.caller, core.APIRequest{
		Operation: "list_events",
		Path:      fmt.Sprintf(eventsPath, ids...),
	}, filters, fetch)
}

// Create publishes an event. Retrying with the same idempotencyKey is safe;
// pass "" to have one generated.
func (a *EventAPI) Create(ctx context.Context, appID string, event core.Event, idempotencyKey string) (core.Event, error) {
	ids, err := requireIDs("application id", appID)
	if err != nil {
		return core.Event{}, err
	}
	if err := core.ValidateModel("event", event); err != nil {
		return core.Event{}, err
	}
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey == "" {
		idempotencyKey = a.idempotencyKey()
	}
	return retrieve[core.Event](ctx, a.caller, core.APIRequest{
		Operation:      "create_event",
		Method:         http.MethodPost,
		Path:           fmt.Sprintf(eventsPath, ids...),
		Body:           event,
		IdempotencyKey: idempotencyKey,
	})
}

func (a *EventAPI) ListDeliveryAttempts(
	ctx context.Context,
	appID string,
	eventID string,
	filters map[string]string,
) (*core.Page[core.DeliveryAttempt], error) {
	ids, err := requireIDs("application id", appID, "event id", eventID)
	if err != nil {
		return nil, err
	}
	fetch := func(ctx context.Context, filters map[string]string) (*core.Page[core.DeliveryAttempt], error) {
		return a.ListDeliveryAttempts(ctx, appID, eventID, filters)
	}
	return list(ctx, a.caller, core.APIRequest{
		Operation: "list_delivery_attempts",
		Path:      fmt.Sprintf(deliveryAttemptsPath, ids...),
	}, filters, fetch)
}

func (a *EventAPI) idempotencyKey() string {
	if a.NewIdempotencyKey != nil {
		return a.NewIdempotencyKey()
	}
	return uuid.NewString()
}
