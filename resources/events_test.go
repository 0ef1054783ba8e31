package resources

import (
	"context"
	"net/http"
	"testing"

	"github.com/simplyqio/simplyq-go/core"
)

func TestEventAPI_CreateGeneratesIdempotencyKey(t *testing.T) {
	api, server := newFakeAPI(t)
	api.handle(http.MethodPost, "/v1/application/app_1/event", http.StatusCreated,
		`{"uid":"evt_1","event_type":"order.created","payload":{"id":42}}`)
	events := NewEventAPI(newTestCaller(t, server))
	events.NewIdempotencyKey = func() string { return "generated-key" }

	event := core.Event{EventType: "order.created", Payload: map[string]any{"id": 42}}
	created, err := events.Create(context.Background(), "app_1", event, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.UID != "evt_1" {
		t.Fatalf("unexpected event %#v", created)
	}
	if got := api.last(t).Headers.Get("Idempotency-Key"); got != "generated-key" {
		t.Fatalf("expected generated idempotency key, got %q", got)
	}

	if _, err := events.Create(context.Background(), "app_1", event, "caller-key"); err != nil {
		t.Fatalf("create with key: %v", err)
	}
	if got := api.last(t).Headers.Get("Idempotency-Key"); got != "caller-key" {
		t.Fatalf("expected caller idempotency key, got %q", got)
	}
}

func TestEventAPI_DefaultIdempotencyKeyIsUUID(t *testing.T) {
	api, server := newFakeAPI(t)
	api.handle(http.MethodPost, "/v1/application/app_1/event", http.StatusCreated, `{"uid":"evt_1","event_type":"a"}`)
	events := NewEventAPI(newTestCaller(t, server))

	if _, err := events.Create(context.Background(), "app_1", core.Event{EventType: "a"}, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := api.last(t).Headers.Get("Idempotency-Key"); len(got) != 36 {
		t.Fatalf("expected uuid idempotency key, got %q", got)
	}
}

func TestEventAPI_CreateValidatesEvent(t *testing.T) {
	api, server := newFakeAPI(t)
	events := NewEventAPI(newTestCaller(t, server))

	for _, event := range []core.Event{
		{},
		{EventType: "order created"},
		{EventType: "order.created", RetentionPeriod: core.IntPtr(4)},
		{EventType: "order.created", RetentionPeriod: core.IntPtr(91)},
	} {
		if _, err := events.Create(context.Background(), "app_1", event, ""); !core.IsKind(err, core.KindUsageError) {
			t.Fatalf("event %#v: expected usage error, got %v", event, err)
		}
	}
	if api.count() != 0 {
		t.Fatalf("invalid events must not be sent")
	}
}

func TestEventAPI_RetrieveAndList(t *testing.T) {
	api, server := newFakeAPI(t)
	api.handle(http.MethodGet, "/v1/application/app_1/event/evt_1", http.StatusOK,
		`{"uid":"evt_1","event_type":"order.created","created_at":"2026-01-02T03:04:05Z"}`)
	api.handle(http.MethodGet, "/v1/application/app_1/event", http.StatusOK,
		`{"data":[{"uid":"evt_1","event_type":"order.created"},{"uid":"evt_2","event_type":"order.paid"}],"has_more":false}`)
	events := NewEventAPI(newTestCaller(t, server))

	event, err := events.Retrieve(context.Background(), "app_1", "evt_1")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if event.EventType != "order.created" || event.CreatedAt.Year() != 2026 {
		t.Fatalf("unexpected event %#v", event)
	}

	page, err := events.List(context.Background(), "app_1", nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Len() != 2 || page.HasMore() {
		t.Fatalf("unexpected page len=%d has_more=%v", page.Len(), page.HasMore())
	}
	prev, err := page.PrevPage(context.Background())
	if err != nil || prev == nil {
		t.Fatalf("expected prev page fetch, got %v / %v", prev, err)
	}
	if api.last(t).Query["ending_before"] != "evt_1" {
		t.Fatalf("expected ending_before=evt_1, got %#v", api.last(t).Query)
	}
}

func TestEventAPI_ListDeliveryAttempts(t *testing.T) {
	api, server := newFakeAPI(t)
	api.handle(http.MethodGet, "/v1/application/app_1/event/evt_1/delivery_attempt", http.StatusOK, `{
		"data":[
			{"id":"att_1","event_id":"evt_1","endpoint_id":"ep_1","status":"success","response_status_code":200,"attempted_at":"2026-01-02T03:04:05+02:00"},
			{"id":"att_2","event_id":"evt_1","endpoint_id":"ep_2","status":"pending","attempted_at":null}
		],
		"has_more":true
	}`)
	events := NewEventAPI(newTestCaller(t, server))

	page, err := events.ListDeliveryAttempts(context.Background(), "app_1", "evt_1", map[string]string{"limit": "2"})
	if err != nil {
		t.Fatalf("list delivery attempts: %v", err)
	}
	items := page.Items()
	if len(items) != 2 {
		t.Fatalf("expected two attempts, got %d", len(items))
	}
	if items[0].Pending() || items[0].AttemptedAt.Hour() != 1 {
		t.Fatalf("unexpected first attempt %#v", items[0])
	}
	if !items[1].Pending() || items[1].AttemptedAt != nil {
		t.Fatalf("expected pending attempt without timestamp, got %#v", items[1])
	}

	if _, err := page.NextPage(context.Background()); err != nil {
		t.Fatalf("next page: %v", err)
	}
	req := api.last(t)
	if req.Path != "/v1/application/app_1/event/evt_1/delivery_attempt" || req.Query["start_after"] != "att_2" {
		t.Fatalf("expected next page bound to the same event, got %s %#v", req.Path, req.Query)
	}
}
