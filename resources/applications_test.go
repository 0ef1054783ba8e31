package resources

import (
	"context"
	"net/http"
	"testing"

	"github.com/simplyqio/simplyq-go/core"
)

func TestApplicationAPI_CreateSendsValidatedModel(t *testing.T) {
	api, server := newFakeAPI(t)
	api.handle(http.MethodPost, "/v1/application", http.StatusCreated,
		`{"uid":"app_1","name":"Billing","rate_limit":10,"created_at":"2026-03-01T12:00:00+01:00"}`)
	apps := NewApplicationAPI(newTestCaller(t, server))

	created, err := apps.Create(context.Background(), core.Application{
		UID:       "app_1",
		Name:      "Billing",
		RateLimit: core.IntPtr(10),
		RetryStrategy: &core.RetryStrategy{
			Type:       core.RetryStrategyFixedWait,
			MaxRetries: core.IntPtr(3),
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.UID != "app_1" || created.CreatedAt.Hour() != 11 {
		t.Fatalf("unexpected application %#v", created)
	}

	req := api.last(t)
	if req.Headers.Get("Authorization") != "Bearer sk_test_123" {
		t.Fatalf("expected auth header, got %q", req.Headers.Get("Authorization"))
	}
	if req.Body["name"] != "Billing" {
		t.Fatalf("unexpected body %#v", req.Body)
	}
	strategy, _ := req.Body["retry_strategy"].(map[string]any)
	if strategy["type"] != core.RetryStrategyFixedWait {
		t.Fatalf("expected retry strategy in body, got %#v", req.Body)
	}
	if _, ok := req.Body["created_at"]; ok {
		t.Fatalf("zero timestamps must not be sent, got %#v", req.Body)
	}
}

func TestApplicationAPI_CreateRejectsInvalidModel(t *testing.T) {
	api, server := newFakeAPI(t)
	apps := NewApplicationAPI(newTestCaller(t, server))

	_, err := apps.Create(context.Background(), core.Application{UID: "bad id!", Name: "x"})
	typed, ok := err.(*core.Error)
	if !ok || typed.Kind != core.KindUsageError {
		t.Fatalf("expected usage error, got %v", err)
	}
	if typed.Param != "uid" {
		t.Fatalf("expected uid param, got %q (%s)", typed.Param, typed.Message)
	}
	if api.count() != 0 {
		t.Fatalf("invalid models must not be sent")
	}
}

func TestApplicationAPI_RetrieveEscapesID(t *testing.T) {
	api, server := newFakeAPI(t)
	api.handle(http.MethodGet, "/v1/application/app 1", http.StatusOK, `{"uid":"app 1","name":"Spaced"}`)
	apps := NewApplicationAPI(newTestCaller(t, server))

	app, err := apps.Retrieve(context.Background(), "app 1")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if app.Name != "Spaced" {
		t.Fatalf("unexpected application %#v", app)
	}
	if got := api.last(t).RawPath; got != "/v1/application/app%201" {
		t.Fatalf("expected escaped path, got %q", got)
	}
}

func TestApplicationAPI_ErrorsAreClassified(t *testing.T) {
	api, server := newFakeAPI(t)
	api.handle(http.MethodGet, "/v1/application/app_1", http.StatusUnauthorized, `{"error":"Invalid API key"}`)
	apps := NewApplicationAPI(newTestCaller(t, server))

	_, err := apps.Retrieve(context.Background(), "app_1")
	typed, ok := err.(*core.Error)
	if !ok || typed.Kind != core.KindAuthenticationError {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if typed.HTTPStatus != http.StatusUnauthorized || typed.Message != "Invalid API key" {
		t.Fatalf("unexpected error %#v", typed)
	}
}

func TestApplicationAPI_ListPagesForward(t *testing.T) {
	api, server := newFakeAPI(t)
	apps := NewApplicationAPI(newTestCaller(t, server))

	api.handle(http.MethodGet, "/v1/application", http.StatusOK,
		`{"data":[{"uid":"app_1","name":"One"},{"uid":"app_2","name":"Two"}],"has_more":true}`)
	page, err := apps.List(context.Background(), map[string]string{"limit": "2"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Len() != 2 || !page.HasMore() {
		t.Fatalf("unexpected first page len=%d has_more=%v", page.Len(), page.HasMore())
	}
	if api.last(t).Query["limit"] != "2" {
		t.Fatalf("expected limit query")
	}

	api.handle(http.MethodGet, "/v1/application", http.StatusOK, `{"data":[{"uid":"app_3","name":"Three"}],"has_more":false}`)
	next, err := page.NextPage(context.Background())
	if err != nil {
		t.Fatalf("next page: %v", err)
	}
	query := api.last(t).Query
	if query["start_after"] != "app_2" || query["limit"] != "2" {
		t.Fatalf("expected cursor from last item with limit preserved, got %#v", query)
	}
	if first, _ := next.First(); first.UID != "app_3" {
		t.Fatalf("unexpected next page item %#v", first)
	}

	if _, err := next.PrevPage(context.Background()); err != nil {
		t.Fatalf("prev page: %v", err)
	}
	query = api.last(t).Query
	if query["ending_before"] != "app_3" {
		t.Fatalf("expected ending_before from first item, got %#v", query)
	}
	if _, ok := query["start_after"]; ok {
		t.Fatalf("expected start_after dropped, got %#v", query)
	}
}

func TestApplicationAPI_UpdateAndDelete(t *testing.T) {
	api, server := newFakeAPI(t)
	api.handle(http.MethodPut, "/v1/application/app_1", http.StatusOK, `{"uid":"app_1","name":"Renamed"}`)
	api.handle(http.MethodDelete, "/v1/application/app_1", http.StatusNoContent, ``)
	apps := NewApplicationAPI(newTestCaller(t, server))

	updated, err := apps.Update(context.Background(), "app_1", core.Application{Name: "Renamed"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Renamed" || api.last(t).Method != http.MethodPut {
		t.Fatalf("unexpected update %#v", updated)
	}

	deleted, err := apps.Delete(context.Background(), "app_1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Fatalf("expected 204 to report deletion")
	}
}

func TestApplicationAPI_DeleteReportsFalseForOtherSuccess(t *testing.T) {
	api, server := newFakeAPI(t)
	api.handle(http.MethodDelete, "/v1/application/app_1", http.StatusOK, `{}`)
	apps := NewApplicationAPI(newTestCaller(t, server))

	deleted, err := apps.Delete(context.Background(), "app_1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted {
		t.Fatalf("expected only 204 and 202 to report deletion")
	}
}
