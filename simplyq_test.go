package simplyq

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gocmd "github.com/goliatone/go-command"
	"github.com/simplyqio/simplyq-go/command"
	"github.com/simplyqio/simplyq-go/core"
	"github.com/simplyqio/simplyq-go/query"
	"github.com/simplyqio/simplyq-go/webhooks"
)

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer sk_test_123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"Invalid API key"}`)
			return
		}
		switch r.Method + " " + r.URL.Path {
		case "GET /v1/application/app_1":
			_, _ = io.WriteString(w, `{"uid":"app_1","name":"Billing"}`)
		case "GET /v1/application/app_1/endpoint":
			_, _ = io.WriteString(w, `{"data":[{"uid":"ep_1","url":"https://example.com/hook"}],"has_more":false}`)
		case "DELETE /v1/application/app_1":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"Not found"}`)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.APIKey = "sk_test_123"
	cfg.BaseURL = server.URL
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClient_UsesDefaultRESTTransport(t *testing.T) {
	server := newTestAPI(t)
	client := newTestClient(t, server)

	app, err := client.Applications.Retrieve(context.Background(), "app_1")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if app.Name != "Billing" {
		t.Fatalf("unexpected application %#v", app)
	}
	if kind := client.Core().Dependencies().Transport.Kind(); kind != "rest" {
		t.Fatalf("expected rest transport, got %q", kind)
	}

	page, err := client.Endpoints.List(context.Background(), "app_1", nil)
	if err != nil {
		t.Fatalf("list endpoints: %v", err)
	}
	if page.Len() != 1 || page.HasMore() {
		t.Fatalf("unexpected endpoint page len=%d has_more=%v", page.Len(), page.HasMore())
	}
}

func TestNew_RequiresAPIKeyOnCall(t *testing.T) {
	client, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if client.Config().BaseURL != core.DefaultBaseURL {
		t.Fatalf("expected default base url, got %q", client.Config().BaseURL)
	}
	_, err = client.Events.Retrieve(context.Background(), "app_1", "evt_1")
	if !IsKind(err, KindAuthenticationError) {
		t.Fatalf("expected authentication error without api key, got %v", err)
	}
}

func TestClient_CommandsAndQueriesShareResources(t *testing.T) {
	server := newTestAPI(t)
	client := newTestClient(t, server)

	app, err := client.Queries().RetrieveApplication.Query(context.Background(), query.RetrieveApplicationMessage{AppID: "app_1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if app.UID != "app_1" {
		t.Fatalf("unexpected application %#v", app)
	}

	collector := gocmd.NewResult[bool]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	if err := client.Commands().DeleteApplication.Execute(ctx, command.DeleteApplicationMessage{AppID: "app_1"}); err != nil {
		t.Fatalf("delete command: %v", err)
	}
	if deleted, ok := collector.Load(); !ok || !deleted {
		t.Fatalf("expected delete result true, got %v (stored=%v)", deleted, ok)
	}
}

func TestClient_WebhookHandlerUsesConfiguredTolerance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "sk_test_123"
	cfg.Webhook.Tolerance = time.Minute
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	var received InboundEvent
	handler := client.WebhookHandler("whsec_test", core.NewMemoryReplayLedger(0), webhooks.EventHandlerFunc(
		func(_ context.Context, event InboundEvent) error {
			received = event
			return nil
		},
	))
	if handler.Tolerance != time.Minute {
		t.Fatalf("expected tolerance from config, got %s", handler.Tolerance)
	}

	payload := []byte(`{"event_type":"invoice.paid"}`)
	headers := webhooks.SignedHeaders("whsec_test", time.Now().Add(-30*time.Second), payload)
	req := httptest.NewRequest(http.MethodPost, "/webhooks", strings.NewReader(string(payload)))
	for key, values := range headers {
		req.Header[key] = values
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if received.String("event_type") != "invoice.paid" {
		t.Fatalf("unexpected event %#v", received)
	}

	stale := webhooks.SignedHeaders("whsec_test", time.Now().Add(-2*time.Minute), payload)
	if _, err := ConstructEvent(payload, stale, "whsec_test", time.Minute); !IsKind(err, KindSignatureVerification) {
		t.Fatalf("expected signature error outside configured tolerance, got %v", err)
	}
	if _, err := ConstructEvent(payload, stale, "whsec_test", 0); err != nil {
		t.Fatalf("expected default tolerance to accept delivery, got %v", err)
	}
}

func TestGetMigrationsFS_ContainsBothDialects(t *testing.T) {
	fsys := GetMigrationsFS()
	for _, path := range []string{
		"data/sql/migrations/00001_webhook_replay_claims.up.sql",
		"data/sql/migrations/sqlite/00001_webhook_replay_claims.up.sql",
	} {
		file, err := fsys.Open(path)
		if err != nil {
			t.Fatalf("open %s: %v", path, err)
		}
		_ = file.Close()
	}
}
