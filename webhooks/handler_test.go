package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/simplyqio/simplyq-go/core"
)

type recordingEventHandler struct {
	events []core.InboundEvent
	err    error
}

func (r *recordingEventHandler) HandleEvent(_ context.Context, event core.InboundEvent) error {
	r.events = append(r.events, event)
	return r.err
}

type failingLedger struct{}

func (failingLedger) Claim(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("ledger unavailable")
}

func newTestHandler(events EventHandler, ledger core.ReplayLedger) *Handler {
	handler := NewHandler(StaticSecret(testSecret), ledger, events)
	handler.Now = fixedClock(0)
	return handler
}

func postDelivery(t *testing.T, handler http.Handler, body string, headers http.Header) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/simplyq", strings.NewReader(body))
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var decoded map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, decoded
}

func TestHandler_AcceptsAndDedupesDelivery(t *testing.T) {
	events := &recordingEventHandler{}
	handler := newTestHandler(events, core.NewMemoryReplayLedger(0))

	rec, body := postDelivery(t, handler, testPayload, signedHeaders(testSignature))
	if rec.Code != http.StatusOK || body["accepted"] != true {
		t.Fatalf("expected accepted delivery, got %d %v", rec.Code, body)
	}
	if len(events.events) != 1 || events.events[0].String("message") != "Hello World!" {
		t.Fatalf("expected event to reach handler, got %#v", events.events)
	}

	rec, body = postDelivery(t, handler, testPayload, signedHeaders(testSignature))
	if rec.Code != http.StatusOK || body["deduped"] != true {
		t.Fatalf("expected deduped replay, got %d %v", rec.Code, body)
	}
	if len(events.events) != 1 {
		t.Fatalf("expected replay not to reach handler, got %d calls", len(events.events))
	}
}

func TestHandler_RejectsBadSignature(t *testing.T) {
	events := &recordingEventHandler{}
	handler := newTestHandler(events, core.NewMemoryReplayLedger(0))

	rec, body := postDelivery(t, handler, `{"message":"forged"}`, signedHeaders(testSignature))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body["error"] != msgNoMatchingSig {
		t.Fatalf("unexpected error body %v", body)
	}
	if len(events.events) != 0 {
		t.Fatalf("handler must not see rejected deliveries")
	}
}

func TestHandler_RejectsStaleDelivery(t *testing.T) {
	events := &recordingEventHandler{}
	handler := newTestHandler(events, nil)
	handler.Now = fixedClock(10 * time.Minute)

	rec, _ := postDelivery(t, handler, testPayload, signedHeaders(testSignature))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for stale delivery, got %d", rec.Code)
	}
}

func TestHandler_DecodeFailureIsBadRequest(t *testing.T) {
	now := time.Unix(testTimestamp, 0)
	payload := []byte("[]")
	handler := newTestHandler(&recordingEventHandler{}, nil)

	rec, _ := postDelivery(t, handler, string(payload), SignedHeaders(testSecret, now, payload))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_HandlerFailureReleasesClaim(t *testing.T) {
	events := &recordingEventHandler{err: errors.New("downstream unavailable")}
	ledger := core.NewMemoryReplayLedger(0)
	handler := newTestHandler(events, ledger)

	rec, body := postDelivery(t, handler, testPayload, signedHeaders(testSignature))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body["error"] != "internal error" {
		t.Fatalf("expected opaque error body, got %v", body)
	}
	if ledger.Len() != 0 {
		t.Fatalf("expected claim released after handler failure")
	}

	events.err = nil
	rec, body = postDelivery(t, handler, testPayload, signedHeaders(testSignature))
	if rec.Code != http.StatusOK || body["accepted"] != true {
		t.Fatalf("expected redelivery to be processed, got %d %v", rec.Code, body)
	}
	if len(events.events) != 2 {
		t.Fatalf("expected two handler calls, got %d", len(events.events))
	}
}

func TestHandler_LedgerFailureIsServerError(t *testing.T) {
	events := &recordingEventHandler{}
	handler := newTestHandler(events, failingLedger{})

	result, err := handler.Process(context.Background(), []byte(testPayload), signedHeaders(testSignature))
	if err == nil || result.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected ledger failure to surface, got %d %v", result.StatusCode, err)
	}
	if len(events.events) != 0 {
		t.Fatalf("handler must not run without a claim")
	}
}

func TestHandler_MethodAndBodyLimits(t *testing.T) {
	handler := newTestHandler(&recordingEventHandler{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/simplyq", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}

	handler.MaxBodyBytes = 8
	req = httptest.NewRequest(http.MethodPost, "/webhooks/simplyq", bytes.NewReader([]byte(testPayload)))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestHandler_RequiresConfiguration(t *testing.T) {
	handler := NewHandler(nil, nil, nil)
	result, err := handler.Process(context.Background(), []byte(testPayload), signedHeaders(testSignature))
	if !core.IsKind(err, core.KindUsageError) || result.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected usage error with 500, got %d %v", result.StatusCode, err)
	}

	handler = NewHandler(StaticSecret(" "), nil, &recordingEventHandler{})
	result, err = handler.Process(context.Background(), []byte(testPayload), signedHeaders(testSignature))
	if !core.IsKind(err, core.KindUsageError) || result.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected empty secret to be a usage error, got %d %v", result.StatusCode, err)
	}
}

func TestHandler_DedupesRewrittenSignatureHeader(t *testing.T) {
	events := &recordingEventHandler{}
	handler := newTestHandler(events, core.NewMemoryReplayLedger(0))

	for _, signature := range []string{
		testSignature,
		testSignature + ",x",
		" " + testSignature + " ,y",
		"z," + testSignature,
	} {
		result, err := handler.Process(context.Background(), []byte(testPayload), signedHeaders(signature))
		if err != nil || result.StatusCode != http.StatusOK {
			t.Fatalf("header %q: expected 200, got %d %v", signature, result.StatusCode, err)
		}
	}
	if len(events.events) != 1 {
		t.Fatalf("expected one handler call for one delivery, got %d", len(events.events))
	}
}

func TestHandler_PassesReplayKeyToEventHandler(t *testing.T) {
	var seen string
	handler := newTestHandler(EventHandlerFunc(func(ctx context.Context, _ core.InboundEvent) error {
		seen, _ = ReplayKeyFromContext(ctx)
		return nil
	}), nil)

	if _, err := handler.Process(context.Background(), []byte(testPayload), signedHeaders("bogus,"+testSignature)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if seen != ReplayKey(testTimestamp, testSignature) {
		t.Fatalf("unexpected replay key in context %q", seen)
	}
	if _, ok := ReplayKeyFromContext(context.Background()); ok {
		t.Fatalf("expected no replay key on a bare context")
	}
}

func TestReplayKey(t *testing.T) {
	if got := ReplayKey(testTimestamp, testSignature); got != "1667537928:"+testSignature {
		t.Fatalf("unexpected replay key %q", got)
	}
}

func TestHandler_StaticSecretKeepsSurroundingWhitespace(t *testing.T) {
	secret := " whsec_padded "
	events := &recordingEventHandler{}
	handler := NewHandler(StaticSecret(secret), nil, events)
	handler.Now = fixedClock(0)

	payload := []byte(testPayload)
	headers := SignedHeaders(secret, time.Unix(testTimestamp, 0), payload)
	if _, err := handler.Process(context.Background(), payload, headers); err != nil {
		t.Fatalf("expected delivery signed with the padded secret to verify, got %v", err)
	}
	trimmed := SignedHeaders("whsec_padded", time.Unix(testTimestamp, 0), payload)
	if _, err := handler.Process(context.Background(), payload, trimmed); !core.IsKind(err, core.KindSignatureVerification) {
		t.Fatalf("expected delivery signed with the trimmed secret to fail, got %v", err)
	}
}
