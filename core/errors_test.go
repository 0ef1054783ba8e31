package core

import (
	"context"
	"crypto/x509"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyResponse_StatusTable(t *testing.T) {
	cases := []struct {
		status int
		body   string
		kind   ErrorKind
	}{
		{status: 400, body: `{"error":"bad"}`, kind: KindInvalidRequest},
		{status: 404, body: `{"error":"missing"}`, kind: KindInvalidRequest},
		{status: 422, body: `{"error":"bad"}`, kind: KindInvalidRequest},
		{status: 400, body: `{"error":"replayed","type":"idempotency_error"}`, kind: KindIdempotencyError},
		{status: 401, body: `{"error":"no"}`, kind: KindAuthenticationError},
		{status: 402, body: `{"error":"pay"}`, kind: KindPaymentRequired},
		{status: 403, body: `{"error":"forbidden"}`, kind: KindPermissionError},
		{status: 429, body: `{"error":"slow down"}`, kind: KindRateLimitError},
		{status: 500, body: `{"error":"boom"}`, kind: KindAPIError},
		{status: 503, body: ``, kind: KindAPIError},
		{status: 409, body: `{"error":"conflict"}`, kind: KindAPIError},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d_%s", tc.status, tc.kind), func(t *testing.T) {
			got := ClassifyResponse(TransportResponse{StatusCode: tc.status, Body: []byte(tc.body)})
			if got.Kind != tc.kind {
				t.Fatalf("expected %s, got %s", tc.kind, got.Kind)
			}
			if got.HTTPStatus != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, got.HTTPStatus)
			}
		})
	}
}

func TestClassifyResponse_UnprocessableCarriesFieldErrors(t *testing.T) {
	body := `{"error":"Invalid request","errors":[{"field":"uid","error":"already exists"}]}`
	got := ClassifyResponse(TransportResponse{StatusCode: 422, Body: []byte(body)})
	if got.Kind != KindInvalidRequest {
		t.Fatalf("expected invalid_request, got %s", got.Kind)
	}
	if got.Message != "Invalid request" {
		t.Fatalf("unexpected message %q", got.Message)
	}
	if len(got.Errors) != 1 {
		t.Fatalf("expected one field error, got %#v", got.Errors)
	}
	item, ok := got.Errors[0].(map[string]any)
	if !ok || item["field"] != "uid" || item["error"] != "already exists" {
		t.Fatalf("expected errors verbatim, got %#v", got.Errors[0])
	}
	fields := got.FieldErrors()
	if len(fields) != 1 || fields[0].Field != "uid" || fields[0].Message != "already exists" {
		t.Fatalf("unexpected field errors %#v", fields)
	}
}

func TestClassifyResponse_ErrorsWithoutMessageUsesFixedText(t *testing.T) {
	got := ClassifyResponse(TransportResponse{StatusCode: 400, Body: []byte(`{"errors":[{"field":"name"}]}`)})
	if got.Message != "Invalid request" {
		t.Fatalf("expected fixed message, got %q", got.Message)
	}
}

func TestClassifyResponse_NullErrorsFallsBackToReason(t *testing.T) {
	for _, body := range []string{`{"errors":null}`, `{"errors":false}`} {
		got := ClassifyResponse(TransportResponse{StatusCode: 422, Body: []byte(body)})
		if got.Message != "Unprocessable Entity" {
			t.Fatalf("body %s: expected reason phrase, got %q", body, got.Message)
		}
		if got.Kind != KindInvalidRequest {
			t.Fatalf("body %s: expected invalid_request, got %s", body, got.Kind)
		}
	}
}

func TestClassifyResponse_MessageKeyUsedWhenErrorMissing(t *testing.T) {
	got := ClassifyResponse(TransportResponse{StatusCode: 403, Body: []byte(`{"message":"nope","code":1042}`)})
	if got.Message != "nope" {
		t.Fatalf("expected message key, got %q", got.Message)
	}
	if got.Code != "1042" {
		t.Fatalf("expected numeric code preserved, got %q", got.Code)
	}
}

func TestClassifyResponse_UnparseableBodyFallsBackToReason(t *testing.T) {
	got := ClassifyResponse(TransportResponse{StatusCode: 401, Reason: "Unauthorized", Body: []byte("<html>nope</html>")})
	if got.Kind != KindAuthenticationError {
		t.Fatalf("expected authentication_error, got %s", got.Kind)
	}
	if got.Message != "Unauthorized" {
		t.Fatalf("expected reason phrase, got %q", got.Message)
	}

	got = ClassifyResponse(TransportResponse{StatusCode: 502})
	if got.Message != http.StatusText(502) {
		t.Fatalf("expected status text fallback, got %q", got.Message)
	}
}

func TestClassifyResponse_StatusZeroIsConnectionFailure(t *testing.T) {
	got := ClassifyResponse(TransportResponse{StatusCode: 0, Reason: "Couldn't resolve host"})
	if got.Kind != KindConnectionFailed {
		t.Fatalf("expected connection_failed, got %s", got.Kind)
	}
	if got.Message != "Couldn't resolve host" {
		t.Fatalf("expected reason message, got %q", got.Message)
	}
	if !got.Retryable() {
		t.Fatalf("expected connection failure to be retryable")
	}
}

func TestClassifyResponse_RequestIDAndParam(t *testing.T) {
	got := ClassifyResponse(TransportResponse{
		StatusCode: 400,
		Headers:    map[string]string{"Request-Id": "req_42"},
		Body:       []byte(`{"error":"bad url","param":"url"}`),
	})
	if got.RequestID != "req_42" {
		t.Fatalf("expected request id from header, got %q", got.RequestID)
	}
	if got.Param != "url" {
		t.Fatalf("expected param, got %q", got.Param)
	}
	if got.Error() != "(Status 400) (Request req_42) bad url" {
		t.Fatalf("unexpected error string %q", got.Error())
	}
}

func TestClassifyNetworkError_Kinds(t *testing.T) {
	base := "https://api.simplyq.test"
	dialTimeout := &net.OpError{Op: "dial", Net: "tcp", Err: timeoutError{}}
	readTimeout := &net.OpError{Op: "read", Net: "tcp", Err: timeoutError{}}
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
	reset := &net.OpError{Op: "read", Net: "tcp", Err: os.NewSyscallError("read", syscall.ECONNRESET)}

	cases := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{name: "dns", err: &url.Error{Op: "Get", URL: base, Err: &net.DNSError{Err: "no such host", Name: "api.simplyq.test"}}, kind: KindConnectionFailed},
		{name: "refused", err: &url.Error{Op: "Get", URL: base, Err: refused}, kind: KindConnectionFailed},
		{name: "reset", err: reset, kind: KindConnectionFailed},
		{name: "eof", err: &url.Error{Op: "Post", URL: base, Err: io.EOF}, kind: KindConnectionFailed},
		{name: "dial_timeout", err: &url.Error{Op: "Get", URL: base, Err: dialTimeout}, kind: KindConnectTimeout},
		{name: "read_timeout", err: readTimeout, kind: KindReadTimeout},
		{name: "deadline", err: context.DeadlineExceeded, kind: KindReadTimeout},
		{name: "tls", err: &url.Error{Op: "Get", URL: base, Err: x509.UnknownAuthorityError{}}, kind: KindTLSError},
		{name: "unknown", err: stderrors.New("something odd"), kind: KindUnknownNetworkError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyNetworkError(tc.err, base)
			if got.Kind != tc.kind {
				t.Fatalf("expected %s, got %s", tc.kind, got.Kind)
			}
			if got.HTTPStatus != 0 {
				t.Fatalf("expected status 0, got %d", got.HTTPStatus)
			}
			if !got.Retryable() {
				t.Fatalf("expected %s to be retryable", tc.kind)
			}
			if !strings.HasSuffix(got.Message, "\n\n(Network error: "+tc.err.Error()+")") {
				t.Fatalf("expected original message appended, got %q", got.Message)
			}
			if !stderrors.Is(got, tc.err) {
				t.Fatalf("expected cause to be preserved")
			}
		})
	}
}

func TestClassifyNetworkError_TemplatesUseBaseURL(t *testing.T) {
	got := ClassifyNetworkError(&net.DNSError{Err: "no such host", Name: "api.simplyq.test"}, "https://api.simplyq.test")
	if !strings.Contains(got.Message, "(https://api.simplyq.test)") {
		t.Fatalf("expected base url in message, got %q", got.Message)
	}
	if !strings.Contains(got.Message, "host api.simplyq.test") {
		t.Fatalf("expected host hint in message, got %q", got.Message)
	}

	unknown := ClassifyNetworkError(stderrors.New("odd"), "https://api.simplyq.test")
	if !strings.HasPrefix(unknown.Message, "Unexpected error *errors.errorString communicating with SimplyQ.") {
		t.Fatalf("unexpected unknown message %q", unknown.Message)
	}
}

func TestClassifyNetworkError_PassesThroughTypedErrors(t *testing.T) {
	typed := &Error{Kind: KindUsageError, Message: "bad"}
	if got := ClassifyNetworkError(fmt.Errorf("wrapped: %w", typed), ""); got != typed {
		t.Fatalf("expected typed error to pass through")
	}
	if ClassifyNetworkError(nil, "") != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestErrorKind_Retryable(t *testing.T) {
	retryable := map[ErrorKind]bool{
		KindConnectionFailed:    true,
		KindConnectTimeout:      true,
		KindReadTimeout:         true,
		KindTLSError:            true,
		KindUnknownNetworkError: true,
		KindRateLimitError:      true,
	}
	for _, kind := range ErrorKinds() {
		if kind.Retryable() != retryable[kind] {
			t.Fatalf("unexpected retryable=%v for %s", kind.Retryable(), kind)
		}
	}
}

func TestError_StringOmitsMissingSegments(t *testing.T) {
	err := &Error{Kind: KindUsageError, Message: "No API key provided."}
	if err.Error() != "No API key provided." {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestError_KindHelpersAndErrorsIs(t *testing.T) {
	err := fmt.Errorf("outer: %w", &Error{Kind: KindRateLimitError, Message: "slow"})
	if !IsKind(err, KindRateLimitError) {
		t.Fatalf("expected rate_limit_error kind")
	}
	if !IsRetryable(err) {
		t.Fatalf("expected retryable")
	}
	if !stderrors.Is(err, &Error{Kind: KindRateLimitError}) {
		t.Fatalf("expected errors.Is to match by kind")
	}
	if _, ok := KindOf(stderrors.New("plain")); ok {
		t.Fatalf("expected no kind for plain error")
	}
}

func TestError_ToServiceErrorEnvelope(t *testing.T) {
	err := &Error{
		Kind:       KindInvalidRequest,
		Message:    "Invalid request",
		HTTPStatus: 422,
		RequestID:  "req_1",
		Errors:     []any{map[string]any{"field": "uid", "error": "already exists"}},
	}
	rich := err.ToServiceError()
	if rich.Code != 422 {
		t.Fatalf("expected http code 422, got %d", rich.Code)
	}
	if rich.TextCode != ErrorCodeInvalidRequest {
		t.Fatalf("expected %q, got %q", ErrorCodeInvalidRequest, rich.TextCode)
	}
	if rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", rich.Category)
	}
	if len(rich.AllValidationErrors()) != 1 {
		t.Fatalf("expected field errors on envelope")
	}
	if rich.Metadata["request_id"] != "req_1" {
		t.Fatalf("expected request id metadata, got %#v", rich.Metadata)
	}

	network := (&Error{Kind: KindReadTimeout, Message: "timed out"}).ToServiceError()
	if network.Category != goerrors.CategoryExternal || network.Code != http.StatusBadGateway {
		t.Fatalf("unexpected network envelope %q/%d", network.Category, network.Code)
	}
}

func TestMapServiceError_PlainErrorsGetEnvelope(t *testing.T) {
	mapped := MapServiceError(stderrors.New("boom"))
	if mapped == nil || mapped.Code == 0 || mapped.TextCode == "" {
		t.Fatalf("expected populated envelope, got %#v", mapped)
	}
	if MapServiceError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
