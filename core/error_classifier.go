package core

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
)

const (
	networkConnectionTemplate = "Unexpected error communicating when trying to connect to SimplyQ (%s). " +
		"You may be seeing this message because your DNS is not working or you don't have an internet connection.  " +
		"To check, try running `host %s` from the command line."
	networkTLSTemplate = "Could not establish a secure connection to SimplyQ (%s), you may need to upgrade your TLS stack. " +
		"To check, try running `openssl s_client -connect %s:443` from the command line."
	networkTimeoutSuffix = "Please check your internet connection and try again. " +
		"If this problem persists, you should check SimplyQ's service status at https://simplyq.statuspage.io, " +
		"or let us know at support@simplyq.io."
	networkConnectTimeoutTemplate = "Timed out connecting to SimplyQ (%s). "
	networkReadTimeoutTemplate    = "Timed out communicating with SimplyQ (%s). "
	networkUnknownTemplate        = "Unexpected error %s communicating with SimplyQ. Please let us know at support@simplyq.io."

	RequestIDHeader = "request-id"
)

// ClassifyNetworkError maps a transport-level failure (no HTTP response was
// received) into a connection-class Error. The original error is kept as the
// cause so errors.Is still sees context cancellation and syscall errors.
func ClassifyNetworkError(err error, baseURL string) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) && existing != nil {
		return existing
	}

	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	host := hostOf(base)

	kind := classifyNetworkKind(err)
	var message string
	switch kind {
	case KindTLSError:
		message = fmt.Sprintf(networkTLSTemplate, base, host)
	case KindConnectTimeout:
		message = fmt.Sprintf(networkConnectTimeoutTemplate, base) + networkTimeoutSuffix
	case KindReadTimeout:
		message = fmt.Sprintf(networkReadTimeoutTemplate, base) + networkTimeoutSuffix
	case KindConnectionFailed:
		message = fmt.Sprintf(networkConnectionTemplate, base, host)
	default:
		message = fmt.Sprintf(networkUnknownTemplate, errorClassName(err))
	}
	message += "\n\n(Network error: " + err.Error() + ")"

	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   err,
	}
}

func classifyNetworkKind(err error) ErrorKind {
	if isTLSError(err) {
		return KindTLSError
	}

	var opErr *net.OpError
	hasOpErr := errors.As(err, &opErr) && opErr != nil

	if errors.Is(err, syscall.ETIMEDOUT) {
		return KindConnectTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		if hasOpErr && opErr.Op == "dial" {
			return KindConnectTimeout
		}
		return KindReadTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindReadTimeout
	}

	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &dnsErr):
		return KindConnectionFailed
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.EPIPE):
		return KindConnectionFailed
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return KindConnectionFailed
	case hasOpErr:
		return KindConnectionFailed
	}
	return KindUnknownNetworkError
}

func isTLSError(err error) bool {
	var recordErr tls.RecordHeaderError
	var recordErrPtr *tls.RecordHeaderError
	var verifyErr *tls.CertificateVerificationError
	var alertErr tls.AlertError
	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var invalidCert x509.CertificateInvalidError
	switch {
	case errors.As(err, &recordErr), errors.As(err, &recordErrPtr):
		return true
	case errors.As(err, &verifyErr), errors.As(err, &alertErr):
		return true
	case errors.As(err, &unknownAuthority), errors.As(err, &hostnameErr), errors.As(err, &invalidCert):
		return true
	}
	return false
}

// errorClassName names the concrete type of the innermost error, for the
// unknown-network message.
func errorClassName(err error) string {
	return fmt.Sprintf("%T", rootCause(err))
}

func rootCause(err error) error {
	for {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil && urlErr.Err != err {
			err = urlErr.Err
			continue
		}
		return err
	}
}

func hostOf(base string) string {
	parsed, err := url.Parse(base)
	if err != nil || parsed.Hostname() == "" {
		return strings.TrimPrefix(strings.TrimPrefix(base, "https://"), "http://")
	}
	return parsed.Hostname()
}

// ClassifyResponse maps a non-success HTTP response into an Error. A status of
// zero means the transport returned no status line and is reported as
// connection_failed.
func ClassifyResponse(res TransportResponse) *Error {
	headers := cloneHeaders(res.Headers)
	requestID := headerLookup(headers, RequestIDHeader)

	if res.StatusCode == 0 {
		message := strings.TrimSpace(res.Reason)
		if message == "" {
			message = "Connection failed"
		}
		return &Error{
			Kind:        KindConnectionFailed,
			Message:     message,
			HTTPBody:    res.Body,
			HTTPHeaders: headers,
			RequestID:   requestID,
		}
	}

	data := parseErrorBody(res.Body)
	message := errorBodyMessage(data)
	if message == "" {
		message = reasonPhrase(res)
	}

	out := &Error{
		Kind:        kindForStatus(res.StatusCode, data),
		Message:     message,
		HTTPStatus:  res.StatusCode,
		HTTPBody:    res.Body,
		HTTPHeaders: headers,
		RequestID:   requestID,
	}
	if data != nil {
		if code, ok := data["code"]; ok && code != nil {
			out.Code = fmt.Sprint(code)
		}
		if list, ok := data["errors"].([]any); ok {
			out.Errors = list
		}
		if out.Kind.IsInvalidRequest() {
			if param, ok := data["param"]; ok && param != nil {
				out.Param = fmt.Sprint(param)
			}
		}
	}
	return out
}

func kindForStatus(status int, data map[string]any) ErrorKind {
	switch status {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		if data != nil {
			if typ, _ := data["type"].(string); typ == string(KindIdempotencyError) {
				return KindIdempotencyError
			}
		}
		return KindInvalidRequest
	case http.StatusUnauthorized:
		return KindAuthenticationError
	case http.StatusPaymentRequired:
		return KindPaymentRequired
	case http.StatusForbidden:
		return KindPermissionError
	case http.StatusTooManyRequests:
		return KindRateLimitError
	default:
		return KindAPIError
	}
}

// parseErrorBody returns nil unless the body is a JSON object. Numbers are
// kept as json.Number so large codes survive.
func parseErrorBody(body []byte) map[string]any {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var data map[string]any
	if err := decoder.Decode(&data); err != nil {
		return nil
	}
	return data
}

func errorBodyMessage(data map[string]any) string {
	if data == nil {
		return ""
	}
	for _, key := range []string{"error", "message"} {
		if value, ok := data[key].(string); ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	if errs, ok := data["errors"]; ok && errs != nil && errs != false {
		return "Invalid request"
	}
	return ""
}

func reasonPhrase(res TransportResponse) string {
	if reason := strings.TrimSpace(res.Reason); reason != "" {
		return reason
	}
	if text := http.StatusText(res.StatusCode); text != "" {
		return text
	}
	return fmt.Sprintf("Unexpected HTTP status %d", res.StatusCode)
}

func cloneHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(headers))
	for key, value := range headers {
		out[key] = value
	}
	return out
}
