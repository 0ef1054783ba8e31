package core

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

type ErrorKind string

const (
	KindConnectionFailed      ErrorKind = "connection_failed"
	KindConnectTimeout        ErrorKind = "connect_timeout"
	KindReadTimeout           ErrorKind = "read_timeout"
	KindTLSError              ErrorKind = "tls_error"
	KindUnknownNetworkError   ErrorKind = "unknown_network_error"
	KindAuthenticationError   ErrorKind = "authentication_error"
	KindPaymentRequired       ErrorKind = "payment_required"
	KindPermissionError       ErrorKind = "permission_error"
	KindInvalidRequest        ErrorKind = "invalid_request"
	KindIdempotencyError      ErrorKind = "idempotency_error"
	KindRateLimitError        ErrorKind = "rate_limit_error"
	KindAPIError              ErrorKind = "api_error"
	KindSignatureVerification ErrorKind = "signature_verification_error"
	KindPayloadDecodeError    ErrorKind = "payload_decode_error"
	KindUsageError            ErrorKind = "usage_error"
)

// Text codes used when an Error is bridged into a go-errors envelope.
const (
	ErrorCodeConnection      = "SIMPLYQ_CONNECTION_ERROR"
	ErrorCodeAuthentication  = "SIMPLYQ_AUTHENTICATION_ERROR"
	ErrorCodePaymentRequired = "SIMPLYQ_PAYMENT_REQUIRED"
	ErrorCodePermission      = "SIMPLYQ_PERMISSION_ERROR"
	ErrorCodeInvalidRequest  = "SIMPLYQ_INVALID_REQUEST"
	ErrorCodeIdempotency     = "SIMPLYQ_IDEMPOTENCY_ERROR"
	ErrorCodeRateLimited     = "SIMPLYQ_RATE_LIMITED"
	ErrorCodeAPI             = "SIMPLYQ_API_ERROR"
	ErrorCodeSignature       = "SIMPLYQ_SIGNATURE_VERIFICATION_ERROR"
	ErrorCodePayloadDecode   = "SIMPLYQ_PAYLOAD_DECODE_ERROR"
	ErrorCodeUsage           = "SIMPLYQ_USAGE_ERROR"
	ErrorCodeInternal        = "SIMPLYQ_INTERNAL_ERROR"
)

var allErrorKinds = []ErrorKind{
	KindConnectionFailed,
	KindConnectTimeout,
	KindReadTimeout,
	KindTLSError,
	KindUnknownNetworkError,
	KindAuthenticationError,
	KindPaymentRequired,
	KindPermissionError,
	KindInvalidRequest,
	KindIdempotencyError,
	KindRateLimitError,
	KindAPIError,
	KindSignatureVerification,
	KindPayloadDecodeError,
	KindUsageError,
}

// ErrorKinds returns the closed set of kinds an Error can carry.
func ErrorKinds() []ErrorKind {
	return append([]ErrorKind(nil), allErrorKinds...)
}

func (k ErrorKind) String() string { return string(k) }

// IsConnection reports whether the kind belongs to the transport class.
func (k ErrorKind) IsConnection() bool {
	switch k {
	case KindConnectionFailed, KindConnectTimeout, KindReadTimeout, KindTLSError, KindUnknownNetworkError:
		return true
	default:
		return false
	}
}

// IsInvalidRequest is true for invalid_request and its idempotency variant.
func (k ErrorKind) IsInvalidRequest() bool {
	return k == KindInvalidRequest || k == KindIdempotencyError
}

func (k ErrorKind) Retryable() bool {
	return k.IsConnection() || k == KindRateLimitError
}

// Error is the single failure type returned by API calls, webhook
// verification and client-side usage checks.
type Error struct {
	Kind        ErrorKind
	Message     string
	HTTPStatus  int
	HTTPBody    []byte
	HTTPHeaders map[string]string
	Code        string
	Errors      []any
	Param       string
	RequestID   string
	Cause       error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.HTTPStatus > 0 {
		fmt.Fprintf(&b, "(Status %d) ", e.HTTPStatus)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, "(Request %s) ", e.RequestID)
	}
	b.WriteString(e.Message)
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: k}) works.
func (e *Error) Is(target error) bool {
	var other *Error
	if e == nil || !errors.As(target, &other) || other == nil {
		return false
	}
	return other.Kind == e.Kind
}

func (e *Error) Retryable() bool {
	return e != nil && e.Kind.Retryable()
}

// Header returns a response header by case-insensitive name.
func (e *Error) Header(name string) string {
	if e == nil {
		return ""
	}
	return headerLookup(e.HTTPHeaders, name)
}

// FieldErrors expands the structured "errors" list of an invalid request into
// go-errors field errors. Entries that are not objects are reported under the
// request param, if any.
func (e *Error) FieldErrors() []goerrors.FieldError {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	out := make([]goerrors.FieldError, 0, len(e.Errors))
	for _, item := range e.Errors {
		switch value := item.(type) {
		case map[string]any:
			field := firstString(value, "field", "param", "loc")
			message := firstString(value, "message", "msg", "error")
			out = append(out, goerrors.FieldError{Field: field, Message: message})
		default:
			out = append(out, goerrors.FieldError{Field: e.Param, Message: fmt.Sprint(value)})
		}
	}
	return out
}

// ToServiceError bridges the error into the go-errors envelope used by the
// command and query packages.
func (e *Error) ToServiceError() *goerrors.Error {
	if e == nil {
		return nil
	}
	category := errorCategory(e.Kind)
	var rich *goerrors.Error
	if fields := e.FieldErrors(); len(fields) > 0 {
		rich = goerrors.NewValidation(e.Message, fields...).
			WithSeverity(goerrors.SeverityError)
	} else if e.Cause != nil {
		rich = goerrors.Wrap(e.Cause, category, e.Message)
	} else {
		rich = goerrors.New(e.Message, category)
	}
	code := e.HTTPStatus
	if code == 0 {
		code = serviceHTTPStatus(category)
	}
	rich = rich.WithCode(code).WithTextCode(errorTextCode(e.Kind))

	metadata := map[string]any{"kind": string(e.Kind)}
	if e.RequestID != "" {
		metadata["request_id"] = e.RequestID
	}
	if e.Code != "" {
		metadata["code"] = e.Code
	}
	if e.Param != "" {
		metadata["param"] = e.Param
	}
	return rich.WithMetadata(metadata)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var typed *Error
	if errors.As(err, &typed) && typed != nil {
		return typed.Kind, true
	}
	return "", false
}

func IsKind(err error, kind ErrorKind) bool {
	got, ok := KindOf(err)
	return ok && got == kind
}

func IsRetryable(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind.Retryable()
}

func NewUsageError(message string) *Error {
	return &Error{Kind: KindUsageError, Message: message}
}

func newUsageErrorf(format string, args ...any) *Error {
	return NewUsageError(fmt.Sprintf(format, args...))
}

func errorCategory(kind ErrorKind) goerrors.Category {
	switch {
	case kind.IsConnection():
		return goerrors.CategoryExternal
	case kind.IsInvalidRequest():
		return goerrors.CategoryBadInput
	}
	switch kind {
	case KindAuthenticationError:
		return goerrors.CategoryAuth
	case KindPaymentRequired, KindPermissionError:
		return goerrors.CategoryAuthz
	case KindRateLimitError:
		return goerrors.CategoryRateLimit
	case KindSignatureVerification:
		return goerrors.CategoryAuth
	case KindPayloadDecodeError, KindUsageError:
		return goerrors.CategoryBadInput
	case KindAPIError:
		return goerrors.CategoryExternal
	default:
		return goerrors.CategoryInternal
	}
}

func errorTextCode(kind ErrorKind) string {
	if kind.IsConnection() {
		return ErrorCodeConnection
	}
	switch kind {
	case KindAuthenticationError:
		return ErrorCodeAuthentication
	case KindPaymentRequired:
		return ErrorCodePaymentRequired
	case KindPermissionError:
		return ErrorCodePermission
	case KindInvalidRequest:
		return ErrorCodeInvalidRequest
	case KindIdempotencyError:
		return ErrorCodeIdempotency
	case KindRateLimitError:
		return ErrorCodeRateLimited
	case KindAPIError:
		return ErrorCodeAPI
	case KindSignatureVerification:
		return ErrorCodeSignature
	case KindPayloadDecodeError:
		return ErrorCodePayloadDecode
	case KindUsageError:
		return ErrorCodeUsage
	default:
		return ErrorCodeInternal
	}
}

// MapServiceError converts any error into a go-errors envelope. Errors that
// already carry an envelope keep it; *Error values are bridged by kind.
func MapServiceError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) && typed != nil {
		return typed.ToServiceError()
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return ensureServiceErrorEnvelope(rich)
	}
	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureServiceErrorEnvelope(mapped)
}

func ensureServiceErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = serviceHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultServiceTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultServiceTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorCodeInvalidRequest
	case goerrors.CategoryAuth:
		return ErrorCodeAuthentication
	case goerrors.CategoryAuthz:
		return ErrorCodePermission
	case goerrors.CategoryRateLimit:
		return ErrorCodeRateLimited
	case goerrors.CategoryExternal:
		return ErrorCodeAPI
	default:
		return ErrorCodeInternal
	}
}

func serviceHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func firstString(values map[string]any, keys ...string) string {
	for _, key := range keys {
		raw, ok := values[key]
		if !ok || raw == nil {
			continue
		}
		switch typed := raw.(type) {
		case string:
			return typed
		case []any:
			parts := make([]string, 0, len(typed))
			for _, part := range typed {
				parts = append(parts, fmt.Sprint(part))
			}
			return strings.Join(parts, ".")
		default:
			return fmt.Sprint(typed)
		}
	}
	return ""
}

func headerLookup(headers map[string]string, name string) string {
	if len(headers) == 0 {
		return ""
	}
	if value, ok := headers[name]; ok {
		return value
	}
	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if strings.EqualFold(key, name) {
			return headers[key]
		}
	}
	return ""
}
