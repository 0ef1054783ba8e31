package webhooks

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/simplyqio/simplyq-go/core"
)

const (
	SignatureHeader = "x-simplyq-signature"
	TimestampHeader = "x-simplyq-timestamp"

	DefaultTolerance = core.DefaultWebhookTolerance
	// NoTolerance disables the freshness check.
	NoTolerance time.Duration = -1
)

const (
	msgNoTimestamp       = "No timestamp header"
	msgInvalidTimestamp  = "Invalid timestamp header"
	msgNoSignature       = "No signature header"
	msgNoSignatures      = "No signatures found"
	msgNoMatchingSig     = "No signatures found matching the expected signature for payload"
	msgTimestampTooOld   = "Timestamp outside the tolerance zone (%d)"
	msgSecretRequired    = "Webhook secret is required"
	msgInvalidJSONWebook = "Invalid JSON in webhook payload"
)

// Verifier checks SimplyQ webhook signatures. The zero Tolerance means
// DefaultTolerance; a negative Tolerance disables the freshness check.
type Verifier struct {
	Secret    string
	Tolerance time.Duration
	Now       func() time.Time
}

type VerifierOption func(*Verifier)

func WithTolerance(tolerance time.Duration) VerifierOption {
	return func(v *Verifier) {
		v.Tolerance = tolerance
	}
}

func WithoutTolerance() VerifierOption {
	return WithTolerance(NoTolerance)
}

func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		v.Now = now
	}
}

func NewVerifier(secret string, opts ...VerifierOption) *Verifier {
	v := &Verifier{Secret: secret}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Verify authenticates payload against the signature and timestamp headers
// without decoding it.
func (v *Verifier) Verify(payload []byte, headers http.Header) error {
	_, err := v.verify(payload, headers)
	return err
}

// ConstructEvent verifies payload and decodes it into an InboundEvent. A body
// that verifies but is not a JSON object yields a payload_decode_error.
func (v *Verifier) ConstructEvent(payload []byte, headers http.Header) (core.InboundEvent, error) {
	if _, err := v.verify(payload, headers); err != nil {
		return core.InboundEvent{}, err
	}
	return DecodeEvent(payload)
}

// verifiedDelivery is what a passing check learned about the request: the
// signed timestamp and the candidate that matched.
type verifiedDelivery struct {
	timestamp int64
	signature string
}

func (d verifiedDelivery) replayKey() string {
	return ReplayKey(d.timestamp, d.signature)
}

func (v *Verifier) verify(payload []byte, headers http.Header) (verifiedDelivery, error) {
	if v == nil || v.Secret == "" {
		return verifiedDelivery{}, core.NewUsageError(msgSecretRequired)
	}

	rawTimestamp := strings.TrimSpace(headerValue(headers, TimestampHeader))
	if rawTimestamp == "" {
		return verifiedDelivery{}, signatureError(msgNoTimestamp, headers, payload)
	}
	timestamp, err := strconv.ParseInt(rawTimestamp, 10, 64)
	if err != nil {
		return verifiedDelivery{}, signatureError(msgInvalidTimestamp, headers, payload)
	}

	rawSignature := headerValue(headers, SignatureHeader)
	if strings.TrimSpace(rawSignature) == "" {
		return verifiedDelivery{}, signatureError(msgNoSignature, headers, payload)
	}
	candidates := splitSignatures(rawSignature)
	if len(candidates) == 0 {
		return verifiedDelivery{}, signatureError(msgNoSignatures, headers, payload)
	}

	expected := computeSignature(v.Secret, timestamp, payload)
	matched := ""
	for _, candidate := range candidates {
		if SecureCompare(expected, candidate) && matched == "" {
			matched = candidate
		}
	}
	if matched == "" {
		return verifiedDelivery{}, signatureError(msgNoMatchingSig, headers, payload)
	}

	if tolerance := v.tolerance(); tolerance > 0 {
		if time.Unix(timestamp, 0).Before(v.now().Add(-tolerance)) {
			return verifiedDelivery{}, signatureError(fmt.Sprintf(msgTimestampTooOld, timestamp), headers, payload)
		}
	}
	return verifiedDelivery{timestamp: timestamp, signature: matched}, nil
}

// ReplayKey identifies one signed delivery. Built from the verified timestamp
// and the matching signature, so extra or reordered candidates in the header
// map to the same key.
func ReplayKey(timestamp int64, signature string) string {
	return strconv.FormatInt(timestamp, 10) + ":" + signature
}

func (v *Verifier) tolerance() time.Duration {
	switch {
	case v.Tolerance == 0:
		return DefaultTolerance
	case v.Tolerance < 0:
		return 0
	default:
		return v.Tolerance
	}
}

func (v *Verifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// VerifySignature is the one-shot form of Verifier.Verify.
func VerifySignature(payload []byte, headers http.Header, secret string, tolerance time.Duration) error {
	return NewVerifier(secret, WithTolerance(tolerance)).Verify(payload, headers)
}

// ConstructEvent is the one-shot form of Verifier.ConstructEvent.
func ConstructEvent(payload []byte, headers http.Header, secret string, tolerance time.Duration) (core.InboundEvent, error) {
	return NewVerifier(secret, WithTolerance(tolerance)).ConstructEvent(payload, headers)
}

// DecodeEvent parses a webhook body without verifying it.
func DecodeEvent(payload []byte) (core.InboundEvent, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()
	var data map[string]any
	if err := decoder.Decode(&data); err != nil {
		return core.InboundEvent{}, decodeError(payload, err)
	}
	var trailing json.RawMessage
	if err := decoder.Decode(&trailing); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after top-level object")
		}
		return core.InboundEvent{}, decodeError(payload, err)
	}
	if data == nil {
		return core.InboundEvent{}, &core.Error{
			Kind:     core.KindPayloadDecodeError,
			Message:  msgInvalidJSONWebook + ": expected an object",
			HTTPBody: payload,
		}
	}
	return core.InboundEvent{Data: data}, nil
}

func decodeError(payload []byte, err error) *core.Error {
	return &core.Error{
		Kind:     core.KindPayloadDecodeError,
		Message:  msgInvalidJSONWebook + ": " + err.Error(),
		HTTPBody: payload,
		Cause:    err,
	}
}

// Sign returns the base64 HMAC-SHA256 signature SimplyQ sends for payload at
// timestamp. Sub-second precision is dropped.
func Sign(secret string, timestamp time.Time, payload []byte) string {
	return computeSignature(secret, timestamp.Unix(), payload)
}

// SignedHeaders builds the header pair for payload, as SimplyQ would send it.
func SignedHeaders(secret string, timestamp time.Time, payload []byte) http.Header {
	headers := http.Header{}
	headers.Set(TimestampHeader, strconv.FormatInt(timestamp.Unix(), 10))
	headers.Set(SignatureHeader, Sign(secret, timestamp, payload))
	return headers
}

func computeSignature(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SecureCompare reports whether a and b are equal. Lengths are compared first;
// equal-length inputs are always scanned in full.
func SecureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func splitSignatures(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// headerValue joins every value of name, matching keys case-insensitively so
// hand-built header maps with lowercase keys still work.
func headerValue(headers http.Header, name string) string {
	if len(headers) == 0 {
		return ""
	}
	if values := headers.Values(name); len(values) > 0 {
		return strings.Join(values, ",")
	}
	for key, values := range headers {
		if strings.EqualFold(key, name) && len(values) > 0 {
			return strings.Join(values, ",")
		}
	}
	return ""
}

// HeaderFromMap converts a flat header map, e.g. from a framework request
// object, into http.Header.
func HeaderFromMap(values map[string]string) http.Header {
	headers := make(http.Header, len(values))
	for key, value := range values {
		headers.Add(key, value)
	}
	return headers
}

func signatureError(message string, headers http.Header, payload []byte) *core.Error {
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		flat[key] = strings.Join(values, ",")
	}
	return &core.Error{
		Kind:        core.KindSignatureVerification,
		Message:     message,
		HTTPHeaders: flat,
		HTTPBody:    payload,
	}
}
