package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/simplyqio/simplyq-go/core"
)

const DefaultMaxBodyBytes int64 = 1 << 20

// EventHandler receives verified, deduplicated webhook events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event core.InboundEvent) error
}

type EventHandlerFunc func(ctx context.Context, event core.InboundEvent) error

func (f EventHandlerFunc) HandleEvent(ctx context.Context, event core.InboundEvent) error {
	return f(ctx, event)
}

// Result is the outcome of processing one delivery.
type Result struct {
	StatusCode int
	Accepted   bool
	Deduped    bool
	Event      core.InboundEvent
}

// Handler receives SimplyQ deliveries over HTTP. It verifies the signature,
// claims the delivery in the replay ledger, and passes the event on.
type Handler struct {
	Secrets      SecretResolver
	Ledger       core.ReplayLedger
	Events       EventHandler
	Tolerance    time.Duration
	MaxBodyBytes int64
	Logger       core.Logger
	Now          func() time.Time
}

func NewHandler(secrets SecretResolver, ledger core.ReplayLedger, events EventHandler) *Handler {
	return &Handler{
		Secrets:      secrets,
		Ledger:       ledger,
		Events:       events,
		MaxBodyBytes: DefaultMaxBodyBytes,
		Logger:       glog.Nop(),
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes()))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"error": "payload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "could not read body"})
		return
	}

	result, err := h.Process(r.Context(), body, r.Header)
	if err != nil {
		writeJSON(w, result.StatusCode, map[string]any{"error": errorMessage(err)})
		return
	}
	if result.Deduped {
		writeJSON(w, result.StatusCode, map[string]any{"deduped": true})
		return
	}
	writeJSON(w, result.StatusCode, map[string]any{"accepted": true})
}

// Process runs one delivery through verification, replay protection and the
// event handler. The returned Result always carries the HTTP status to answer
// with, even when err is non-nil.
func (h *Handler) Process(ctx context.Context, payload []byte, headers http.Header) (Result, error) {
	if h == nil || h.Secrets == nil || h.Events == nil {
		return Result{StatusCode: http.StatusInternalServerError},
			core.NewUsageError("webhooks: handler requires a secret resolver and an event handler")
	}

	secret, err := h.Secrets.ResolveSecret(ctx, headers)
	if err != nil {
		h.logger().Error("webhook secret resolution failed", "error", err)
		return Result{StatusCode: http.StatusInternalServerError}, err
	}

	verifier := NewVerifier(secret, WithTolerance(h.Tolerance), WithClock(h.now))
	verified, err := verifier.verify(payload, headers)
	if err != nil {
		return h.reject(err)
	}
	event, err := DecodeEvent(payload)
	if err != nil {
		return h.reject(err)
	}

	claimKey := verified.replayKey()
	if h.Ledger != nil {
		claimed, claimErr := h.Ledger.Claim(ctx, claimKey, h.claimTTL(verifier))
		if claimErr != nil {
			h.logger().Error("webhook replay claim failed", "error", claimErr)
			return Result{StatusCode: http.StatusInternalServerError}, claimErr
		}
		if !claimed {
			h.logger().Info("webhook delivery deduped", "claim_key", claimKey)
			return Result{StatusCode: http.StatusOK, Accepted: true, Deduped: true, Event: event}, nil
		}
	}

	if err := h.Events.HandleEvent(ContextWithReplayKey(ctx, claimKey), event); err != nil {
		if releaser, ok := h.Ledger.(core.ReplayReleaser); ok {
			if releaseErr := releaser.Release(ctx, claimKey); releaseErr != nil {
				h.logger().Warn("webhook replay release failed", "error", releaseErr)
			}
		}
		h.logger().Error("webhook handler failed", "error", err)
		return Result{StatusCode: http.StatusInternalServerError, Event: event}, err
	}

	h.logger().Debug("webhook delivery accepted", "claim_key", claimKey)
	return Result{StatusCode: http.StatusOK, Accepted: true, Event: event}, nil
}

func (h *Handler) reject(err error) (Result, error) {
	status := statusForError(err)
	h.logger().Warn("webhook rejected", "status", status, "error", err)
	return Result{StatusCode: status}, err
}

type replayKeyContextKey struct{}

// ContextWithReplayKey attaches the replay key of the delivery being handled.
func ContextWithReplayKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, replayKeyContextKey{}, key)
}

// ReplayKeyFromContext returns the replay key the Handler attached before
// calling the EventHandler.
func ReplayKeyFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	key, ok := ctx.Value(replayKeyContextKey{}).(string)
	return key, ok && key != ""
}

func (h *Handler) claimTTL(verifier *Verifier) time.Duration {
	if tolerance := verifier.tolerance(); tolerance > 0 {
		return tolerance
	}
	return DefaultTolerance
}

func (h *Handler) maxBodyBytes() int64 {
	if h != nil && h.MaxBodyBytes > 0 {
		return h.MaxBodyBytes
	}
	return DefaultMaxBodyBytes
}

func (h *Handler) logger() core.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return glog.Nop()
}

func (h *Handler) now() time.Time {
	if h != nil && h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func statusForError(err error) int {
	kind, ok := core.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case core.KindSignatureVerification:
		return http.StatusUnauthorized
	case core.KindPayloadDecodeError:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage keeps server-side failures opaque to the sender.
func errorMessage(err error) string {
	var typed *core.Error
	if errors.As(err, &typed) {
		switch typed.Kind {
		case core.KindSignatureVerification, core.KindPayloadDecodeError:
			return typed.Message
		}
	}
	return "internal error"
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

var _ http.Handler = (*Handler)(nil)
