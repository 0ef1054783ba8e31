package gocommand

import (
	"context"
	"fmt"
	"slices"
	"sync"

	gocmd "github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
)

// Registry binds SimplyQ handlers to a go-command registry and to the
// process-wide dispatcher. It remembers which message types it bound.
type Registry struct {
	registry *gocmd.Registry

	mu    sync.Mutex
	bound []string
}

func NewRegistry(registry *gocmd.Registry) *Registry {
	if registry == nil {
		registry = gocmd.NewRegistry()
	}
	return &Registry{registry: registry}
}

func (r *Registry) Initialize() error {
	if r == nil || r.registry == nil {
		return errRegistryNotConfigured
	}
	return r.registry.Initialize()
}

// MessageTypes lists the bound message types in registration order.
func (r *Registry) MessageTypes() []string {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.bound)
}

func (r *Registry) record(messageType string) {
	r.mu.Lock()
	r.bound = append(r.bound, messageType)
	r.mu.Unlock()
}

var errRegistryNotConfigured = fmt.Errorf("gocommand: registry is not configured")

func bindCommand[T gocmd.Message](
	r *Registry,
	cmd gocmd.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if r == nil || r.registry == nil {
		return nil, errRegistryNotConfigured
	}
	var msg T
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: handler for %s is required", msg.Type())
	}
	subscription := commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
	if err := r.registry.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, fmt.Errorf("gocommand: register %s: %w", msg.Type(), err)
	}
	r.record(msg.Type())
	return subscription, nil
}

func bindQuery[T gocmd.Message, R any](
	r *Registry,
	qry gocmd.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if r == nil || r.registry == nil {
		return nil, errRegistryNotConfigured
	}
	var msg T
	if qry == nil {
		return nil, fmt.Errorf("gocommand: handler for %s is required", msg.Type())
	}
	subscription := commanddispatcher.SubscribeQuery(qry, runnerOpts...)
	if err := r.registry.RegisterCommand(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, fmt.Errorf("gocommand: register %s: %w", msg.Type(), err)
	}
	r.record(msg.Type())
	return subscription, nil
}

// Dispatch validates msg and runs the command subscribed for its type.
// Invalid messages never reach a handler.
func Dispatch[T gocmd.Message](ctx context.Context, msg T) error {
	if err := gocmd.ValidateMessage(msg); err != nil {
		return fmt.Errorf("gocommand: %s: %w", msg.Type(), err)
	}
	return commanddispatcher.Dispatch(ctx, msg)
}

// Query validates msg and runs the query subscribed for its type.
func Query[T gocmd.Message, R any](ctx context.Context, msg T) (R, error) {
	if err := gocmd.ValidateMessage(msg); err != nil {
		var zero R
		return zero, fmt.Errorf("gocommand: %s: %w", msg.Type(), err)
	}
	return commanddispatcher.Query[T, R](ctx, msg)
}
