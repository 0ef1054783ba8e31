package gocommand

import (
	"fmt"

	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	"github.com/simplyqio/simplyq-go/command"
	"github.com/simplyqio/simplyq-go/core"
	"github.com/simplyqio/simplyq-go/query"
)

// ResourceHandlers are the resource APIs behind the SimplyQ commands and
// queries. A nil field skips every message served by that resource.
type ResourceHandlers struct {
	Applications interface {
		command.ApplicationWriter
		query.ApplicationReader
	}
	Endpoints interface {
		command.EndpointWriter
		query.EndpointReader
	}
	Events interface {
		command.EventPublisher
		query.EventReader
	}
}

// Subscriptions tracks what RegisterResourceHandlers attached to the
// dispatcher.
type Subscriptions []commanddispatcher.Subscription

func (s Subscriptions) Unsubscribe() {
	for _, subscription := range s {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
}

// RegisterResourceHandlers registers and subscribes the SimplyQ command and
// query handlers. On failure every subscription made so far is removed.
func RegisterResourceHandlers(
	registry *Registry,
	handlers ResourceHandlers,
	runnerOpts ...runner.Option,
) (Subscriptions, error) {
	if registry == nil || registry.registry == nil {
		return nil, errRegistryNotConfigured
	}
	if handlers.Applications == nil && handlers.Endpoints == nil && handlers.Events == nil {
		return nil, fmt.Errorf("gocommand: at least one resource handler is required")
	}

	var subs Subscriptions
	steps := make([]func() (commanddispatcher.Subscription, error), 0, 14)

	if apps := handlers.Applications; apps != nil {
		steps = append(steps,
			func() (commanddispatcher.Subscription, error) {
				return bindCommand[command.CreateApplicationMessage](registry, command.NewCreateApplicationCommand(apps), runnerOpts...)
			},
			func() (commanddispatcher.Subscription, error) {
				return bindCommand[command.UpdateApplicationMessage](registry, command.NewUpdateApplicationCommand(apps), runnerOpts...)
			},
			func() (commanddispatcher.Subscription, error) {
				return bindCommand[command.DeleteApplicationMessage](registry, command.NewDeleteApplicationCommand(apps), runnerOpts...)
			},
			func() (commanddispatcher.Subscription, error) {
				return bindQuery[query.RetrieveApplicationMessage, core.Application](
					registry, query.NewRetrieveApplicationQuery(apps), runnerOpts...)
			},
			func() (commanddispatcher.Subscription, error) {
				return bindQuery[query.ListApplicationsMessage, *core.Page[core.Application]](
					registry, query.NewListApplicationsQuery(apps), runnerOpts...)
			},
		)
	}
	if endpoints := handlers.Endpoints; endpoints != nil {
		steps = append(steps,
			func() (commanddispatcher.Subscription, error) {
				return bindCommand[command.CreateEndpointMessage](registry, command.NewCreateEndpointCommand(endpoints), runnerOpts...)
			},
			func() (commanddispatcher.Subscription, error) {
				return bindCommand[command.UpdateEndpointMessage](registry, command.NewUpdateEndpointCommand(endpoints), runnerOpts...)
			},
			func() (commanddispatcher.Subscription, error) {
				return bindCommand[command.DeleteEndpointMessage](registry, command.NewDeleteEndpointCommand(endpoints), runnerOpts...)
			},
			func() (commanddispatcher.Subscription, error) {
				return bindQuery[query.RetrieveEndpointMessage, core.Endpoint](
					registry, query.NewRetrieveEndpointQuery(endpoints), runnerOpts...)
			},
			func() (commanddispatcher.Subscription, error) {
				return bindQuery[query.ListEndpointsMessage, *core.Page[core.Endpoint]](
					registry, query.NewListEndpointsQuery(endpoints), runnerOpts...)
			},
		)
	}
	if events := handlers.Events; events != nil {
		steps = append(steps,
			func() (commanddispatcher.Subscription, error) {
				return bindCommand[command.PublishEventMessage](registry, command.NewPublishEventCommand(events), runnerOpts...)
			},
			func() (commanddispatcher.Subscription, error) {
				return bindQuery[query.RetrieveEventMessage, core.Event](
					registry, query.NewRetrieveEventQuery(events), runnerOpts...)
			},
			func() (commanddispatcher.Subscription, error) {
				return bindQuery[query.ListEventsMessage, *core.Page[core.Event]](
					registry, query.NewListEventsQuery(events), runnerOpts...)
			},
			func() (commanddispatcher.Subscription, error) {
				return bindQuery[query.ListDeliveryAttemptsMessage, *core.Page[core.DeliveryAttempt]](
					registry, query.NewListDeliveryAttemptsQuery(events), runnerOpts...)
			},
		)
	}

	for _, step := range steps {
		sub, err := step()
		if err != nil {
			subs.Unsubscribe()
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}
