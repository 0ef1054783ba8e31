package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/simplyqio/simplyq-go/core"
)

type ApplicationWriter interface {
	Create(ctx context.Context, app core.Application) (core.Application, error)
	Update(ctx context.Context, appID string, app core.Application) (core.Application, error)
	Delete(ctx context.Context, appID string) (bool, error)
}

type EndpointWriter interface {
	Create(ctx context.Context, appID string, endpoint core.Endpoint) (core.Endpoint, error)
	Update(ctx context.Context, appID string, endpointID string, endpoint core.Endpoint) (core.Endpoint, error)
	Delete(ctx context.Context, appID string, endpointID string) (bool, error)
}

type EventPublisher interface {
	Create(ctx context.Context, appID string, event core.Event, idempotencyKey string) (core.Event, error)
}

type CreateApplicationCommand struct {
	applications ApplicationWriter
}

func NewCreateApplicationCommand(applications ApplicationWriter) *CreateApplicationCommand {
	return &CreateApplicationCommand{applications: applications}
}

func (c *CreateApplicationCommand) Execute(ctx context.Context, msg CreateApplicationMessage) error {
	if c == nil || c.applications == nil {
		return commandDependencyError("command: application api is required")
	}
	out, err := c.applications.Create(ctx, msg.Application)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateApplicationCommand struct {
	applications ApplicationWriter
}

func NewUpdateApplicationCommand(applications ApplicationWriter) *UpdateApplicationCommand {
	return &UpdateApplicationCommand{applications: applications}
}

func (c *UpdateApplicationCommand) Execute(ctx context.Context, msg UpdateApplicationMessage) error {
	if c == nil || c.applications == nil {
		return commandDependencyError("command: application api is required")
	}
	out, err := c.applications.Update(ctx, msg.AppID, msg.Application)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

// DeleteApplicationCommand stores whether the API confirmed the deletion.
type DeleteApplicationCommand struct {
	applications ApplicationWriter
}

func NewDeleteApplicationCommand(applications ApplicationWriter) *DeleteApplicationCommand {
	return &DeleteApplicationCommand{applications: applications}
}

func (c *DeleteApplicationCommand) Execute(ctx context.Context, msg DeleteApplicationMessage) error {
	if c == nil || c.applications == nil {
		return commandDependencyError("command: application api is required")
	}
	deleted, err := c.applications.Delete(ctx, msg.AppID)
	if err != nil {
		return err
	}
	storeResult(ctx, deleted)
	return nil
}

type CreateEndpointCommand struct {
	endpoints EndpointWriter
}

func NewCreateEndpointCommand(endpoints EndpointWriter) *CreateEndpointCommand {
	return &CreateEndpointCommand{endpoints: endpoints}
}

func (c *CreateEndpointCommand) Execute(ctx context.Context, msg CreateEndpointMessage) error {
	if c == nil || c.endpoints == nil {
		return commandDependencyError("command: endpoint api is required")
	}
	out, err := c.endpoints.Create(ctx, msg.AppID, msg.Endpoint)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateEndpointCommand struct {
	endpoints EndpointWriter
}

func NewUpdateEndpointCommand(endpoints EndpointWriter) *UpdateEndpointCommand {
	return &UpdateEndpointCommand{endpoints: endpoints}
}

func (c *UpdateEndpointCommand) Execute(ctx context.Context, msg UpdateEndpointMessage) error {
	if c == nil || c.endpoints == nil {
		return commandDependencyError("command: endpoint api is required")
	}
	out, err := c.endpoints.Update(ctx, msg.AppID, msg.EndpointID, msg.Endpoint)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteEndpointCommand struct {
	endpoints EndpointWriter
}

func NewDeleteEndpointCommand(endpoints EndpointWriter) *DeleteEndpointCommand {
	return &DeleteEndpointCommand{endpoints: endpoints}
}

func (c *DeleteEndpointCommand) Execute(ctx context.Context, msg DeleteEndpointMessage) error {
	if c == nil || c.endpoints == nil {
		return commandDependencyError("command: endpoint api is required")
	}
	deleted, err := c.endpoints.Delete(ctx, msg.AppID, msg.EndpointID)
	if err != nil {
		return err
	}
	storeResult(ctx, deleted)
	return nil
}

type PublishEventCommand struct {
	events EventPublisher
}

func NewPublishEventCommand(events EventPublisher) *PublishEventCommand {
	return &PublishEventCommand{events: events}
}

func (c *PublishEventCommand) Execute(ctx context.Context, msg PublishEventMessage) error {
	if c == nil || c.events == nil {
		return commandDependencyError("command: event api is required")
	}
	out, err := c.events.Create(ctx, msg.AppID, msg.Event, msg.IdempotencyKey)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
