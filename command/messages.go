package command

import (
	"strings"

	"github.com/simplyqio/simplyq-go/core"
)

const (
	TypeCreateApplication = "simplyq.command.application.create"
	TypeUpdateApplication = "simplyq.command.application.update"
	TypeDeleteApplication = "simplyq.command.application.delete"
	TypeCreateEndpoint    = "simplyq.command.endpoint.create"
	TypeUpdateEndpoint    = "simplyq.command.endpoint.update"
	TypeDeleteEndpoint    = "simplyq.command.endpoint.delete"
	TypePublishEvent      = "simplyq.command.event.publish"
)

type CreateApplicationMessage struct {
	Application core.Application
}

func (CreateApplicationMessage) Type() string { return TypeCreateApplication }

func (m CreateApplicationMessage) Validate() error {
	return commandModelError(core.ValidateModel("application", m.Application))
}

type UpdateApplicationMessage struct {
	AppID       string
	Application core.Application
}

func (UpdateApplicationMessage) Type() string { return TypeUpdateApplication }

func (m UpdateApplicationMessage) Validate() error {
	if err := requireID("app_id", m.AppID); err != nil {
		return err
	}
	return commandModelError(core.ValidateModel("application", m.Application))
}

type DeleteApplicationMessage struct {
	AppID string
}

func (DeleteApplicationMessage) Type() string { return TypeDeleteApplication }

func (m DeleteApplicationMessage) Validate() error {
	return requireID("app_id", m.AppID)
}

type CreateEndpointMessage struct {
	AppID    string
	Endpoint core.Endpoint
}

func (CreateEndpointMessage) Type() string { return TypeCreateEndpoint }

func (m CreateEndpointMessage) Validate() error {
	if err := requireID("app_id", m.AppID); err != nil {
		return err
	}
	return commandModelError(core.ValidateModel("endpoint", m.Endpoint))
}

type UpdateEndpointMessage struct {
	AppID      string
	EndpointID string
	Endpoint   core.Endpoint
}

func (UpdateEndpointMessage) Type() string { return TypeUpdateEndpoint }

func (m UpdateEndpointMessage) Validate() error {
	if err := requireID("app_id", m.AppID); err != nil {
		return err
	}
	if err := requireID("endpoint_id", m.EndpointID); err != nil {
		return err
	}
	return commandModelError(core.ValidateModel("endpoint", m.Endpoint))
}

type DeleteEndpointMessage struct {
	AppID      string
	EndpointID string
}

func (DeleteEndpointMessage) Type() string { return TypeDeleteEndpoint }

func (m DeleteEndpointMessage) Validate() error {
	if err := requireID("app_id", m.AppID); err != nil {
		return err
	}
	return requireID("endpoint_id", m.EndpointID)
}

// PublishEventMessage publishes an event to every endpoint of the application
// subscribed to its type or topics. IdempotencyKey is optional.
type PublishEventMessage struct {
	AppID          string
	Event          core.Event
	IdempotencyKey string
}

func (PublishEventMessage) Type() string { return TypePublishEvent }

func (m PublishEventMessage) Validate() error {
	if err := requireID("app_id", m.AppID); err != nil {
		return err
	}
	return commandModelError(core.ValidateModel("event", m.Event))
}

func requireID(field string, value string) error {
	if strings.TrimSpace(value) == "" {
		return commandValidationError(field, "is required")
	}
	return nil
}
