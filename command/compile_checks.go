package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/simplyqio/simplyq-go/resources"
)

var (
	_ gocmd.Commander[CreateApplicationMessage] = (*CreateApplicationCommand)(nil)
	_ gocmd.Commander[UpdateApplicationMessage] = (*UpdateApplicationCommand)(nil)
	_ gocmd.Commander[DeleteApplicationMessage] = (*DeleteApplicationCommand)(nil)
	_ gocmd.Commander[CreateEndpointMessage]    = (*CreateEndpointCommand)(nil)
	_ gocmd.Commander[UpdateEndpointMessage]    = (*UpdateEndpointCommand)(nil)
	_ gocmd.Commander[DeleteEndpointMessage]    = (*DeleteEndpointCommand)(nil)
	_ gocmd.Commander[PublishEventMessage]      = (*PublishEventCommand)(nil)

	_ ApplicationWriter = (*resources.ApplicationAPI)(nil)
	_ EndpointWriter    = (*resources.EndpointAPI)(nil)
	_ EventPublisher    = (*resources.EventAPI)(nil)
)
