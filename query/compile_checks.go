package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/simplyqio/simplyq-go/core"
	"github.com/simplyqio/simplyq-go/resources"
)

var (
	_ gocmd.Querier[RetrieveApplicationMessage, core.Application]                  = (*RetrieveApplicationQuery)(nil)
	_ gocmd.Querier[ListApplicationsMessage, *core.Page[core.Application]]         = (*ListApplicationsQuery)(nil)
	_ gocmd.Querier[RetrieveEndpointMessage, core.Endpoint]                        = (*RetrieveEndpointQuery)(nil)
	_ gocmd.Querier[ListEndpointsMessage, *core.Page[core.Endpoint]]               = (*ListEndpointsQuery)(nil)
	_ gocmd.Querier[RetrieveEventMessage, core.Event]                              = (*RetrieveEventQuery)(nil)
	_ gocmd.Querier[ListEventsMessage, *core.Page[core.Event]]                     = (*ListEventsQuery)(nil)
	_ gocmd.Querier[ListDeliveryAttemptsMessage, *core.Page[core.DeliveryAttempt]] = (*ListDeliveryAttemptsQuery)(nil)

	_ ApplicationReader = (*resources.ApplicationAPI)(nil)
	_ EndpointReader    = (*resources.EndpointAPI)(nil)
	_ EventReader       = (*resources.EventAPI)(nil)
)
