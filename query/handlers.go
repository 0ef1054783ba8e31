package query

import (
	"context"

	"github.com/simplyqio/simplyq-go/core"
)

type ApplicationReader interface {
	Retrieve(ctx context.Context, appID string) (core.Application, error)
	List(ctx context.Context, filters map[string]string) (*core.Page[core.Application], error)
}

type EndpointReader interface {
	Retrieve(ctx context.Context, appID string, endpointID string) (core.Endpoint, error)
	List(ctx context.Context, appID string, filters map[string]string) (*core.Page[core.Endpoint], error)
}

type EventReader interface {
	Retrieve(ctx context.Context, appID string, eventID string) (core.Event, error)
	List(ctx context.Context, appID string, filters map[string]string) (*core.Page[core.Event], error)
	ListDeliveryAttempts(
		ctx context.Context,
		appID string,
		eventID string,
		filters map[string]string,
	) (*core.Page[core.DeliveryAttempt], error)
}

type RetrieveApplicationQuery struct {
	reader ApplicationReader
}

func NewRetrieveApplicationQuery(reader ApplicationReader) *RetrieveApplicationQuery {
	return &RetrieveApplicationQuery{reader: reader}
}

func (q *RetrieveApplicationQuery) Query(ctx context.Context, msg RetrieveApplicationMessage) (core.Application, error) {
	if q == nil || q.reader == nil {
		return core.Application{}, queryDependencyError("query: application reader is required")
	}
	return q.reader.Retrieve(ctx, msg.AppID)
}

type ListApplicationsQuery struct {
	reader ApplicationReader
}

func NewListApplicationsQuery(reader ApplicationReader) *ListApplicationsQuery {
	return &ListApplicationsQuery{reader: reader}
}

func (q *ListApplicationsQuery) Query(ctx context.Context, msg ListApplicationsMessage) (*core.Page[core.Application], error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: application reader is required")
	}
	return q.reader.List(ctx, msg.Filters)
}

type RetrieveEndpointQuery struct {
	reader EndpointReader
}

func NewRetrieveEndpointQuery(reader EndpointReader) *RetrieveEndpointQuery {
	return &RetrieveEndpointQuery{reader: reader}
}

func (q *RetrieveEndpointQuery) Query(ctx context.Context, msg RetrieveEndpointMessage) (core.Endpoint, error) {
	if q == nil || q.reader == nil {
		return core.Endpoint{}, queryDependencyError("query: endpoint reader is required")
	}
	return q.reader.Retrieve(ctx, msg.AppID, msg.EndpointID)
}

type ListEndpointsQuery struct {
	reader EndpointReader
}

func NewListEndpointsQuery(reader EndpointReader) *ListEndpointsQuery {
	return &ListEndpointsQuery{reader: reader}
}

func (q *ListEndpointsQuery) Query(ctx context.Context, msg ListEndpointsMessage) (*core.Page[core.Endpoint], error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: endpoint reader is required")
	}
	return q.reader.List(ctx, msg.AppID, msg.Filters)
}

type RetrieveEventQuery struct {
	reader EventReader
}

func NewRetrieveEventQuery(reader EventReader) *RetrieveEventQuery {
	return &RetrieveEventQuery{reader: reader}
}

func (q *RetrieveEventQuery) Query(ctx context.Context, msg RetrieveEventMessage) (core.Event, error) {
	if q == nil || q.reader == nil {
		return core.Event{}, queryDependencyError("query: event reader is required")
	}
	return q.reader.Retrieve(ctx, msg.AppID, msg.EventID)
}

type ListEventsQuery struct {
	reader EventReader
}

func NewListEventsQuery(reader EventReader) *ListEventsQuery {
	return &ListEventsQuery{reader: reader}
}

func (q *ListEventsQuery) Query(ctx context.Context, msg ListEventsMessage) (*core.Page[core.Event], error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: event reader is required")
	}
	return q.reader.List(ctx, msg.AppID, msg.Filters)
}

type ListDeliveryAttemptsQuery struct {
	reader EventReader
}

func NewListDeliveryAttemptsQuery(reader EventReader) *ListDeliveryAttemptsQuery {
	return &ListDeliveryAttemptsQuery{reader: reader}
}

func (q *ListDeliveryAttemptsQuery) Query(
	ctx context.Context,
	msg ListDeliveryAttemptsMessage,
) (*core.Page[core.DeliveryAttempt], error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: event reader is required")
	}
	return q.reader.ListDeliveryAttempts(ctx, msg.AppID, msg.EventID, msg.Filters)
}
