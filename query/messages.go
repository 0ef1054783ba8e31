package query

import (
	"strconv"
	"strings"

	"github.com/simplyqio/simplyq-go/core"
)

const (
	TypeRetrieveApplication  = "simplyq.query.application.retrieve"
	TypeListApplications     = "simplyq.query.application.list"
	TypeRetrieveEndpoint     = "simplyq.query.endpoint.retrieve"
	TypeListEndpoints        = "simplyq.query.endpoint.list"
	TypeRetrieveEvent        = "simplyq.query.event.retrieve"
	TypeListEvents           = "simplyq.query.event.list"
	TypeListDeliveryAttempts = "simplyq.query.delivery_attempt.list"
)

type RetrieveApplicationMessage struct {
	AppID string
}

func (RetrieveApplicationMessage) Type() string { return TypeRetrieveApplication }

func (m RetrieveApplicationMessage) Validate() error {
	return requireID("app_id", m.AppID)
}

type ListApplicationsMessage struct {
	Filters map[string]string
}

func (ListApplicationsMessage) Type() string { return TypeListApplications }

func (m ListApplicationsMessage) Validate() error {
	return validateFilters(m.Filters)
}

type RetrieveEndpointMessage struct {
	AppID      string
	EndpointID string
}

func (RetrieveEndpointMessage) Type() string { return TypeRetrieveEndpoint }

func (m RetrieveEndpointMessage) Validate() error {
	if err := requireID("app_id", m.AppID); err != nil {
		return err
	}
	return requireID("endpoint_id", m.EndpointID)
}

type ListEndpointsMessage struct {
	AppID   string
	Filters map[string]string
}

func (ListEndpointsMessage) Type() string { return TypeListEndpoints }

func (m ListEndpointsMessage) Validate() error {
	if err := requireID("app_id", m.AppID); err != nil {
		return err
	}
	return validateFilters(m.Filters)
}

type RetrieveEventMessage struct {
	AppID   string
	EventID string
}

func (RetrieveEventMessage) Type() string { return TypeRetrieveEvent }

func (m RetrieveEventMessage) Validate() error {
	if err := requireID("app_id", m.AppID); err != nil {
		return err
	}
	return requireID("event_id", m.EventID)
}

type ListEventsMessage struct {
	AppID   string
	Filters map[string]string
}

func (ListEventsMessage) Type() string { return TypeListEvents }

func (m ListEventsMessage) Validate() error {
	if err := requireID("app_id", m.AppID); err != nil {
		return err
	}
	return validateFilters(m.Filters)
}

type ListDeliveryAttemptsMessage struct {
	AppID   string
	EventID string
	Filters map[string]string
}

func (ListDeliveryAttemptsMessage) Type() string { return TypeListDeliveryAttempts }

func (m ListDeliveryAttemptsMessage) Validate() error {
	if err := requireID("app_id", m.AppID); err != nil {
		return err
	}
	if err := requireID("event_id", m.EventID); err != nil {
		return err
	}
	return validateFilters(m.Filters)
}

func requireID(field string, value string) error {
	if strings.TrimSpace(value) == "" {
		return queryValidationError(field, "is required")
	}
	return nil
}

// validateFilters rejects a positive limit that is not a number and requests
// that set both cursors, which the API cannot satisfy.
func validateFilters(filters map[string]string) error {
	if raw, ok := filters["limit"]; ok {
		limit, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || limit < 1 {
			return queryValidationError("limit", "must be a positive integer")
		}
	}
	if filters[core.CursorStartAfter] != "" && filters[core.CursorEndingBefore] != "" {
		return queryInvalidInputError("query: start_after and ending_before are mutually exclusive")
	}
	return nil
}
