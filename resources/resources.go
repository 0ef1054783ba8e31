package resources

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/simplyqio/simplyq-go/core"
)

const (
	applicationsPath     = "/v1/application"
	applicationPath      = "/v1/application/%s"
	endpointsPath        = "/v1/application/%s/endpoint"
	endpointPath         = "/v1/application/%s/endpoint/%s"
	eventsPath           = "/v1/application/%s/event"
	eventPath            = "/v1/application/%s/event/%s"
	deliveryAttemptsPath = "/v1/application/%s/event/%s/delivery_attempt"
)

func requireCaller(caller core.Caller) error {
	if caller == nil {
		return core.NewUsageError("resources: api caller is required")
	}
	return nil
}

// requireIDs path-escapes each id and fails on blanks, naming the first one
// missing.
func requireIDs(pairs ...string) ([]any, error) {
	escaped := make([]any, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		name, value := pairs[i], strings.TrimSpace(pairs[i+1])
		if value == "" {
			return nil, core.NewUsageError(name + " is required")
		}
		escaped = append(escaped, url.PathEscape(value))
	}
	return escaped, nil
}

func retrieve[T any](ctx context.Context, caller core.Caller, req core.APIRequest) (T, error) {
	var out T
	if err := requireCaller(caller); err != nil {
		return out, err
	}
	res, err := caller.Call(ctx, req)
	if err != nil {
		return out, err
	}
	if err := core.DecodeJSON(res, &out); err != nil {
		return out, err
	}
	return out, nil
}

func list[T core.Identifiable](
	ctx context.Context,
	caller core.Caller,
	req core.APIRequest,
	filters map[string]string,
	fetch core.PageFetcher[T],
) (*core.Page[T], error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	req.Method = http.MethodGet
	req.Query = filters
	res, err := caller.Call(ctx, req)
	if err != nil {
		return nil, err
	}
	return core.DecodePage(res.Body, filters, fetch)
}

func remove(ctx context.Context, caller core.Caller, req core.APIRequest) (bool, error) {
	if err := requireCaller(caller); err != nil {
		return false, err
	}
	req.Method = http.MethodDelete
	res, err := caller.Call(ctx, req)
	if err != nil {
		return false, err
	}
	return res.StatusCode == http.StatusNoContent || res.StatusCode == http.StatusAccepted, nil
}
