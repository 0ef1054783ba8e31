package resources

import (
	"context"
	"fmt"
	"net/http"

	"github.com/simplyqio/simplyq-go/core"
)

type EndpointAPI struct {
	caller core.Caller
}

func NewEndpointAPI(caller core.Caller) *EndpointAPI {
	return &EndpointAPI{caller: caller}
}

func (a *EndpointAPI) Retrieve(ctx context.Context, appID string, endpointID string) (core.Endpoint, error) {
	ids, err := requireIDs("application id", appID, "endpoint id", endpointID)
	if err != nil {
		return core.Endpoint{}, err
	}
	return retrieve[core.Endpoint](ctx, a.caller, core.APIRequest{
		Operation: "retrieve_endpoint",
		Method:    http.MethodGet,
		Path:      fmt.Sprintf(endpointPath, ids...),
	})
}

func (a *EndpointAPI) List(ctx context.Context, appID string, filters map[string]string) (*core.Page[core.Endpoint], error) {
	ids, err := requireIDs("application id", appID)
	if err != nil {
		return nil, err
	}
	fetch := func(ctx context.Context, filters map[string]string) (*core.Page[core.Endpoint], error) {
		return a.List(ctx, appID, filters)
	}
	return list(ctx, a.caller, core.APIRequest{
		Operation: "list_endpoints",
		Path:      fmt.Sprintf(endpointsPath, ids...),
	}, filters, fetch)
}

func (a *EndpointAPI) Create(ctx context.Context, appID string, endpoint core.Endpoint) (core.Endpoint, error) {
	ids, err := requireIDs("application id", appID)
	if err != nil {
		return core.Endpoint{}, err
	}
	if err := core.ValidateModel("endpoint", endpoint); err != nil {
		return core.Endpoint{}, err
	}
	return retrieve[core.Endpoint](ctx, a.caller, core.APIRequest{
		Operation: "create_endpoint",
		Method:    http.MethodPost,
		Path:      fmt.Sprintf(endpointsPath, ids...),
		Body:      endpoint,
	})
}

func (a *EndpointAPI) Update(ctx context.Context, appID string, endpointID string, endpoint core.Endpoint) (core.Endpoint, error) {
	ids, err := requireIDs("application id", appID, "endpoint id", endpointID)
	if err != nil {
		return core.Endpoint{}, err
	}
	if err := core.ValidateModel("endpoint", endpoint); err != nil {
		return core.Endpoint{}, err
	}
	return retrieve[core.Endpoint](ctx, a.caller, core.APIRequest{
		Operation: "update_endpoint",
		Method:    http.MethodPut,
		Path:      fmt.Sprintf(endpointPath, ids...),
		Body:      endpoint,
	})
}

func (a *EndpointAPI) Delete(ctx context.Context, appID string, endpointID string) (bool, error) {
	ids, err := requireIDs("application id", appID, "endpoint id", endpointID)
	if err != nil {
		return false, err
	}
	return remove(ctx, a.caller, core.APIRequest{
		Operation: "delete_endpoint",
		Path:      fmt.Sprintf(endpointPath, ids...),
	})
}
