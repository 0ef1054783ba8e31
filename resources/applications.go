package resources

import (
	"context"
	"fmt"
	"net/http"

	"github.com/simplyqio/simplyq-go/core"
)

type ApplicationAPI struct {
	caller core.Caller
}

func NewApplicationAPI(caller core.Caller) *ApplicationAPI {
	return &ApplicationAPI{caller: caller}
}

func (a *ApplicationAPI) Retrieve(ctx context.Context, appID string) (core.Application, error) {
	ids, err := requireIDs("application id", appID)
	if err != nil {
		return core.Application{}, err
	}
	return retrieve[core.Application](ctx, a.caller, core.APIRequest{
		Operation: "retrieve_application",
		Method:    http.MethodGet,
		Path:      fmt.Sprintf(applicationPath, ids...),
	})
}

// List returns one page of applications; the page fetches its neighbours with
// the same filters.
func (a *ApplicationAPI) List(ctx context.Context, filters map[string]string) (*core.Page[core.Application], error) {
	return list(ctx, a.caller, core.APIRequest{
		Operation: "list_applications",
		Path:      applicationsPath,
	}, filters, a.List)
}

func (a *ApplicationAPI) Create(ctx context.Context, app core.Application) (core.Application, error) {
	if err := core.ValidateModel("application", app); err != nil {
		return core.Application{}, err
	}
	return retrieve[core.Application](ctx, a.caller, core.APIRequest{
		Operation: "create_application",
		Method:    http.MethodPost,
		Path:      applicationsPath,
		Body:      app,
	})
}

func (a *ApplicationAPI) Update(ctx context.Context, appID string, app core.Application) (core.Application, error) {
	ids, err := requireIDs("application id", appID)
	if err != nil {
		return core.Application{}, err
	}
	if err := core.ValidateModel("application", app); err != nil {
		return core.Application{}, err
	}
	return retrieve[core.Application](ctx, a.caller, core.APIRequest{
		Operation: "update_application",
		Method:    http.MethodPut,
		Path:      fmt.Sprintf(applicationPath, ids...),
		Body:      app,
	})
}

func (a *ApplicationAPI) Delete(ctx context.Context, appID string) (bool, error) {
	ids, err := requireIDs("application id", appID)
	if err != nil {
		return false, err
	}
	return remove(ctx, a.caller, core.APIRequest{
		Operation: "delete_application",
		Path:      fmt.Sprintf(applicationPath, ids...),
	})
}
