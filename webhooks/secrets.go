package webhooks

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/simplyqio/simplyq-go/core"
)

const endpointSecretCacheKeyPrefix = "simplyq::endpoint_secret::v1"

// SecretResolver returns the signing secret for an inbound delivery.
type SecretResolver interface {
	ResolveSecret(ctx context.Context, headers http.Header) (string, error)
}

// StaticSecret is a secret known ahead of time, usually copied from the
// endpoint settings.
type StaticSecret string

func (s StaticSecret) ResolveSecret(context.Context, http.Header) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", core.NewUsageError(msgSecretRequired)
	}
	return string(s), nil
}

type EndpointRetriever interface {
	Retrieve(ctx context.Context, appID string, endpointID string) (core.Endpoint, error)
}

// EndpointSecretResolver reads the secret from the endpoint resource and caches
// it, so each delivery does not cost an API round trip.
type EndpointSecretResolver struct {
	endpoints  EndpointRetriever
	cache      repositorycache.CacheService
	appID      string
	endpointID string
}

func NewEndpointSecretResolver(
	endpoints EndpointRetriever,
	cacheService repositorycache.CacheService,
	appID string,
	endpointID string,
) (*EndpointSecretResolver, error) {
	if endpoints == nil {
		return nil, core.NewUsageError("webhooks: endpoint retriever is required")
	}
	if cacheService == nil {
		return nil, core.NewUsageError("webhooks: secret cache service is required")
	}
	appID = strings.TrimSpace(appID)
	endpointID = strings.TrimSpace(endpointID)
	if appID == "" || endpointID == "" {
		return nil, core.NewUsageError("webhooks: application id and endpoint id are required")
	}
	return &EndpointSecretResolver{
		endpoints:  endpoints,
		cache:      cacheService,
		appID:      appID,
		endpointID: endpointID,
	}, nil
}

// EndpointSecretCacheKey returns
// simplyq::endpoint_secret::v1::<app_id>::<endpoint_id>, segments path-escaped.
func EndpointSecretCacheKey(appID string, endpointID string) string {
	return strings.Join([]string{
		endpointSecretCacheKeyPrefix,
		url.PathEscape(strings.TrimSpace(appID)),
		url.PathEscape(strings.TrimSpace(endpointID)),
	}, "::")
}

func (r *EndpointSecretResolver) ResolveSecret(ctx context.Context, _ http.Header) (string, error) {
	if r == nil || r.endpoints == nil || r.cache == nil {
		return "", core.NewUsageError("webhooks: endpoint secret resolver is not configured")
	}
	key := EndpointSecretCacheKey(r.appID, r.endpointID)
	secret, err := repositorycache.GetOrFetch(ctx, r.cache, key, func(ctx context.Context) (string, error) {
		endpoint, fetchErr := r.endpoints.Retrieve(ctx, r.appID, r.endpointID)
		if fetchErr != nil {
			return "", fetchErr
		}
		if strings.TrimSpace(endpoint.Secret) == "" {
			return "", core.NewUsageError(fmt.Sprintf("webhooks: endpoint %s has no signing secret", r.endpointID))
		}
		return endpoint.Secret, nil
	})
	if err != nil {
		return "", err
	}
	return secret, nil
}

// Invalidate drops the cached secret, e.g. after the endpoint secret rotated.
func (r *EndpointSecretResolver) Invalidate(ctx context.Context) error {
	if r == nil || r.cache == nil {
		return core.NewUsageError("webhooks: endpoint secret resolver is not configured")
	}
	return r.cache.Delete(ctx, EndpointSecretCacheKey(r.appID, r.endpointID))
}

var (
	_ SecretResolver = StaticSecret("")
	_ SecretResolver = (*EndpointSecretResolver)(nil)
)
