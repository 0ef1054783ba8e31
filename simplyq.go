// Package simplyq is the entry point of the SimplyQ client. It wires the REST
// transport, the resource APIs and the webhook receiver around a core.Client.
package simplyq

import (
	"net/http"
	"time"

	"github.com/simplyqio/simplyq-go/command"
	"github.com/simplyqio/simplyq-go/core"
	"github.com/simplyqio/simplyq-go/query"
	"github.com/simplyqio/simplyq-go/resources"
	"github.com/simplyqio/simplyq-go/transport"
	"github.com/simplyqio/simplyq-go/webhooks"
)

type Config = core.Config
type WebhookConfig = core.WebhookConfig
type Option = core.Option

type Error = core.Error
type ErrorKind = core.ErrorKind

type Application = core.Application
type Endpoint = core.Endpoint
type EndpointHeaders = core.EndpointHeaders
type Event = core.Event
type DeliveryAttempt = core.DeliveryAttempt
type DeliveryStatus = core.DeliveryStatus
type RetryStrategy = core.RetryStrategy
type InboundEvent = core.InboundEvent

type Page[T core.Identifiable] = core.Page[T]

type ReplayLedger = core.ReplayLedger
type MetricsRecorder = core.MetricsRecorder

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithTransport       = core.WithTransport
)

const (
	KindConnectionFailed      = core.KindConnectionFailed
	KindConnectTimeout        = core.KindConnectTimeout
	KindReadTimeout           = core.KindReadTimeout
	KindTLSError              = core.KindTLSError
	KindUnknownNetworkError   = core.KindUnknownNetworkError
	KindAuthenticationError   = core.KindAuthenticationError
	KindPaymentRequired       = core.KindPaymentRequired
	KindPermissionError       = core.KindPermissionError
	KindInvalidRequest        = core.KindInvalidRequest
	KindIdempotencyError      = core.KindIdempotencyError
	KindRateLimitError        = core.KindRateLimitError
	KindAPIError              = core.KindAPIError
	KindSignatureVerification = core.KindSignatureVerification
	KindPayloadDecodeError    = core.KindPayloadDecodeError
	KindUsageError            = core.KindUsageError
)

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return core.IsKind(err, kind)
}

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// Client groups the resource APIs over one configured core.Client.
type Client struct {
	core *core.Client

	Applications *resources.ApplicationAPI
	Endpoints    *resources.EndpointAPI
	Events       *resources.EventAPI
}

// New builds a Client for apiKey with the default configuration.
func New(apiKey string, opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.APIKey = apiKey
	return NewClient(cfg, opts...)
}

// NewClient builds a Client from cfg. Unless WithTransport is given, requests
// go through the REST adapter over an http.Client using cfg's timeouts.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	defaults := []Option{WithTransport(transport.NewRESTAdapter(transport.NewHTTPClient(httpConfig(cfg))))}
	client, err := core.NewClient(cfg, append(defaults, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Client{
		core:         client,
		Applications: resources.NewApplicationAPI(client),
		Endpoints:    resources.NewEndpointAPI(client),
		Events:       resources.NewEventAPI(client),
	}, nil
}

func (c *Client) Core() *core.Client {
	if c == nil {
		return nil
	}
	return c.core
}

func (c *Client) Config() Config {
	if c == nil || c.core == nil {
		return Config{}
	}
	return c.core.Config()
}

// Commands are go-command handlers over the client's write operations.
type Commands struct {
	CreateApplication *command.CreateApplicationCommand
	UpdateApplication *command.UpdateApplicationCommand
	DeleteApplication *command.DeleteApplicationCommand
	CreateEndpoint    *command.CreateEndpointCommand
	UpdateEndpoint    *command.UpdateEndpointCommand
	DeleteEndpoint    *command.DeleteEndpointCommand
	PublishEvent      *command.PublishEventCommand
}

// Queries are go-command handlers over the client's read operations.
type Queries struct {
	RetrieveApplication  *query.RetrieveApplicationQuery
	ListApplications     *query.ListApplicationsQuery
	RetrieveEndpoint     *query.RetrieveEndpointQuery
	ListEndpoints        *query.ListEndpointsQuery
	RetrieveEvent        *query.RetrieveEventQuery
	ListEvents           *query.ListEventsQuery
	ListDeliveryAttempts *query.ListDeliveryAttemptsQuery
}

func (c *Client) Commands() Commands {
	if c == nil {
		return Commands{}
	}
	return Commands{
		CreateApplication: command.NewCreateApplicationCommand(c.Applications),
		UpdateApplication: command.NewUpdateApplicationCommand(c.Applications),
		DeleteApplication: command.NewDeleteApplicationCommand(c.Applications),
		CreateEndpoint:    command.NewCreateEndpointCommand(c.Endpoints),
		UpdateEndpoint:    command.NewUpdateEndpointCommand(c.Endpoints),
		DeleteEndpoint:    command.NewDeleteEndpointCommand(c.Endpoints),
		PublishEvent:      command.NewPublishEventCommand(c.Events),
	}
}

func (c *Client) Queries() Queries {
	if c == nil {
		return Queries{}
	}
	return Queries{
		RetrieveApplication:  query.NewRetrieveApplicationQuery(c.Applications),
		ListApplications:     query.NewListApplicationsQuery(c.Applications),
		RetrieveEndpoint:     query.NewRetrieveEndpointQuery(c.Endpoints),
		ListEndpoints:        query.NewListEndpointsQuery(c.Endpoints),
		RetrieveEvent:        query.NewRetrieveEventQuery(c.Events),
		ListEvents:           query.NewListEventsQuery(c.Events),
		ListDeliveryAttempts: query.NewListDeliveryAttemptsQuery(c.Events),
	}
}

// WebhookHandler returns a receiver for deliveries signed with secret. The
// tolerance comes from the client config and the logger is the client's.
func (c *Client) WebhookHandler(secret string, ledger ReplayLedger, events webhooks.EventHandler) *webhooks.Handler {
	handler := webhooks.NewHandler(webhooks.StaticSecret(secret), ledger, events)
	if c != nil && c.core != nil {
		handler.Tolerance = c.core.Config().Webhook.Tolerance
		handler.Logger = c.core.Dependencies().Logger
	}
	return handler
}

// ConstructEvent verifies a webhook delivery and decodes its payload. A zero
// tolerance means the default window.
func ConstructEvent(payload []byte, headers http.Header, secret string, tolerance time.Duration) (InboundEvent, error) {
	return webhooks.ConstructEvent(payload, headers, secret, tolerance)
}

func httpConfig(cfg Config) Config {
	defaults := core.DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaults.OpenTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	return cfg
}
