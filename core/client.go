package core

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	HeaderAuthorization  = "Authorization"
	HeaderContentType    = "Content-Type"
	HeaderUserAgent      = "User-Agent"
	HeaderIdempotencyKey = "Idempotency-Key"
)

var duplicateSlashes = regexp.MustCompile(`/+`)

// APIRequest describes one call against the SimplyQ API. Path is joined to the
// configured base URL; Body, when set, is encoded as JSON.
type APIRequest struct {
	Operation      string
	Method         string
	Path           string
	Query          map[string]string
	Headers        map[string]string
	Body           any
	IdempotencyKey string
}

type Client struct {
	config          Config
	transport       TransportAdapter
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
}

type ClientDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorMapper     ErrorMapper
	Transport       TransportAdapter
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	builder := defaultClientBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("simplyq", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("simplyq"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = MapServiceError
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.transport == nil {
		return nil, goerrors.New("core: transport adapter is required", goerrors.CategoryInternal).
			WithCode(http.StatusInternalServerError).
			WithTextCode(ErrorCodeInternal)
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	return &Client{
		config:          finalConfig,
		transport:       builder.transport,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorMapper:     builder.errorMapper,
	}, nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (c *Client) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.config
}

func (c *Client) Dependencies() ClientDependencies {
	if c == nil {
		return ClientDependencies{}
	}
	return ClientDependencies{
		Logger:          c.logger,
		LoggerProvider:  c.loggerProvider,
		MetricsRecorder: c.metricsRecorder,
		ErrorMapper:     c.errorMapper,
		Transport:       c.transport,
	}
}

// Call executes req and returns the response when the status is 2xx. Any
// other outcome is returned as *Error.
func (c *Client) Call(ctx context.Context, req APIRequest) (res TransportResponse, err error) {
	if c == nil || c.transport == nil {
		return TransportResponse{}, NewUsageError("client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	fields := map[string]any{"method": method, "path": req.Path}
	defer func() {
		if res.StatusCode > 0 {
			fields["status_code"] = res.StatusCode
		}
		if kind, ok := KindOf(err); ok {
			fields["error_kind"] = string(kind)
		}
		c.observeOperation(ctx, startedAt, operationName(req.Operation, method), err, fields)
	}()

	if err := checkAPIKey(c.config.APIKey); err != nil {
		return TransportResponse{}, err
	}

	var body []byte
	if req.Body != nil {
		encoded, encodeErr := json.Marshal(req.Body)
		if encodeErr != nil {
			return TransportResponse{}, &Error{
				Kind:    KindUsageError,
				Message: "Request body could not be encoded as JSON: " + encodeErr.Error(),
				Cause:   encodeErr,
			}
		}
		body = encoded
		if c.config.Debugging {
			c.logDebug(ctx, "HTTP request body", map[string]any{"body": RedactJSONBody(body), "path": req.Path})
		}
	}

	out, doErr := c.transport.Do(ctx, TransportRequest{
		Method:  method,
		URL:     buildRequestURL(c.config.BaseURL, req.Path),
		Headers: c.requestHeaders(req),
		Query:   req.Query,
		Body:    body,
		Timeout: c.config.Timeout,
		Metadata: map[string]any{
			"operation": req.Operation,
		},
	})
	if doErr != nil {
		return TransportResponse{}, ClassifyNetworkError(doErr, c.config.BaseURL)
	}
	if c.config.Debugging {
		c.logDebug(ctx, "HTTP response body", map[string]any{"body": RedactJSONBody(out.Body), "status_code": out.StatusCode})
	}
	if out.StatusCode < 200 || out.StatusCode > 299 {
		return out, ClassifyResponse(out)
	}
	return out, nil
}

func (c *Client) requestHeaders(req APIRequest) map[string]string {
	headers := map[string]string{
		HeaderContentType:   "application/json",
		HeaderUserAgent:     c.config.userAgent(),
		HeaderAuthorization: "Bearer " + c.config.APIKey,
	}
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		headers[HeaderIdempotencyKey] = key
	}
	for key, value := range req.Headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		headers[key] = value
	}
	return headers
}

func checkAPIKey(key string) error {
	if key == "" {
		return &Error{Kind: KindAuthenticationError, Message: "No API key provided."}
	}
	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return &Error{Kind: KindAuthenticationError, Message: "Invalid API key as it includes spaces"}
	}
	return nil
}

func buildRequestURL(baseURL string, path string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return base + duplicateSlashes.ReplaceAllString("/"+path, "/")
}

func operationName(operation string, method string) string {
	if strings.TrimSpace(operation) != "" {
		return operation
	}
	return "call_" + strings.ToLower(method)
}

// DecodeJSON decodes a success body into out and normalizes model timestamps.
func DecodeJSON(res TransportResponse, out any) error {
	if len(bytes.TrimSpace(res.Body)) == 0 {
		return invalidJSONError(res.Body, nil)
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return invalidJSONError(res.Body, err)
	}
	normalizeModel(out)
	return nil
}

func invalidJSONError(body []byte, cause error) *Error {
	return &Error{
		Kind:     KindAPIError,
		Message:  "Invalid JSON in response body.",
		HTTPBody: body,
		Cause:    cause,
	}
}
