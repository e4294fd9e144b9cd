package datagov

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lei/datagov-gateway/pkg/logger"
)

const (
	// BaseEndpoint is the data.gov.gr query API root
	BaseEndpoint = "https://data.gov.gr/api/v1/query"

	// DateLayout is the format of the date_from and date_to parameters
	DateLayout = "2006-01-02"

	defaultTimeout = 30 * time.Second
)

// Transport sends one HTTP request. *http.Client satisfies it.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// Logger receives the gateway's diagnostics
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

// Gateway queries data.gov.gr resources and decodes them into typed
// collections. A Gateway is safe for concurrent use as long as its
// Transport is.
type Gateway struct {
	transport Transport
	token     string
	registry  *Registry
	logger    Logger
}

// Option configures a Gateway
type Option func(*Gateway)

// WithTransport sets the transport used to send requests. A nil t keeps the default.
func WithTransport(t Transport) Option {
	return func(g *Gateway) {
		if t != nil {
			g.transport = t
		}
	}
}

// WithHTTPClient sends requests through c. A nil c keeps the default.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) {
		if c != nil {
			g.transport = c
		}
	}
}

// WithRegistry replaces the default registry. The registry is frozen.
// A nil r keeps the default.
func WithRegistry(r *Registry) Option {
	return func(g *Gateway) {
		if r != nil {
			g.registry = r
		}
	}
}

// WithLogger sets the logger. A nil l keeps the default.
func WithLogger(l Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a Gateway authenticating with token
func New(token string, opts ...Option) *Gateway {
	g := &Gateway{
		transport: &http.Client{Timeout: defaultTimeout},
		token:     token,
		registry:  DefaultRegistry(),
		logger:    logger.Discard(),
	}

	for _, opt := range opts {
		opt(g)
	}

	g.registry.Freeze()
	return g
}

// Registry returns the registry the gateway dispatches through
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// Fetch queries resourceID for the calendar dates of from and to and
// returns the records as the resource's collection type. Fetch is
// all-or-nothing: on error no records are returned.
func (g *Gateway) Fetch(ctx context.Context, resourceID string, from, to time.Time) (Result, error) {
	desc, ok := g.registry.Lookup(resourceID)
	if !ok {
		return nil, &UnknownResourceError{Resource: resourceID}
	}

	items, err := g.query(ctx, resourceID, from, to)
	if err != nil {
		return nil, err
	}

	return desc.decode(items)
}

// FetchResource is the typed form of Fetch. The resource must be registered
// in the gateway's registry.
func FetchResource[T any](ctx context.Context, g *Gateway, res *Resource[T], from, to time.Time) (*Collection[T], error) {
	if desc, ok := g.registry.Lookup(res.ID()); !ok || desc != Descriptor(res) {
		return nil, &UnknownResourceError{Resource: res.ID()}
	}

	items, err := g.query(ctx, res.ID(), from, to)
	if err != nil {
		return nil, err
	}

	return res.records(items)
}

// query performs the authorized request and returns the raw payload items
func (g *Gateway) query(ctx context.Context, resourceID string, from, to time.Time) ([]json.RawMessage, error) {
	req, err := g.newRequest(ctx, resourceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	g.logger.Debug("datagov: http request",
		"resource", resourceID,
		"url", req.URL.String())

	resp, err := g.transport.Do(req)
	if err != nil {
		g.logger.Error("datagov: http request failed",
			"resource", resourceID,
			"error", err.Error())
		return nil, &TransportError{Resource: resourceID, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		g.logger.Error("datagov: reading response body failed",
			"resource", resourceID,
			"status", resp.StatusCode,
			"error", err.Error())
		return nil, &TransportError{Resource: resourceID, Err: fmt.Errorf("read body: %w", err)}
	}

	g.logger.Debug("datagov: http response",
		"resource", resourceID,
		"status", resp.StatusCode,
		"bytes", len(body))

	if err := checkStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return decodeItems(resp.StatusCode, body)
}

// newRequest builds GET {BaseEndpoint}/{resourceID}?date_from=..&date_to=..
func (g *Gateway) newRequest(ctx context.Context, resourceID string, from, to time.Time) (*http.Request, error) {
	u, err := url.Parse(BaseEndpoint)
	if err != nil {
		return nil, err
	}
	u = u.JoinPath(resourceID)

	q := url.Values{}
	q.Set("date_from", from.Format(DateLayout))
	q.Set("date_to", to.Format(DateLayout))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Token "+g.token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// checkStatus classifies the response status
func checkStatus(status int, body []byte) error {
	switch status {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusUnauthorized:
		var payload struct {
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return &UnauthorizedError{Detail: string(body), Err: err}
		}
		return &UnauthorizedError{Detail: payload.Detail}
	default:
		return &BadRequestError{StatusCode: status, Body: string(body)}
	}
}

// decodeItems splits a success body into its array elements
func decodeItems(status int, body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &BadRequestError{
			StatusCode: status,
			Body:       "Invalid response body",
			Err:        errors.New("expected JSON array"),
		}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, &BadRequestError{StatusCode: status, Body: "Invalid response body", Err: err}
	}

	return items, nil
}
