package transport

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/calyptra/gatepatch/internal/errx"
	"github.com/calyptra/gatepatch/pkg/api"
	"github.com/calyptra/gatepatch/pkg/rest"
)

// RESTClient performs logical route requests against a base URL, running
// both interception points: Request around the whole operation and
// Resolve over the wire form before bytes leave the process.
type RESTClient struct {
	baseURL     string
	httpClient  *http.Client
	session     *api.Session
	interceptor *rest.Interceptor
	logger      *slog.Logger
}

func NewRESTClient(baseURL string, session *api.Session, interceptor *rest.Interceptor, logger *slog.Logger) *RESTClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &RESTClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{},
		session:     session,
		interceptor: interceptor,
		logger:      logger.With("component", "transport"),
	}
}

// Do runs a logical request through the request interception point.
func (c *RESTClient) Do(ctx context.Context, req *api.RouteRequest) (*api.Response, error) {
	return c.interceptor.Request(ctx, req, c.perform)
}

// perform resolves the request into wire form (through the resolve
// interception point) and executes it.
func (c *RESTClient) perform(ctx context.Context, req *api.RouteRequest) (*api.Response, error) {
	form, err := c.interceptor.Resolve(ctx, req, c.resolve)
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, form.URL, body)
	if err != nil {
		return nil, errx.Wrap(ErrBuildRequest, err)
	}

	headers := rest.NormalizeForm(form)
	for _, name := range headers.Keys() {
		httpReq.Header.Set(name, headers.Get(name))
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errx.Wrap(ErrPerformRequest, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errx.Wrap(ErrReadResponse, err)
	}

	c.logger.Debug("request complete",
		"method", method,
		"route", req.Route,
		"status", httpResp.StatusCode,
		"bytes", len(respBody),
	)

	return &api.Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}, nil
}

// resolve is the base resolver: join the base URL with the logical
// route, attach authentication and the injected identity string. The
// user-agent goes on every outgoing request.
func (c *RESTClient) resolve(ctx context.Context, req *api.RouteRequest) (*api.ResolvedRequest, error) {
	u := c.baseURL + req.Route
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	h := api.NewHeaders()
	if c.session.Token != "" {
		h.Set("Authorization", c.session.Token)
	}
	if c.session.UserAgent != "" {
		h.Set("User-Agent", c.session.UserAgent)
	}
	if len(req.Body) > 0 {
		h.Set("Content-Type", "application/json")
	}
	for name, values := range req.Headers {
		if len(values) > 0 {
			h.Set(name, values[0])
		}
	}

	return &api.ResolvedRequest{URL: u, Headers: h}, nil
}
