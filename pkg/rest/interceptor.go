// Package rest splices the patch registry into the REST client's two
// extension points: the top-level request operation and the lower-level
// resolve step that turns a request into wire form.
package rest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/calyptra/gatepatch/internal/errx"
	"github.com/calyptra/gatepatch/pkg/api"
	"github.com/calyptra/gatepatch/pkg/logging"
	"github.com/calyptra/gatepatch/pkg/patch"
)

// Doer is the underlying request operation of the wrapped REST client.
type Doer func(ctx context.Context, req *api.RouteRequest) (*api.Response, error)

// Resolver is the underlying resolve operation producing the wire form
// of a request.
type Resolver func(ctx context.Context, req *api.RouteRequest) (*api.ResolvedRequest, error)

// Interceptor applies route patches around the wrapped client's request
// and resolve operations. Queueing, retry and cancellation stay with the
// underlying client; if a call is aborted its pending post-hook simply
// never fires.
type Interceptor struct {
	reg     *patch.Registry
	session *api.Session
	logger  *slog.Logger
	emitter *logging.Emitter // nil means no event logging
}

func NewInterceptor(reg *patch.Registry, session *api.Session, logger *slog.Logger, emitter *logging.Emitter) *Interceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Interceptor{
		reg:     reg,
		session: session,
		logger:  logger.With("component", "rest"),
		emitter: emitter,
	}
}

// Request runs the full request pipeline: patch selection by the route's
// logical path (exact match first, then first structural template match),
// redirect, pre-hook, the real request, post-hook. The redirect does not
// change which patch applies; selection already happened.
func (i *Interceptor) Request(ctx context.Context, req *api.RouteRequest, next Doer) (*api.Response, error) {
	if next == nil {
		return nil, errx.With(api.ErrHookPointMissing, ": rest client request operation")
	}

	originalRoute := req.Route
	rp, ok := i.reg.Route(req.Route)
	if ok && rp.Redirect != "" {
		req = req.Clone()
		req.Route = rp.Redirect
		i.logger.Debug("route redirected", "from", originalRoute, "to", rp.Redirect)
		if i.emitter != nil {
			_ = i.emitter.Emit(logging.EventRouteRedirect,
				fmt.Sprintf("%s redirected to %s", originalRoute, rp.Redirect),
				originalRoute, nil,
				&logging.RouteRedirectData{From: originalRoute, To: rp.Redirect})
		}
	}

	if ok && rp.Pre != nil {
		var err error
		req, err = rp.Pre(i.session, req)
		if err != nil {
			return nil, err
		}
	}

	if i.emitter != nil {
		_ = i.emitter.Emit(logging.EventHTTPRequest,
			fmt.Sprintf("%s %s", req.Method, req.Route),
			"", nil,
			&logging.HTTPRequestData{
				Method:     req.Method,
				Route:      originalRoute,
				Redirected: req.Route != originalRoute,
				RedirectTo: redirectTarget(originalRoute, req.Route),
			})
	}

	start := time.Now()
	resp, err := next(ctx, req)
	if err != nil {
		return nil, err
	}

	if ok && rp.Post != nil {
		resp, err = rp.Post(i.session, req, resp)
		if err != nil {
			return nil, err
		}
	}

	if i.emitter != nil && resp != nil {
		_ = i.emitter.Emit(logging.EventHTTPResponse,
			fmt.Sprintf("%s %s -> %d", req.Method, req.Route, resp.StatusCode),
			"", nil,
			&logging.HTTPResponseData{
				Method:     req.Method,
				Route:      req.Route,
				StatusCode: resp.StatusCode,
				DurationMS: time.Since(start).Milliseconds(),
				BodyBytes:  int64(len(resp.Body)),
			})
	}
	return resp, nil
}

// Resolve runs the wire-form pipeline: the real resolve, header
// normalization when a patch needs to read or write named headers, then
// the resolve-hook. Forms without an applicable hook pass through
// untouched in whichever header shape the resolver produced.
func (i *Interceptor) Resolve(ctx context.Context, req *api.RouteRequest, next Resolver) (*api.ResolvedRequest, error) {
	if next == nil {
		return nil, errx.With(api.ErrHookPointMissing, ": rest client resolve operation")
	}

	form, err := next(ctx, req)
	if err != nil {
		return nil, err
	}

	rp, ok := i.reg.Route(req.Route)
	if !ok || rp.Resolve == nil {
		return form, nil
	}

	form.Headers = NormalizeForm(form)
	form.HeaderLines = nil

	patched, err := rp.Resolve(i.session, req, form)
	if err != nil {
		return nil, err
	}

	i.logger.Debug("resolved request patched", "route", req.Route)
	if i.emitter != nil {
		_ = i.emitter.Emit(logging.EventHeaderRewrite,
			fmt.Sprintf("resolved form patched for %s", req.Route),
			req.Route, nil,
			&logging.HeaderRewriteData{Route: req.Route})
	}
	return patched, nil
}

func redirectTarget(from, to string) string {
	if from == to {
		return ""
	}
	return to
}
