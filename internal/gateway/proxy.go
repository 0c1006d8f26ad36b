package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httperror"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

type routeContextKey struct{}

func saveRouteInContext(ctx context.Context, route Route) context.Context {
	return context.WithValue(ctx, routeContextKey{}, route)
}

func routeFromContext(ctx context.Context) (Route, bool) {
	route, ok := ctx.Value(routeContextKey{}).(Route)
	return route, ok
}

// upstreamProxy forwards requests to one route's upstream, with the route's
// prefix stripping and timeout applied.
type upstreamProxy struct {
	route Route
	proxy *httputil.ReverseProxy
}

func newUpstreamProxy(route Route) (*upstreamProxy, error) {
	target, err := url.Parse(route.Upstream)
	if err != nil {
		return nil, fmt.Errorf("parsing upstream %q: %w", route.Upstream, err)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)

	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		req.URL.Path = stripPathSegments(req.URL.Path, route.StripPrefix)
		req.URL.RawPath = ""
		originalDirector(req)
		req.Host = target.Host
	}

	proxy.ErrorHandler = func(rw http.ResponseWriter, req *http.Request, err error) {
		ctx := req.Context()
		log.Ctx(ctx).WithError(err).Errorf("Proxying %s %s to %s", req.Method, req.URL.Path, route.Upstream)
		httperror.BadGateway("", err, nil).WithErrorCode(httperror.Code502_0).Render(rw)
	}

	return &upstreamProxy{route: route, proxy: proxy}, nil
}

func (p *upstreamProxy) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), p.route.Timeout())
	defer cancel()

	p.proxy.ServeHTTP(rw, req.WithContext(ctx))
}

func buildUpstreamProxies(routes *RouteTable) (map[string]http.Handler, error) {
	proxies := make(map[string]http.Handler, len(routes.Routes()))
	for _, route := range routes.Routes() {
		proxy, err := newUpstreamProxy(route)
		if err != nil {
			return nil, fmt.Errorf("building the proxy for prefix %q: %w", route.Prefix, err)
		}
		proxies[route.Prefix] = proxy
	}
	return proxies, nil
}

// proxyHandler is the terminal handler of the gateway chain: it forwards the
// request to the upstream of the route resolved earlier in the chain.
func proxyHandler(proxies map[string]http.Handler) http.HandlerFunc {
	return func(rw http.ResponseWriter, req *http.Request) {
		route, ok := routeFromContext(req.Context())
		if !ok {
			httperror.NotFound("", nil, nil).Render(rw)
			return
		}
		proxies[route.Prefix].ServeHTTP(rw, req)
	}
}
