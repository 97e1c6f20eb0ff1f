// Package router routes requests for resources to their location
// in a standard basecamp app layout.
package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/outpost-labs/basecamp"
	"github.com/outpost-labs/basecamp/http/middleware"
)

const (
	assetsPath       = "/assets/"
	assetsPublicPath = "assets/public/"
)

// A Route maps a path and HTTP method to an [http.HandlerFunc].
// Additional [middleware.Adapter] can be called when a server handles
// a request matching the Route.
type Route struct {
	Path        string
	Method      string
	Handler     http.HandlerFunc
	Middlewares []middleware.Adapter
}

// Router applies an every-request middleware stack ahead of each
// registered Route's handler.
type Router struct {
	everyReqStack []middleware.Adapter
	r             *mux.Router
}

// New constructs a *Router serving static assets under /assets/.
func New() *Router {
	r := mux.NewRouter()

	assetsServer := http.FileServer(http.Dir(assetsPublicPath))
	r.PathPrefix(assetsPath).Handler(middleware.Chain(
		http.StripPrefix(assetsPath, assetsServer),
		cacheControlMiddleware(),
	))

	return &Router{r: r}
}

// AuthedRoutes registers the set of Routes as those requiring authentication,
// using middleware.RequireAuthed after the given middlewares.
func (r *Router) AuthedRoutes(userKey basecamp.Key, loginURL, logoffURL string, routes []Route, middlewares ...middleware.Adapter) {
	mws := append(middlewares, middleware.RequireAuthed(userKey, loginURL, logoffURL))
	r.HandleRoutes(routes, mws...)
}

// UnauthedRoutes registers the set of Routes as those requiring unauthenticated users.
func (r *Router) UnauthedRoutes(userKey basecamp.Key, routes []Route, middlewares ...middleware.Adapter) {
	r.HandleRoutes(routes, append(middlewares, middleware.RequireUnauthed(userKey))...)
}

// Handle applies the [Route] to the [*Router].
func (r *Router) Handle(route Route) {
	r.HandleRoutes([]Route{route})
}

// HandleNotFound sets the provided [http.HandlerFunc] as the default function
// for when no other registered Route is matched.
func (r *Router) HandleNotFound(handler http.HandlerFunc) {
	r.r.NotFoundHandler = middleware.Chain(handler, r.everyReqStack...)
}

// HandleRoutes registers the set of Routes on the Router
// and includes all the [middleware.Adapter] on each Route.
// Any [middleware.Adapter] already assigned to a Route is appended to middlewares,
// so are called after the default set.
func (r *Router) HandleRoutes(routes []Route, middlewares ...middleware.Adapter) {
	for _, route := range routes {
		mws := append([]middleware.Adapter{}, r.everyReqStack...)
		mws = append(mws, middlewares...)
		mws = append(mws, route.Middlewares...)
		r.r.Handle(route.Path, middleware.Chain(route.Handler, mws...)).Methods(route.Method)
	}
}

// OnEveryRequest appends the middlewares to the existing stack
// that the [*Router] will apply to every request.
func (r *Router) OnEveryRequest(middlewares ...middleware.Adapter) {
	r.everyReqStack = append(r.everyReqStack, middlewares...)
}

// ServeHTTP responds to an HTTP request.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.r.ServeHTTP(w, req)
}

// cacheControlMiddleware helps by adding a "Cache-Control" header to the response.
func cacheControlMiddleware() middleware.Adapter {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "max-age=2592000") // 30 days
			handler.ServeHTTP(w, r)
		})
	}
}
