package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/outpost-labs/basecamp"
	"github.com/outpost-labs/basecamp/http/middleware"
	"github.com/outpost-labs/basecamp/http/router"
	"github.com/stretchr/testify/require"
)

func tagged(order *[]string, name string) middleware.Adapter {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*order = append(*order, name)
			h.ServeHTTP(w, r)
		})
	}
}

func TestRouterHandle(t *testing.T) {
	// Arrange
	r := router.New()
	r.Handle(router.Route{
		Path:    "/health",
		Method:  http.MethodGet,
		Handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("Healthy")) },
	})
	w := httptest.NewRecorder()

	// Act
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Healthy", w.Body.String())

	// Act: wrong method does not match.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/health", nil))

	// Assert
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRouterMiddlewareOrder(t *testing.T) {
	// Arrange: every-request stack runs first, then per-registration,
	// then per-route middlewares.
	var order []string
	r := router.New()
	r.OnEveryRequest(tagged(&order, "every"))
	r.HandleRoutes([]router.Route{{
		Path:        "/page",
		Method:      http.MethodGet,
		Handler:     func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) },
		Middlewares: []middleware.Adapter{tagged(&order, "route")},
	}}, tagged(&order, "registration"))
	w := httptest.NewRecorder()

	// Act
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/page", nil))

	// Assert
	require.Equal(t, []string{"every", "registration", "route"}, order)
	require.Equal(t, http.StatusTeapot, w.Code)
}

func TestRouterUnauthedRoutes(t *testing.T) {
	// Arrange
	r := router.New()
	r.UnauthedRoutes(basecamp.CurrentUserKey, []router.Route{{
		Path:    "/account/login",
		Method:  http.MethodGet,
		Handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) },
	}})
	w := httptest.NewRecorder()

	// Act: no current user in context, the route serves.
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/account/login", nil))

	// Assert
	require.Equal(t, http.StatusTeapot, w.Code)
}

func TestRouterAuthedRoutes(t *testing.T) {
	// Arrange
	r := router.New()
	r.AuthedRoutes(basecamp.CurrentUserKey, "/account/login", "/account/logout", []router.Route{{
		Path:    "/account/manage",
		Method:  http.MethodGet,
		Handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) },
	}})
	w := httptest.NewRecorder()

	// Act: no current user in context, the guard bounces to login.
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/account/manage", nil))

	// Assert
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	require.Contains(t, w.Header().Get("Location"), "/account/login")
}

func TestRouterHandleNotFound(t *testing.T) {
	// Arrange
	r := router.New()
	r.HandleNotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("nothing here"))
	})
	w := httptest.NewRecorder()

	// Act
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	// Assert
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "nothing here", w.Body.String())
}
