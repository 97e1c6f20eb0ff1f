package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/outpost-labs/basecamp"
	"github.com/outpost-labs/basecamp/http/middleware"
	"github.com/stretchr/testify/require"
)

func panickingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}
}

func TestCatchPanic(t *testing.T) {
	t.Run("DevelopmentRendersDiagnostics", func(t *testing.T) {
		// Arrange
		handler := middleware.Chain(panickingHandler(), middleware.CatchPanic(basecamp.Development, nil, "/error"))
		w := httptest.NewRecorder()

		// Act
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

		// Assert
		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.Contains(t, w.Body.String(), "kaboom")
		require.Contains(t, w.Body.String(), "goroutine")
	})

	t.Run("ProductionRedirectsWithoutLeaking", func(t *testing.T) {
		// Arrange
		handler := middleware.Chain(panickingHandler(), middleware.CatchPanic(basecamp.Production, nil, "/error"))
		w := httptest.NewRecorder()

		// Act
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

		// Assert
		require.Equal(t, http.StatusSeeOther, w.Code)
		require.Equal(t, "/error", w.Header().Get("Location"))
		require.NotContains(t, w.Body.String(), "kaboom")
		require.NotContains(t, w.Body.String(), "goroutine")
	})

	t.Run("NoPanicPassesThrough", func(t *testing.T) {
		// Arrange
		handler := middleware.Chain(teapotHandler(), middleware.CatchPanic(basecamp.Production, nil, "/error"))
		w := httptest.NewRecorder()

		// Act
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		// Assert
		require.Equal(t, http.StatusTeapot, w.Code)
	})
}
