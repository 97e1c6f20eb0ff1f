package render_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/outpost-labs/basecamp"
	"github.com/outpost-labs/basecamp/http/render"
	"github.com/outpost-labs/basecamp/http/session"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"tmpl/layout/authed.tmpl": {
			Data: []byte(`<body class="authed">{{block "content" .}}{{end}}</body>`),
		},
		"tmpl/layout/unauthed.tmpl": {
			Data: []byte(`<body class="unauthed">{{range .Flashes}}[{{.Class}}: {{.Msg}}]{{end}}{{block "content" .}}{{end}}</body>`),
		},
		"tmpl/error.tmpl": {
			Data: []byte(`<body>uh oh</body>`),
		},
		"tmpl/pages/home.tmpl": {
			Data: []byte(`{{define "content"}}hello {{if .CurrentUser}}{{.CurrentUser.Email}}{{else}}stranger{{end}}{{end}}`),
		},
	}
}

func TestNewRenderer(t *testing.T) {
	// Arrange & Act
	d, err := render.NewRenderer(nil)

	// Assert
	require.ErrorIs(t, err, basecamp.ErrBadConfig)
	require.Nil(t, d)
}

func TestRendererHTML(t *testing.T) {
	t.Run("UnauthedLayout", func(t *testing.T) {
		// Arrange
		d, err := render.NewRenderer(testFS())
		require.NoError(t, err)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		// Act
		err = d.HTML(w, r, "tmpl/pages/home.tmpl", nil)

		// Assert
		require.NoError(t, err)
		require.Contains(t, w.Body.String(), `class="unauthed"`)
		require.Contains(t, w.Body.String(), "hello stranger")
	})

	t.Run("AuthedLayout", func(t *testing.T) {
		// Arrange
		d, err := render.NewRenderer(testFS())
		require.NoError(t, err)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := context.WithValue(r.Context(), basecamp.CurrentUserKey, basecamp.User{Email: "me@example.com"})

		// Act
		err = d.HTML(w, r.WithContext(ctx), "tmpl/pages/home.tmpl", nil)

		// Assert
		require.NoError(t, err)
		require.Contains(t, w.Body.String(), `class="authed"`)
		require.Contains(t, w.Body.String(), "hello me@example.com")
	})

	t.Run("DrainsFlashes", func(t *testing.T) {
		// Arrange
		d, err := render.NewRenderer(testFS())
		require.NoError(t, err)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		sess, err := session.NewStub(0).GetSession(r)
		require.NoError(t, err)
		require.NoError(t, sess.SetFlash(w, r, session.Flash{Class: session.FlashInfo, Msg: "heads up"}))

		ctx := context.WithValue(r.Context(), basecamp.SessionKey, sess)

		// Act
		err = d.HTML(w, r.WithContext(ctx), "tmpl/pages/home.tmpl", nil)

		// Assert
		require.NoError(t, err)
		require.Contains(t, w.Body.String(), "[info: heads up]")
		require.Empty(t, sess.Flashes(w, r))
	})

	t.Run("MissingPage", func(t *testing.T) {
		// Arrange
		d, err := render.NewRenderer(testFS())
		require.NoError(t, err)

		// Act
		err = d.HTML(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), "tmpl/pages/missing.tmpl", nil)

		// Assert
		require.Error(t, err)
	})
}

func TestRendererError(t *testing.T) {
	// Arrange
	d, err := render.NewRenderer(testFS())
	require.NoError(t, err)

	w := httptest.NewRecorder()

	// Act
	d.Error(w, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("boom"))

	// Assert
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "uh oh")
}

func TestRendererRedirect(t *testing.T) {
	// Arrange
	d, err := render.NewRenderer(testFS())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/somewhere", nil)

	sess, err := session.NewStub(0).GetSession(r)
	require.NoError(t, err)
	ctx := context.WithValue(r.Context(), basecamp.SessionKey, sess)

	// Act
	d.Redirect(w, r.WithContext(ctx), "/elsewhere", &session.Flash{Class: session.FlashSuccess, Msg: "done"})

	// Assert
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/elsewhere", w.Header().Get("Location"))
	require.Equal(t, []session.Flash{{Class: session.FlashSuccess, Msg: "done"}}, sess.Flashes(w, r))
}

func TestRendererJSON(t *testing.T) {
	// Arrange
	d, err := render.NewRenderer(testFS())
	require.NoError(t, err)

	w := httptest.NewRecorder()

	// Act
	err = d.JSON(w, http.StatusCreated, map[string]any{"ok": true})

	// Assert
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, w.Code)
	require.JSONEq(t, `{"ok": true}`, w.Body.String())
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
}
