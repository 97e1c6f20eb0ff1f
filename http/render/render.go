// Package render writes server-rendered HTML responses, redirects and the
// occasional JSON payload, composing pages into authenticated or
// unauthenticated layouts.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"sync"

	"github.com/gorilla/csrf"
	"github.com/outpost-labs/basecamp"
	"github.com/outpost-labs/basecamp/http/session"
	"github.com/outpost-labs/basecamp/logger"
)

const (
	defaultAuthedTmpl   = "tmpl/layout/authed.tmpl"
	defaultUnauthedTmpl = "tmpl/layout/unauthed.tmpl"
	defaultErrTmpl      = "tmpl/error.tmpl"
)

// A Renderer maintains reusable pieces for responding to HTTP requests.
//
// Pages are parsed per response against the layout matching the request's
// authentication state; a page template fills the layout's "content" block.
type Renderer struct {
	l     logger.Logger
	files fs.FS
	fns   template.FuncMap
	pool  *sync.Pool

	authedTmpl   string
	unauthedTmpl string
	errTmpl      string
}

// A Payload is the data every template renders against.
type Payload struct {
	CurrentUser any
	Flashes     []session.Flash
	CSRF        template.HTML
	Data        map[string]any
}

func NewRenderer(files fs.FS, opts ...RendererOptFn) (*Renderer, error) {
	if files == nil {
		return nil, fmt.Errorf("%w: template FS cannot be nil", basecamp.ErrBadConfig)
	}

	d := &Renderer{
		files:        files,
		fns:          template.FuncMap{},
		pool:         &sync.Pool{New: func() any { return new(bytes.Buffer) }},
		authedTmpl:   defaultAuthedTmpl,
		unauthedTmpl: defaultUnauthedTmpl,
		errTmpl:      defaultErrTmpl,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.l == nil {
		d.l = logger.New()
	}

	return d, nil
}

// A RendererOptFn configures the *Renderer under construction.
type RendererOptFn func(*Renderer)

// WithAuthTemplate sets the layout rendered for authenticated requests.
func WithAuthTemplate(name string) RendererOptFn {
	return func(d *Renderer) { d.authedTmpl = name }
}

// WithErrTemplate sets the standalone template rendered by Error.
func WithErrTemplate(name string) RendererOptFn {
	return func(d *Renderer) { d.errTmpl = name }
}

// WithFn makes the function available in templates under the name.
func WithFn(name string, fn any) RendererOptFn {
	return func(d *Renderer) { d.fns[name] = fn }
}

// WithLogger sets the Logger render failures report to.
func WithLogger(l logger.Logger) RendererOptFn {
	return func(d *Renderer) { d.l = l }
}

// WithUnauthTemplate sets the layout rendered for unauthenticated requests.
func WithUnauthTemplate(name string) RendererOptFn {
	return func(d *Renderer) { d.unauthedTmpl = name }
}

// HTML renders the page template inside the layout matching the request's
// authentication state, draining session flashes into the payload.
func (d *Renderer) HTML(w http.ResponseWriter, r *http.Request, page string, data map[string]any) error {
	p := Payload{
		CSRF: csrf.TemplateField(r),
		Data: data,
	}

	layout := d.unauthedTmpl
	if cu := r.Context().Value(basecamp.CurrentUserKey); cu != nil {
		layout = d.authedTmpl
		p.CurrentUser = cu
	}

	if s, ok := r.Context().Value(basecamp.SessionKey).(session.Session); ok {
		p.Flashes = s.Flashes(w, r)
	}

	t, err := template.New(path.Base(layout)).Funcs(d.fns).ParseFS(d.files, layout, page)
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", page, err)
	}

	buf := d.pool.Get().(*bytes.Buffer)
	buf.Reset()
	defer d.pool.Put(buf)

	if err := t.Execute(buf, p); err != nil {
		return fmt.Errorf("cannot execute %q: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = w.Write(buf.Bytes())
	return err
}

// Error renders the standalone error template with a 500,
// falling back to a plain status when even that fails.
func (d *Renderer) Error(w http.ResponseWriter, r *http.Request, cause error) {
	if cause != nil {
		d.l.Error("rendering error page", &logger.LogContext{Error: cause, Request: r})
	}

	t, err := template.New(path.Base(d.errTmpl)).Funcs(d.fns).ParseFS(d.files, d.errTmpl)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	buf := d.pool.Get().(*bytes.Buffer)
	buf.Reset()
	defer d.pool.Put(buf)

	if err := t.Execute(buf, nil); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write(buf.Bytes())
}

// Redirect sends the client to url with a 303,
// optionally setting a flash for the next render.
func (d *Renderer) Redirect(w http.ResponseWriter, r *http.Request, url string, flash *session.Flash) {
	if flash != nil {
		if s, ok := r.Context().Value(basecamp.SessionKey).(session.Session); ok {
			if err := s.SetFlash(w, r, *flash); err != nil {
				d.l.Error("setting flash", &logger.LogContext{Error: err, Request: r})
			}
		}
	}

	http.Redirect(w, r, url, http.StatusSeeOther)
}

// JSON writes data as a JSON response with the given status code.
func (d *Renderer) JSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
