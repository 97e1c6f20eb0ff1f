package guide

import (
	"net/http"

	"github.com/outpost-labs/basecamp"
	"github.com/outpost-labs/basecamp/account"
	"github.com/outpost-labs/basecamp/http/middleware"
	"github.com/outpost-labs/basecamp/http/render"
	"github.com/outpost-labs/basecamp/http/router"
	"github.com/outpost-labs/basecamp/http/session"
	"github.com/outpost-labs/basecamp/logger"
	"github.com/outpost-labs/basecamp/postgres"
)

const errorPath = "/error"

// buildRouter assembles the HTTP pipeline.
//
// The every-request stack runs in a fixed order; stages that rewrite the
// request (proxy headers) come before stages that read it, and the session
// must be injected before the current user can be resolved from it.
func (g *Guide) buildRouter(store session.Store, renderer *render.Renderer, accounts *account.Handler) *router.Router {
	r := router.New()

	stack := []middleware.Adapter{
		middleware.ProxyHeaders(),
		middleware.RequestID(basecamp.RequestIDKey),
		middleware.InjectIPAddress(),
		middleware.LogRequest(g.l),
		middleware.CatchPanic(g.cfg.Env, g.l, errorPath),
	}

	if !g.cfg.Env.IsDevelopment() && !g.cfg.Env.IsTesting() {
		stack = append(stack, middleware.HSTS())
	}

	if g.cfg.Env.IsDevelopment() {
		// the migrations endpoints answer curl, not a rendered form
		stack = append(stack, middleware.CSRFExempt("/dev/"))
	}

	stack = append(stack,
		middleware.ForceHTTPS(g.cfg.Env),
		middleware.CSRF(g.cfg.Env, g.cfg.CSRFAuthKey),
		middleware.InjectSession(store, basecamp.SessionKey),
		middleware.CurrentUser(g.userStorer(), basecamp.SessionKey, basecamp.CurrentUserKey, account.LoginPath),
	)
	r.OnEveryRequest(stack...)

	r.Handle(router.Route{Path: "/health", Method: http.MethodGet, Handler: handleHealth})
	r.Handle(router.Route{Path: "/", Method: http.MethodGet, Handler: handleHome(renderer)})
	r.Handle(router.Route{Path: errorPath, Method: http.MethodGet, Handler: handlePage(renderer, "tmpl/pages/error.tmpl")})
	r.HandleNotFound(handleNotFound(renderer))

	limit := middleware.RateLimit(middleware.NewVisitors())
	r.UnauthedRoutes(basecamp.CurrentUserKey, accounts.UnauthedRoutes(limit))
	r.AuthedRoutes(basecamp.CurrentUserKey, account.LoginPath, account.LogoutPath, accounts.AuthedRoutes())

	if g.cfg.Env.IsDevelopment() {
		r.Handle(router.Route{Path: "/dev/migrations", Method: http.MethodGet, Handler: g.handleMigrationStatus(renderer)})
		r.Handle(router.Route{Path: "/dev/migrations", Method: http.MethodPost, Handler: g.handleMigrate(renderer)})
	}

	return r
}

func (g *Guide) userStorer() middleware.UserStorer {
	return func(id uint) (middleware.User, error) {
		u, err := g.users.ByID(id)
		if err != nil {
			return nil, err
		}

		return u, nil
	}
}

// handleHealth reports process liveness for platform checks.
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Healthy"))
}

func handleHome(renderer *render.Renderer) http.HandlerFunc {
	return handlePage(renderer, "tmpl/pages/home.tmpl")
}

func handlePage(renderer *render.Renderer, page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := renderer.HTML(w, r, page, nil); err != nil {
			renderer.Error(w, r, err)
		}
	}
}

func handleNotFound(renderer *render.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		if err := renderer.HTML(w, r, "tmpl/pages/notfound.tmpl", nil); err != nil {
			renderer.Error(w, r, err)
		}
	}
}

// handleMigrationStatus reports whether any migration is still pending.
// Development only.
func (g *Guide) handleMigrationStatus(renderer *render.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pending, err := postgres.HasPending(g.db, g.migrations)
		if err != nil {
			renderer.Error(w, r, err)
			return
		}

		_ = renderer.JSON(w, http.StatusOK, map[string]any{"pending": pending})
	}
}

// handleMigrate applies pending migrations on demand. Development only;
// deployed environments migrate on boot or out of band.
func (g *Guide) handleMigrate(renderer *render.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := postgres.MigrateUp(g.db, g.migrations); err != nil {
			renderer.Error(w, r, err)
			return
		}

		g.l.Info("migrations applied", &logger.LogContext{Request: r})
		_ = renderer.JSON(w, http.StatusOK, map[string]any{"pending": false})
	}
}
