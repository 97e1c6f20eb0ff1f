// Package account serves the identity endpoints of a basecamp application:
// registration, sign-in and sign-out, email confirmation, password reset
// and signed-in account management.
package account

import (
	"fmt"
	"net/http"

	"github.com/outpost-labs/basecamp"
	"github.com/outpost-labs/basecamp/http/form"
	"github.com/outpost-labs/basecamp/http/middleware"
	"github.com/outpost-labs/basecamp/http/render"
	"github.com/outpost-labs/basecamp/http/router"
	"github.com/outpost-labs/basecamp/identity"
	"github.com/outpost-labs/basecamp/logger"
)

const (
	LoginPath  = "/account/login"
	LogoutPath = "/account/logout"
	ManagePath = "/account/manage"
)

// A Handler holds the services the account endpoints depend on.
type Handler struct {
	render *render.Renderer
	users  *identity.UserManager
	signin *identity.SignInManager
	google *identity.GoogleVerifier
	forms  *form.Decoder
	l      logger.Logger
}

func NewHandler(
	renderer *render.Renderer,
	users *identity.UserManager,
	signin *identity.SignInManager,
	google *identity.GoogleVerifier,
	l logger.Logger,
) (*Handler, error) {
	if renderer == nil || users == nil || signin == nil || l == nil {
		return nil, fmt.Errorf("%w: account handler dependencies cannot be nil", basecamp.ErrBadConfig)
	}

	// google may be nil; the external sign-in routes are then not registered.
	return &Handler{
		render: renderer,
		users:  users,
		signin: signin,
		google: google,
		forms:  form.NewDecoder(),
		l:      l,
	}, nil
}

// UnauthedRoutes are the account endpoints reachable without a session.
// Credential-accepting endpoints carry the provided rate limit.
func (h *Handler) UnauthedRoutes(limit middleware.Adapter) []router.Route {
	limited := []middleware.Adapter{limit}
	routes := []router.Route{
		{Path: "/account/register", Method: http.MethodGet, Handler: h.getRegister},
		{Path: "/account/register", Method: http.MethodPost, Handler: h.postRegister, Middlewares: limited},
		{Path: "/account/confirm", Method: http.MethodGet, Handler: h.getConfirm},
		{Path: LoginPath, Method: http.MethodGet, Handler: h.getLogin},
		{Path: LoginPath, Method: http.MethodPost, Handler: h.postLogin, Middlewares: limited},
		{Path: "/account/twofactor", Method: http.MethodGet, Handler: h.getTwoFactor},
		{Path: "/account/twofactor", Method: http.MethodPost, Handler: h.postTwoFactor, Middlewares: limited},
		{Path: "/account/forgot", Method: http.MethodGet, Handler: h.getForgot},
		{Path: "/account/forgot", Method: http.MethodPost, Handler: h.postForgot, Middlewares: limited},
		{Path: "/account/reset", Method: http.MethodGet, Handler: h.getReset},
		{Path: "/account/reset", Method: http.MethodPost, Handler: h.postReset, Middlewares: limited},
	}

	if h.google != nil {
		routes = append(routes,
			router.Route{Path: "/auth/google", Method: http.MethodGet, Handler: h.getGoogle},
			router.Route{Path: "/auth/google/callback", Method: http.MethodGet, Handler: h.getGoogleCallback},
		)
	}

	return routes
}

// AuthedRoutes are the account endpoints requiring a signed-in user.
func (h *Handler) AuthedRoutes() []router.Route {
	return []router.Route{
		{Path: ManagePath, Method: http.MethodGet, Handler: h.getManage},
		{Path: "/account/manage/email", Method: http.MethodPost, Handler: h.postManageEmail},
		{Path: "/account/manage/password", Method: http.MethodPost, Handler: h.postManagePassword},
		{Path: "/account/manage/twofactor", Method: http.MethodPost, Handler: h.postManageTwoFactor},
		{Path: LogoutPath, Method: http.MethodPost, Handler: h.postLogout},
	}
}

// currentUser pulls the signed-in *basecamp.User from the request context.
func currentUser(r *http.Request) (*basecamp.User, bool) {
	u, ok := r.Context().Value(basecamp.CurrentUserKey).(*basecamp.User)
	return u, ok
}
