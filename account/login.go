package account

import (
	"errors"
	"net/http"
	"strings"

	"github.com/outpost-labs/basecamp/http/session"
	"github.com/outpost-labs/basecamp/identity"
	"github.com/outpost-labs/basecamp/logger"
)

func (h *Handler) getLogin(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Next":   safeNext(r.URL.Query().Get("next")),
		"Google": h.google != nil,
	}
	if err := h.render.HTML(w, r, "tmpl/account/login.tmpl", data); err != nil {
		h.render.Error(w, r, err)
	}
}

func (h *Handler) postLogin(w http.ResponseWriter, r *http.Request) {
	var f loginForm
	if err := h.forms.Decode(r, &f); err != nil {
		h.render.Redirect(w, r, LoginPath, &session.Flash{Class: session.FlashWarning, Msg: session.BadInputMsg})
		return
	}

	u, err := h.signin.PasswordSignIn(w, r, f.Email, f.Password)
	switch {
	case errors.Is(err, identity.ErrTwoFactorRequired):
		h.render.Redirect(w, r, "/account/twofactor", &session.Flash{Class: session.FlashInfo, Msg: session.TwoFactorMsg})
		return
	case errors.Is(err, identity.ErrLockedOut):
		h.render.Redirect(w, r, LoginPath, &session.Flash{Class: session.FlashWarning, Msg: session.LockedOutMsg})
		return
	case errors.Is(err, identity.ErrEmailNotConfirmed):
		h.render.Redirect(w, r, LoginPath, &session.Flash{Class: session.FlashWarning, Msg: session.NotConfirmedMsg})
		return
	case errors.Is(err, identity.ErrBadCredentials):
		h.render.Redirect(w, r, LoginPath, &session.Flash{Class: session.FlashError, Msg: session.BadCredsMsg})
		return
	case err != nil:
		h.render.Error(w, r, err)
		return
	}

	if next := safeNext(f.Next); next != "" {
		h.render.Redirect(w, r, next, nil)
		return
	}

	h.render.Redirect(w, r, u.HomePath(), nil)
}

func (h *Handler) getTwoFactor(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"Code": r.URL.Query().Get("token")}
	if err := h.render.HTML(w, r, "tmpl/account/twofactor.tmpl", data); err != nil {
		h.render.Error(w, r, err)
	}
}

func (h *Handler) postTwoFactor(w http.ResponseWriter, r *http.Request) {
	var f twoFactorForm
	if err := h.forms.Decode(r, &f); err != nil {
		h.render.Redirect(w, r, "/account/twofactor", &session.Flash{Class: session.FlashWarning, Msg: session.BadInputMsg})
		return
	}

	u, err := h.signin.CompleteTwoFactor(w, r, f.Code)
	switch {
	case errors.Is(err, identity.ErrBadToken):
		h.render.Redirect(w, r, LoginPath, &session.Flash{Class: session.FlashError, Msg: "That sign-in code is no longer valid. Sign in again for a fresh one."})
		return
	case err != nil:
		h.render.Error(w, r, err)
		return
	}

	h.render.Redirect(w, r, u.HomePath(), nil)
}

func (h *Handler) postLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.signin.SignOut(w, r); err != nil {
		h.l.Error("signing out", &logger.LogContext{Error: err, Request: r})
	}

	h.render.Redirect(w, r, LoginPath, nil)
}

// safeNext keeps post-login redirects on this host.
// Anything but a local path ("/..." without a second slash) is dropped.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}

	return next
}
