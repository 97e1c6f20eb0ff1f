package account

import (
	"errors"
	"net/http"

	"github.com/outpost-labs/basecamp"
	"github.com/outpost-labs/basecamp/http/session"
	"github.com/outpost-labs/basecamp/identity"
	"github.com/outpost-labs/basecamp/logger"
)

func (h *Handler) getRegister(w http.ResponseWriter, r *http.Request) {
	if err := h.render.HTML(w, r, "tmpl/account/register.tmpl", nil); err != nil {
		h.render.Error(w, r, err)
	}
}

func (h *Handler) postRegister(w http.ResponseWriter, r *http.Request) {
	var f registerForm
	if err := h.forms.Decode(r, &f); err != nil {
		h.render.Redirect(w, r, "/account/register", &session.Flash{Class: session.FlashWarning, Msg: session.BadInputMsg})
		return
	}

	_, err := h.users.Register(r.Context(), f.Email, f.Password)
	switch {
	case errors.Is(err, identity.ErrEmailTaken):
		h.render.Redirect(w, r, "/account/register", &session.Flash{Class: session.FlashWarning, Msg: "That email already has an account. Try signing in instead."})
		return
	case errors.Is(err, identity.ErrWeakPassword), errors.Is(err, basecamp.ErrNotValid):
		h.render.Redirect(w, r, "/account/register", &session.Flash{Class: session.FlashWarning, Msg: session.BadInputMsg})
		return
	case err != nil:
		h.render.Error(w, r, err)
		return
	}

	h.render.Redirect(w, r, LoginPath, &session.Flash{Class: session.FlashInfo, Msg: session.ConfirmSentMsg})
}

func (h *Handler) getConfirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.render.Redirect(w, r, LoginPath, &session.Flash{Class: session.FlashWarning, Msg: session.BadInputMsg})
		return
	}

	u, err := h.users.ConfirmEmail(token)
	switch {
	case errors.Is(err, identity.ErrBadToken):
		h.render.Redirect(w, r, LoginPath, &session.Flash{Class: session.FlashError, Msg: "That confirmation link is no longer valid. Sign in to request a new one."})
		return
	case err != nil:
		h.render.Error(w, r, err)
		return
	}

	h.l.Info("email confirmed", &logger.LogContext{Request: r, Data: map[string]any{"user": u.ID}})
	h.render.Redirect(w, r, LoginPath, &session.Flash{Class: session.FlashSuccess, Msg: "Email confirmed! You can sign in now."})
}
