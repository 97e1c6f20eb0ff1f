package account

import (
	"errors"
	"net/http"

	"github.com/outpost-labs/basecamp/http/session"
	"github.com/outpost-labs/basecamp/identity"
	"github.com/outpost-labs/basecamp/logger"
)

func (h *Handler) getForgot(w http.ResponseWriter, r *http.Request) {
	if err := h.render.HTML(w, r, "tmpl/account/forgot.tmpl", nil); err != nil {
		h.render.Error(w, r, err)
	}
}

func (h *Handler) postForgot(w http.ResponseWriter, r *http.Request) {
	var f forgotForm
	if err := h.forms.Decode(r, &f); err != nil {
		h.render.Redirect(w, r, "/account/forgot", &session.Flash{Class: session.FlashWarning, Msg: session.BadInputMsg})
		return
	}

	// The outcome reads the same whether or not the address has an account.
	if err := h.users.SendPasswordReset(r.Context(), f.Email); err != nil {
		h.l.Error("sending password reset", &logger.LogContext{Error: err, Request: r})
	}

	h.render.Redirect(w, r, LoginPath, &session.Flash{Class: session.FlashInfo, Msg: session.LinkSentMsg})
}

func (h *Handler) getReset(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"Token": r.URL.Query().Get("token")}
	if err := h.render.HTML(w, r, "tmpl/account/reset.tmpl", data); err != nil {
		h.render.Error(w, r, err)
	}
}

func (h *Handler) postReset(w http.ResponseWriter, r *http.Request) {
	var f resetForm
	if err := h.forms.Decode(r, &f); err != nil {
		h.render.Redirect(w, r, "/account/forgot", &session.Flash{Class: session.FlashWarning, Msg: session.BadInputMsg})
		return
	}

	_, err := h.users.ResetPassword(f.Token, f.Password)
	switch {
	case errors.Is(err, identity.ErrBadToken):
		h.render.Redirect(w, r, "/account/forgot", &session.Flash{Class: session.FlashError, Msg: "That reset link is no longer valid. Request a new one."})
		return
	case errors.Is(err, identity.ErrWeakPassword):
		h.render.Redirect(w, r, "/account/reset?token="+f.Token, &session.Flash{Class: session.FlashWarning, Msg: session.BadInputMsg})
		return
	case err != nil:
		h.render.Error(w, r, err)
		return
	}

	h.render.Redirect(w, r, LoginPath, &session.Flash{Class: session.FlashSuccess, Msg: "Password updated. Sign in with your new password."})
}
