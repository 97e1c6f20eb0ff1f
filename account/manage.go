package account

import (
	"errors"
	"net/http"

	"github.com/outpost-labs/basecamp"
	"github.com/outpost-labs/basecamp/http/session"
	"github.com/outpost-labs/basecamp/identity"
)

func (h *Handler) getManage(w http.ResponseWriter, r *http.Request) {
	if err := h.render.HTML(w, r, "tmpl/account/manage.tmpl", nil); err != nil {
		h.render.Error(w, r, err)
	}
}

func (h *Handler) postManageEmail(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		h.render.Error(w, r, basecamp.ErrNoSession)
		return
	}

	var f changeEmailForm
	if err := h.forms.Decode(r, &f); err != nil {
		h.render.Redirect(w, r, ManagePath, &session.Flash{Class: session.FlashWarning, Msg: session.BadInputMsg})
		return
	}

	err := h.users.ChangeEmail(r.Context(), u, f.Email, f.Password)
	switch {
	case errors.Is(err, identity.ErrBadCredentials):
		h.render.Redirect(w, r, ManagePath, &session.Flash{Class: session.FlashError, Msg: session.BadCredsMsg})
		return
	case errors.Is(err, identity.ErrEmailTaken), errors.Is(err, basecamp.ErrNotValid):
		h.render.Redirect(w, r, ManagePath, &session.Flash{Class: session.FlashWarning, Msg: session.BadInputMsg})
		return
	case err != nil:
		h.render.Error(w, r, err)
		return
	}

	// The fresh address needs confirming before the next sign-in.
	h.render.Redirect(w, r, ManagePath, &session.Flash{Class: session.FlashInfo, Msg: session.ConfirmSentMsg})
}

func (h *Handler) postManagePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		h.render.Error(w, r, basecamp.ErrNoSession)
		return
	}

	var f changePasswordForm
	if err := h.forms.Decode(r, &f); err != nil {
		h.render.Redirect(w, r, ManagePath, &session.Flash{Class: session.FlashWarning, Msg: session.BadInputMsg})
		return
	}

	err := h.users.ChangePassword(u, f.Current, f.Updated)
	switch {
	case errors.Is(err, identity.ErrBadCredentials):
		h.render.Redirect(w, r, ManagePath, &session.Flash{Class: session.FlashError, Msg: session.BadCredsMsg})
		return
	case errors.Is(err, identity.ErrWeakPassword):
		h.render.Redirect(w, r, ManagePath, &session.Flash{Class: session.FlashWarning, Msg: session.BadInputMsg})
		return
	case err != nil:
		h.render.Error(w, r, err)
		return
	}

	h.render.Redirect(w, r, ManagePath, &session.Flash{Class: session.FlashSuccess, Msg: "Password updated."})
}

func (h *Handler) postManageTwoFactor(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(r)
	if !ok {
		h.render.Error(w, r, basecamp.ErrNoSession)
		return
	}

	var f twoFactorToggleForm
	if err := h.forms.Decode(r, &f); err != nil {
		h.render.Redirect(w, r, ManagePath, &session.Flash{Class: session.FlashWarning, Msg: session.BadInputMsg})
		return
	}

	if err := h.users.SetTwoFactor(u, f.Enabled); err != nil {
		h.render.Error(w, r, err)
		return
	}

	msg := "Two-factor sign-in disabled."
	if f.Enabled {
		msg = "Two-factor sign-in enabled."
	}

	h.render.Redirect(w, r, ManagePath, &session.Flash{Class: session.FlashSuccess, Msg: msg})
}
