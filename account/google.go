package account

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/outpost-labs/basecamp"
	"github.com/outpost-labs/basecamp/http/session"
	"github.com/outpost-labs/basecamp/identity"
	"github.com/outpost-labs/basecamp/logger"
)

// googleStateKey holds the OAuth state nonce between redirect and callback.
const googleStateKey = "google-oauth-state"

func (h *Handler) getGoogle(w http.ResponseWriter, r *http.Request) {
	sess, ok := r.Context().Value(basecamp.SessionKey).(session.Session)
	if !ok {
		h.render.Error(w, r, basecamp.ErrNoSession)
		return
	}

	state := uuid.NewString()
	if err := sess.Set(w, r, googleStateKey, state); err != nil {
		h.render.Error(w, r, err)
		return
	}

	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusFound)
}

func (h *Handler) getGoogleCallback(w http.ResponseWriter, r *http.Request) {
	sess, ok := r.Context().Value(basecamp.SessionKey).(session.Session)
	if !ok {
		h.render.Error(w, r, basecamp.ErrNoSession)
		return
	}

	want, _ := sess.Get(googleStateKey).(string)
	if want == "" || r.URL.Query().Get("state") != want {
		h.render.Redirect(w, r, LoginPath, &session.Flash{Class: session.FlashError, Msg: session.DefaultErrMsg})
		return
	}

	token, err := h.google.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.l.Error("exchanging google code", &logger.LogContext{Error: err, Request: r})
		h.render.Redirect(w, r, LoginPath, &session.Flash{Class: session.FlashError, Msg: session.DefaultErrMsg})
		return
	}

	info, err := h.google.FetchUser(r.Context(), token)
	if err != nil {
		h.l.Error("fetching google account", &logger.LogContext{Error: err, Request: r})
		h.render.Redirect(w, r, LoginPath, &session.Flash{Class: session.FlashError, Msg: session.DefaultErrMsg})
		return
	}

	if info.VerifiedEmail == nil || !*info.VerifiedEmail {
		h.render.Redirect(w, r, LoginPath, &session.Flash{Class: session.FlashWarning, Msg: session.NotConfirmedMsg})
		return
	}

	u, err := h.signin.ExternalSignIn(w, r, identity.GoogleProvider, info.Id, info.Email)
	switch {
	case errors.Is(err, identity.ErrLockedOut):
		h.render.Redirect(w, r, LoginPath, &session.Flash{Class: session.FlashWarning, Msg: session.LockedOutMsg})
		return
	case err != nil:
		h.render.Error(w, r, err)
		return
	}

	h.render.Redirect(w, r, u.HomePath(), nil)
}
