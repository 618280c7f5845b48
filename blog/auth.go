// blog/auth.go
package blog

import (
	"errors"
	"net/http"
	"strings"
)

type authData struct {
	CurrentUser *User
	Form        any
	Next        string
}

func (h *Handlers) signup(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, http.StatusOK, "signup.html", authData{Form: &SignupForm{Errors: make(FieldErrors)}})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	form := ParseSignupForm(r)
	if !form.Valid() {
		h.render(w, http.StatusOK, "signup.html", authData{Form: form})
		return
	}

	user := NewUser(form.Username, form.Email)
	if err := user.SetPassword(form.Password); err != nil {
		h.log.Error().Err(err).Msg("failed to hash password")
		h.serverError(w, r)
		return
	}
	err := h.store.CreateUser(r.Context(), user)
	if errors.Is(err, ErrDuplicate) {
		form.Errors["username"] = "username or email is already taken"
		h.render(w, http.StatusOK, "signup.html", authData{Form: form})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("failed to create user")
		h.serverError(w, r)
		return
	}

	h.loginSession(w, r, user.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))

	if r.Method == http.MethodGet {
		h.render(w, http.StatusOK, "login.html", authData{Form: &LoginForm{Errors: make(FieldErrors)}, Next: next})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	if n := safeNext(r.PostFormValue("next")); n != "" {
		next = n
	}
	form := ParseLoginForm(r)
	if !form.Valid() {
		h.render(w, http.StatusOK, "login.html", authData{Form: form, Next: next})
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), form.Username)
	if err != nil && !errors.Is(err, ErrNotFound) {
		h.log.Error().Err(err).Msg("failed to get user")
		h.serverError(w, r)
		return
	}
	matches := false
	if user != nil {
		matches, err = user.PasswordMatches(form.Password)
		if err != nil {
			h.log.Error().Err(err).Msg("failed to compare password")
			h.serverError(w, r)
			return
		}
	}
	if !matches {
		form.Errors["username"] = "invalid username or password"
		h.render(w, http.StatusOK, "login.html", authData{Form: form, Next: next})
		return
	}

	h.loginSession(w, r, user.ID)
	if next == "" {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Destroy(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("failed to destroy session")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) loginSession(w http.ResponseWriter, r *http.Request, userID string) {
	// Rotate the session token on privilege change.
	if err := h.session.RenewToken(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("failed to renew session token")
	}
	h.session.Put(r.Context(), sessionKeyUserID, userID)
}

// safeNext only allows same-site relative redirect targets.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return ""
}
