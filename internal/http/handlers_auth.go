package http

import (
	"errors"
	"net/http"

	"fintrack/internal/log"
	"fintrack/internal/session"
)

const (
	msgMissingFields      = "Please fill in all fields"
	msgInvalidCredentials = "Invalid email or password"
)

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.render(w, r, http.StatusOK, "signin.html", newSigninView(s.sessions.Prefill(r.Context()), ""))
		return
	case http.MethodPost:
	default:
		MethodNotAllowedError("GET, POST").Write(w)
		return
	}

	if errResp := ParseFormOrFail(w, r); errResp != nil {
		errResp.Write(w)
		return
	}
	form := session.Form{
		Email:      sanitizeInput(r.PostForm.Get("email")),
		Password:   r.PostForm.Get("password"),
		RememberMe: checked(r.PostForm.Get("remember")),
	}

	if form.Email == "" || form.Password == "" {
		s.renderSignin(w, r, http.StatusUnprocessableEntity, form, msgMissingFields)
		return
	}

	token, err := s.sessions.SignIn(r.Context(), form.Email, form.Password, form.RememberMe)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Sign-in rejected",
				log.FieldOperation, log.OpSignIn,
				"error_type", log.ErrorTypeAuth)
			form.Password = ""
			s.renderSignin(w, r, http.StatusUnauthorized, form, msgInvalidCredentials)
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Sign-in failed",
			log.FieldOperation, log.OpSignIn,
			log.FieldError, err)
		s.renderSignin(w, r, http.StatusInternalServerError, form, "Could not sign in, please retry")
		return
	}

	http.SetCookie(w, s.sessionCookie(token, 0))
	s.redirect(w, r, "/")
}

// renderSignin re-renders the form: the fragment for htmx, the page otherwise.
func (s *Server) renderSignin(w http.ResponseWriter, r *http.Request, status int, form session.Form, errMsg string) {
	name := "signin.html"
	if isHTMX(r) {
		name = "signin_form"
	}
	s.render(w, r, status, name, newSigninView(form, errMsg))
}

func (s *Server) handleRememberMe(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	if errResp := ParseFormOrFail(w, r); errResp != nil {
		errResp.Write(w)
		return
	}

	form, err := s.sessions.SetRememberMe(r.Context(),
		checked(r.PostForm.Get("remember")),
		sanitizeInput(r.PostForm.Get("email")),
		r.PostForm.Get("password"))
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Remember-me update failed", log.FieldError, err)
		InternalServerError("Could not save preference").Write(w)
		return
	}

	if !isHTMX(r) {
		http.Redirect(w, r, "/signin", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "signin_form", newSigninView(form, ""))
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}

	if err := s.sessions.SignOut(r.Context()); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Sign-out failed",
			log.FieldOperation, log.OpSignOut,
			log.FieldError, err)
		InternalServerError("Could not sign out").Write(w)
		return
	}

	http.SetCookie(w, s.sessionCookie("", -1))
	s.redirect(w, r, "/signin")
}

func (s *Server) sessionCookie(token string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// redirect navigates the browser to url after a successful POST.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, url string) {
	if isHTMX(r) {
		NewHTMXResponse().Redirect(url).Write(w)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
