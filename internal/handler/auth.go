// Package handler is the HTTP layer: it parses requests, delegates to the
// service layer, and writes JSON responses. Handlers depend on small
// interfaces declared here and satisfied by the service structs, so tests
// exercise them with in-memory fakes and httptest recorders.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/Pallava-Joshi/auto-committer/internal/auth"
	"github.com/Pallava-Joshi/auto-committer/internal/model"
	"github.com/Pallava-Joshi/auto-committer/internal/service"
)

// stateCookie holds the CSRF nonce for one OAuth round trip.
const stateCookie = "oauth_state"

// AuthFlow is what the auth handler needs from the service layer.
type AuthFlow interface {
	HandleCallback(ctx context.Context, code string) (*service.LoginResult, error)
	Profile(ctx context.Context, userID int64) (*model.GitHubUser, error)
}

// AuthorizeURLBuilder builds the GitHub authorization redirect target for a
// given state nonce. Satisfied by *auth.GitHubProvider.
type AuthorizeURLBuilder interface {
	AuthURL(state string) string
}

// AuthHandler serves the OAuth flow:
//
//	GET  /auth/github          → redirect into GitHub's authorization page
//	GET  /auth/github/callback → exchange the code, persist the credential
//	GET  /auth/me              → session-guarded profile echo
//	POST /auth/logout          → clear the session cookie
type AuthHandler struct {
	flow      AuthFlow
	authorize AuthorizeURLBuilder
	logger    *slog.Logger
}

// NewAuthHandler creates an AuthHandler with its dependencies injected.
func NewAuthHandler(flow AuthFlow, authorize AuthorizeURLBuilder, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		flow:      flow,
		authorize: authorize,
		logger:    logger,
	}
}

// CallbackResponse is the success body of the OAuth callback. The token and
// the profile are separate fields: the token identifies the grant, the user
// object carries only public profile data.
type CallbackResponse struct {
	Token  string            `json:"token"`
	User   *model.GitHubUser `json:"user"`
	Scopes []string          `json:"scopes"`
}

// HandleLogin redirects the browser to GitHub's authorization page.
//
// A random state nonce goes into a short-lived HttpOnly cookie; the callback
// verifies GitHub echoed the same value, which proves the flow started here
// and not on an attacker's page.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // long enough to approve, short enough to limit replay
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.authorize.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes the OAuth flow.
//
// Response: 200 {token, user, scopes} on success, 400 {error, details?} on a
// missing code or failed exchange. On success a session JWT is additionally
// set as an HttpOnly cookie for /auth/me.
//
// A failed exchange is a 400 here, not a 502: the code in the query string is
// caller-supplied input, and GitHub rejecting it (expired, already used,
// forged) means the request was bad, not that GitHub is down.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid OAuth state"})
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	// GitHub reports a denied authorization as ?error=... with no code.
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: authorization denied", slog.String("error", errParam))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "authorization was denied"})
		return
	}

	login, err := h.flow.HandleCallback(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.logger.Error("auth callback failed", slog.String("error", err.Error()))
		writeCallbackError(w, err)
		return
	}

	if login.Session != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     auth.SessionCookie,
			Value:    login.Session,
			Path:     "/",
			MaxAge:   int(auth.SessionTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			// Secure: true, // requires HTTPS; enable in production
		})
	}

	writeJSON(w, http.StatusOK, CallbackResponse{
		Token:  login.AccessToken,
		User:   login.User,
		Scopes: login.Scopes,
	})
}

// HandleMe returns the authenticated user's stored profile.
// RequireAuth has already validated the session and set the user ID.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	user, err := h.flow.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleLogout clears the session cookie. POST, not GET: logout changes
// state and must not be triggerable by a prefetch.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
