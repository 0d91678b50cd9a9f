package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/auth"
	"github.com/hitk-robotics/club-portal/internal/service"
)

const stateCookieName = "oauth_state"

// AuthHandler serves member signup/login, the GitHub OAuth flow, organizer login and
// the account endpoints.
//
// DEPENDENCY CHAIN:
//   - svc    *service.AuthService   → credentials, sessions, tokens
//   - github *auth.GitHubProvider   → OAuth code exchange; nil when GitHub login is off
type AuthHandler struct {
	svc          *service.AuthService
	github       *auth.GitHubProvider
	secureCookie bool
	logger       *slog.Logger
}

// NewAuthHandler creates an AuthHandler. secureCookie marks the token cookie Secure and
// must be true whenever the portal is served over HTTPS.
func NewAuthHandler(svc *service.AuthService, github *auth.GitHubProvider, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:          svc,
		github:       github,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User      any       `json:"user"`
	Role      auth.Role `json:"role"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HandleSignUp creates a member account and logs it in.
//
// HTTP: POST /auth/signup  {"email": "...", "password": "..."}
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.svc.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logFailure("sign up failed", err)
		writeError(w, err)
		return
	}
	h.respondLoggedIn(w, http.StatusCreated, res, res.User, auth.RoleMember)
}

// HandleLogin logs a member in with email and password.
//
// HTTP: POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logFailure("member login failed", err)
		writeError(w, err)
		return
	}
	h.respondLoggedIn(w, http.StatusOK, res, res.User, auth.RoleMember)
}

// HandleOrganizerLogin logs an organizer in. Organizers have their own credential store;
// a member password never works here.
//
// HTTP: POST /organizer/login
func (h *AuthHandler) HandleOrganizerLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.svc.OrganizerLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logFailure("organizer login failed", err)
		writeError(w, err)
		return
	}
	h.respondLoggedIn(w, http.StatusOK, res, res.Organizer, auth.RoleOrganizer)
}

// HandleLogout revokes the caller's session and clears the cookie. The token stops
// working immediately, even though it has not expired.
//
// HTTP: POST /auth/logout, POST /organizer/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		if err := h.svc.Logout(r.Context(), id.SessionID); err != nil {
			h.logger.Error("logout failed", slog.String("error", err.Error()))
			writeError(w, err)
			return
		}
	}

	h.clearCookie(w, auth.CookieName)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// A random state is stored in a short-lived HttpOnly cookie and sent to GitHub; the
// callback only proceeds when GitHub echoes the same value back.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "unavailable", Message: "GitHub login is not configured"})
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub profile
//  3. Create or refresh the member and open a session
//  4. Set the token cookie and redirect to the profile page
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "unavailable", Message: "GitHub login is not configured"})
		return
	}

	// --- Step 1: Validate CSRF state ---
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeError(w, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}
	h.clearCookie(w, stateCookieName)

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: member denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	// --- Step 2: Exchange code for a GitHub profile ---
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, apperror.ValidationFailed("code", "missing OAuth code"))
		return
	}
	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		writeError(w, apperror.Unauthorized("GitHub authentication failed"))
		return
	}

	// --- Step 3: Member + session ---
	res, err := h.svc.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("auth callback: login failed", slog.Int64("githubID", ghUser.ID), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	// --- Step 4: Cookie + redirect ---
	h.setTokenCookie(w, res.Token, res.ExpiresAt)
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

// HandleMe returns the logged-in member.
//
// HTTP: GET /api/me (RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.svc.Me(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// HandleChangePassword sets a new password and logs the member out everywhere,
// including this browser.
//
// HTTP: POST /api/me/password (RequireAuth)
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.logFailure("password change failed", err)
		writeError(w, err)
		return
	}

	h.clearCookie(w, auth.CookieName)
	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed; please log in again"})
}

func (h *AuthHandler) respondLoggedIn(w http.ResponseWriter, status int, res *service.AuthResult, account any, role auth.Role) {
	h.setTokenCookie(w, res.Token, res.ExpiresAt)
	writeJSON(w, status, loginResponse{
		User:      account,
		Role:      role,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
	})
}

// setTokenCookie stores the JWT in an HttpOnly cookie that expires with the session.
// HttpOnly keeps it away from page scripts; SameSite=Lax keeps it off cross-site POSTs.
func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// logFailure logs expected client errors at Info and everything else at Error.
func (h *AuthHandler) logFailure(msg string, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		h.logger.Info(msg, slog.String("reason", appErr.Message))
		return
	}
	h.logger.Error(msg, slog.String("error", err.Error()))
}
