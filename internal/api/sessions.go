package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/felixgeelhaar/academiax/internal/auth"
)

// handleIssueToken mints a session token for the posted email and sets it
// as the token cookie.
func (r *Router) handleIssueToken(w http.ResponseWriter, req *http.Request) {
	doc, err := decodeDocument(w, req)
	if err != nil {
		BadRequest(w, req, "invalid request body")
		return
	}
	email := strings.TrimSpace(emailOf(doc))
	if email == "" {
		BadRequest(w, req, "Email is required")
		return
	}

	token, expiresAt, err := r.app.Issuer.Issue(email)
	if err != nil {
		InternalError(w, req, "failed to issue token", err)
		return
	}
	auth.SetTokenCookie(w, token, r.cookie)

	slog.Info("session token issued", "email", email, "expires_at", expiresAt)
	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
	})
}

// handleLogout clears the cookie. The token stays valid until it expires.
func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	auth.ClearTokenCookie(w, r.cookie)
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Message: "Logged out"})
}
