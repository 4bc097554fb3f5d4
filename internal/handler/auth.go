package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/mwalcott/eventdesk/internal/auth"
	"github.com/mwalcott/eventdesk/internal/middleware"
	"github.com/mwalcott/eventdesk/internal/store"
)

// Requires a single @ with a domain-like suffix. Deliberately loose beyond
// that; the confirmation of an address is delivery, not syntax.
var emailPattern = regexp.MustCompile(`^[^@]+@[a-zA-Z0-9.-]+$`)

const loginFailedMessage = "Email is not registered or password is incorrect"

type AuthHandler struct {
	users      *store.UserStore
	signingKey []byte
	logger     *slog.Logger
}

func NewAuthHandler(us *store.UserStore, signingKey []byte, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: us, signingKey: signingKey, logger: logger}
}

type credentialsRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// normalizeEmail applies Unicode NFC normalization and lowercases the
// address so lookups are case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(norm.NFC.String(email))
}

// validateEmail returns the normalized address, or an error message.
func validateEmail(raw *string) (string, string) {
	if raw == nil {
		return "", "Required field, email, is missing."
	}
	email := normalizeEmail(*raw)
	if email == "" || !emailPattern.MatchString(email) {
		return "", "Invalid email. Please check that you have entered your email correctly."
	}
	if len(email) > 255 {
		return "", "Email too long. Maximum length is 255 characters."
	}
	return email, ""
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	email, errMsg := validateEmail(req.Email)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	if req.Password == nil {
		writeError(w, http.StatusBadRequest, "Required field, password, is missing.")
		return
	}
	password := norm.NFC.String(*req.Password)
	if len(password) < 8 {
		writeError(w, http.StatusBadRequest, "Password too short. Password must be at least 8 characters.")
		return
	}
	if len(password) > 255 {
		writeError(w, http.StatusBadRequest, "Password too long. Maximum length is 255 characters.")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	if _, err := h.users.Create(email, hash); err != nil {
		if err == store.ErrEmailTaken {
			writeError(w, http.StatusBadRequest, "Email is already registered.")
			return
		}
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	email, errMsg := validateEmail(req.Email)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	if req.Password == nil {
		writeError(w, http.StatusBadRequest, "Required field, password, is missing.")
		return
	}
	password := norm.NFC.String(*req.Password)
	if password == "" {
		writeError(w, http.StatusBadRequest, "No password provided. Please enter a password.")
		return
	}
	if len(password) > 255 {
		writeError(w, http.StatusBadRequest, "Password too long. Maximum length is 255 characters.")
		return
	}

	// A single generic message for unknown email and wrong password alike,
	// so responses don't reveal which emails are registered.
	user, err := h.users.GetByEmail(email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if user == nil {
		writeError(w, http.StatusBadRequest, loginFailedMessage)
		return
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		h.logger.Error("verify password", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, loginFailedMessage)
		return
	}

	token, expiry, err := auth.IssueToken(user.ID, []string{auth.RoleAdmin}, h.signingKey, time.Now())
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	// Cookie lifetime mirrors the token expiry.
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiry,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   r.TLS != nil,
	})
	w.WriteHeader(http.StatusNoContent)
}

// IsAuth reports whether the request carries a valid admin session. Always a
// JSON boolean; an invalid or roleless token is simply false.
func (h *AuthHandler) IsAuth(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		writeJSON(w, http.StatusOK, false)
		return
	}

	claims, err := auth.VerifyToken(cookie.Value, h.signingKey)
	if err != nil {
		writeJSON(w, http.StatusOK, false)
		return
	}

	writeJSON(w, http.StatusOK, claims.HasRole(auth.RoleAdmin))
}
