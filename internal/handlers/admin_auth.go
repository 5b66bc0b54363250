package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/auth"
	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/models"
	pkghttp "github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/pkg/http"
)

// AdminAuthServiceInterface defines the interface for the admin login flow
type AdminAuthServiceInterface interface {
	RequestCode(ctx context.Context, email, clientKey, clientAgent string) error
	VerifyCode(ctx context.Context, email, code, clientKey, clientAgent string) (string, error)
}

// AdminAuthHandler handles the passwordless admin authentication endpoints
type AdminAuthHandler struct {
	service       AdminAuthServiceInterface
	sessionExpiry int // cookie max age in seconds
	cookieConfig  auth.CookieConfig
	ipConfig      *pkghttp.IPConfig
}

// NewAdminAuthHandler creates a new AdminAuthHandler
func NewAdminAuthHandler(service AdminAuthServiceInterface, sessionExpirySeconds int, cookieConfig auth.CookieConfig, ipConfig *pkghttp.IPConfig) *AdminAuthHandler {
	return &AdminAuthHandler{
		service:       service,
		sessionExpiry: sessionExpirySeconds,
		cookieConfig:  cookieConfig,
		ipConfig:      ipConfig,
	}
}

// Request DTOs

// RequestCodeRequest represents the request body for code issuance
type RequestCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyCodeRequest represents the request body for code verification
type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

// Response DTOs

// MessageResponse is the body for endpoints that return no data
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// VerifyCodeResponse carries the session token on successful verification
type VerifyCodeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

// AdminIdentity describes the authenticated admin for GET /admin/me
type AdminIdentity struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// MeResponse is the body for GET /admin/me
type MeResponse struct {
	Success bool          `json:"success"`
	Admin   AdminIdentity `json:"admin"`
}

// RateLimitedResponse is the 429 body; the retry hint mirrors the
// Retry-After header
type RateLimitedResponse struct {
	Success           bool   `json:"success"`
	Error             string `json:"error"`
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retry_after_seconds"`
}

// RequestCode handles POST /admin/request-code
func (h *AdminAuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req RequestCodeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	clientKey := pkghttp.ExtractClientIP(r, h.ipConfig)
	clientAgent := r.Header.Get("User-Agent")

	if err := h.service.RequestCode(r.Context(), req.Email, clientKey, clientAgent); err != nil {
		h.writeAuthError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{
		Success: true,
		Message: "A login code has been sent to your email address.",
	})
}

// VerifyCode handles POST /admin/verify-code
func (h *AdminAuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	clientKey := pkghttp.ExtractClientIP(r, h.ipConfig)
	clientAgent := r.Header.Get("User-Agent")

	token, err := h.service.VerifyCode(r.Context(), req.Email, req.Code, clientKey, clientAgent)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	auth.SetSessionCookie(w, token, h.sessionExpiry, h.cookieConfig)

	pkghttp.WriteJSON(w, http.StatusOK, VerifyCodeResponse{
		Success: true,
		Message: "Login successful.",
		Token:   token,
	})
}

// Me handles GET /admin/me
func (h *AdminAuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetSessionFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MeResponse{
		Success: true,
		Admin: AdminIdentity{
			Email: claims.Email,
			Role:  claims.Role,
		},
	})
}

// Logout handles POST /admin/logout. Session tokens are stateless and cannot
// be revoked; this only clears the browser cookie, and a bearer token stays
// valid until it expires.
func (h *AdminAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.cookieConfig)

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{
		Success: true,
		Message: "Logged out.",
	})
}

// writeAuthError maps service errors onto the wire. Invalid, expired, replayed
// and exhausted codes all produce the same 400 so a caller cannot probe code
// state; only the configured admin address is ever told anything more.
func (h *AdminAuthHandler) writeAuthError(w http.ResponseWriter, err error) {
	var rle *models.RateLimitError

	switch {
	case errors.Is(err, models.ErrIdentityMismatch):
		pkghttp.WriteForbidden(w, "This address is not authorized for admin access.")
	case errors.As(err, &rle):
		retrySeconds := int(math.Ceil(rle.RetryAfter.Seconds()))
		if retrySeconds < 1 {
			retrySeconds = 1
		}
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retrySeconds))
		pkghttp.WriteJSON(w, http.StatusTooManyRequests, RateLimitedResponse{
			Success:           false,
			Error:             "rate_limit_exceeded",
			Message:           fmt.Sprintf("Too many attempts. Try again in %d seconds.", retrySeconds),
			RetryAfterSeconds: retrySeconds,
		})
	case errors.Is(err, models.ErrRateLimited):
		pkghttp.WriteTooManyRequests(w, "Too many attempts. Please try again later.")
	case errors.Is(err, models.ErrInvalidOrExpiredCode),
		errors.Is(err, models.ErrAttemptsExhausted):
		pkghttp.WriteBadRequest(w, "Invalid or expired code.")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
