package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/christopher639/cbc-scholar-hub-sub002/internal/auth"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/config"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/middleware"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/model"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/otp"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/session"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	login     *auth.Service
	resolver  *auth.Resolver
	otp       *otp.Service
	issuer    *session.Issuer
	policy    func() config.ChannelPolicy
	ipLimiter *middleware.RateLimiter
}

// NewAuthHandler creates a new auth handler. policy is read once per
// challenge so a school-level reconfiguration takes effect without a
// restart.
func NewAuthHandler(login *auth.Service, resolver *auth.Resolver, otpService *otp.Service, issuer *session.Issuer, policy func() config.ChannelPolicy) *AuthHandler {
	return &AuthHandler{
		login:     login,
		resolver:  resolver,
		otp:       otpService,
		issuer:    issuer,
		policy:    policy,
		ipLimiter: middleware.NewRateLimiter(10*time.Minute, 10),
	}
}

// loginRequest is the request body for POST /auth/login
type loginRequest struct {
	Username string `json:"username"`
	Secret   string `json:"secret"`
}

// loginResponse is the JSON response for a successful login
type loginResponse struct {
	Token     string            `json:"token,omitempty"`
	TokenType string            `json:"token_type,omitempty"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
	Delegated bool              `json:"delegated,omitempty"`
	Role      string            `json:"role"`
	Principal principalResponse `json:"principal"`
}

// principalResponse is the principal object in API responses
type principalResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// otpRequestRequest is the request body for POST /auth/otp/request
type otpRequestRequest struct {
	Username string `json:"username"`
}

// otpRequestResponse is the JSON response for a dispatched challenge
type otpRequestResponse struct {
	SentChannels []string  `json:"sent_channels"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// otpVerifyRequest is the request body for POST /auth/otp/verify
type otpVerifyRequest struct {
	Username string `json:"username"`
	Code     string `json:"code"`
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Secret == "" {
		respondWithError(w, http.StatusBadRequest, "username and secret are required")
		return
	}

	result, err := h.login.Login(r.Context(), req.Username, req.Secret)
	if err != nil {
		if errors.Is(err, auth.ErrUpstreamUnavailable) {
			respondWithError(w, http.StatusServiceUnavailable, "authentication temporarily unavailable, retry shortly")
			return
		}
		// One generic message for every credential failure.
		respondWithError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	resp := loginResponse{
		Role: string(result.Identity.Role),
		Principal: principalResponse{
			ID:   result.Identity.OwnerID(),
			Name: result.Identity.DisplayName(),
		},
	}
	if result.Session != nil {
		resp.Token = result.Session.Token
		resp.TokenType = "bearer"
		expires := result.Session.ExpiresAt
		resp.ExpiresAt = &expires
	} else {
		// Provider-delegated: the provider's own session is the bearer.
		resp.Delegated = true
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// HandleLogout handles POST /auth/logout. Revoking is unconditional;
// logging out an already dead token succeeds.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "missing bearer token")
		return
	}
	if err := h.issuer.Revoke(r.Context(), token); err != nil {
		log.Printf("Failed to revoke session: %v", err)
		respondWithError(w, http.StatusInternalServerError, "failed to log out")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "logged_out"})
}

// HandleSession handles GET /auth/session and GET /me: it reports the
// identity behind the request's bearer token.
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	respondWithJSON(w, http.StatusOK, loginResponse{
		Role: string(identity.Role),
		Principal: principalResponse{
			ID:   identity.OwnerID(),
			Name: identity.DisplayName(),
		},
	})
}

// HandleOTPRequest handles POST /auth/otp/request. Resolution happens
// independently of password validation; this is the entry point for
// 2FA and password-reset step-ups.
func (h *AuthHandler) HandleOTPRequest(w http.ResponseWriter, r *http.Request) {
	var req otpRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		respondWithError(w, http.StatusBadRequest, "username is required")
		return
	}

	if !h.ipLimiter.Allow(middleware.GetIPKey(r)) {
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	identity, err := h.resolver.Resolve(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, auth.ErrUpstreamUnavailable) {
			respondWithError(w, http.StatusServiceUnavailable, "directory temporarily unavailable, retry shortly")
			return
		}
		// Same shape as a delivery failure; do not confirm whether the
		// username exists.
		respondWithError(w, http.StatusBadGateway, "verification code could not be delivered")
		return
	}

	receipt, err := h.otp.Challenge(r.Context(), identity, h.policy())
	if err != nil {
		if errors.Is(err, otp.ErrAllChannelsFailed) {
			// Fail closed: the caller must not proceed as verified.
			respondWithError(w, http.StatusBadGateway, "verification code could not be delivered")
			return
		}
		log.Printf("OTP challenge failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "failed to send verification code")
		return
	}

	respondWithJSON(w, http.StatusOK, otpRequestResponse{
		SentChannels: receipt.SentChannels,
		ExpiresAt:    receipt.ExpiresAt,
	})
}

// HandleOTPVerify handles POST /auth/otp/verify
func (h *AuthHandler) HandleOTPVerify(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Code = strings.TrimSpace(req.Code)
	if req.Username == "" || req.Code == "" {
		respondWithError(w, http.StatusBadRequest, "username and code are required")
		return
	}

	if !h.ipLimiter.Allow(middleware.GetIPKey(r)) {
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	identity, err := h.resolver.Resolve(r.Context(), req.Username)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "invalid or expired code")
		return
	}

	if err := h.otp.Verify(r.Context(), identity.Role, identity.OwnerID(), req.Code); err != nil {
		respondWithError(w, http.StatusUnauthorized, "invalid or expired code")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "verified"})
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// respondWithJSON writes a JSON response
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{"error": message})
}
