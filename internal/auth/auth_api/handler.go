package auth_api

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"wedding-rsvp/internal/auth"
	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/metrics"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/utils"
	"wedding-rsvp/internal/validation"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Auth         auth.Authenticator
	Tokens       *auth.TokenIssuer
	Limiter      *auth.LoginLimiter
	CookieName   string
	CookieSecure bool
	Logger       *logger.Logger
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, models.LoginResponse{Message: "Invalid request body"})
		return
	}
	if err := validation.Struct(req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, models.LoginResponse{Message: err.Error()})
		return
	}

	ctx := r.Context()
	client := clientKey(r)

	allowed, retryAfter, err := h.Limiter.Allowed(ctx, client)
	if err != nil {
		h.Logger.Warn("AUTH", fmt.Sprintf("Login throttle unavailable: %v", err))
	}
	if !allowed {
		metrics.AdminLogins.WithLabelValues(metrics.OutcomeThrottled).Inc()
		h.Logger.LogSecurity("LOGIN_THROTTLED", fmt.Sprintf("client=%s user=%s", client, req.Username))
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		utils.WriteJSON(w, http.StatusTooManyRequests, models.LoginResponse{Message: "Too many login attempts, try again later"})
		return
	}

	if err := h.Auth.Authenticate(ctx, req.Username, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			metrics.AdminLogins.WithLabelValues(metrics.OutcomeFailure).Inc()
			if ferr := h.Limiter.Fail(ctx, client); ferr != nil {
				h.Logger.Warn("AUTH", fmt.Sprintf("Could not record failed login: %v", ferr))
			}
			h.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("client=%s user=%s", client, req.Username))
			utils.WriteJSON(w, http.StatusUnauthorized, models.LoginResponse{Message: "Invalid credentials"})
			return
		}
		h.Logger.Error("AUTH", fmt.Sprintf("Login check failed: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, models.LoginResponse{Message: "Internal server error"})
		return
	}

	token, err := h.Tokens.Issue(req.Username)
	if err != nil {
		h.Logger.Error("AUTH", fmt.Sprintf("Token signing failed: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, models.LoginResponse{Message: "Internal server error"})
		return
	}
	if err := h.Limiter.Reset(ctx, client); err != nil {
		h.Logger.Warn("AUTH", fmt.Sprintf("Could not reset login throttle: %v", err))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.Tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	metrics.AdminLogins.WithLabelValues(metrics.OutcomeSuccess).Inc()
	h.Logger.LogSecurity("LOGIN_OK", fmt.Sprintf("user=%s", req.Username))
	utils.WriteJSON(w, http.StatusOK, models.LoginResponse{Success: true, Token: token})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	utils.WriteJSON(w, http.StatusOK, models.LoginResponse{Success: true})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
