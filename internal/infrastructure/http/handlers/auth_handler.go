package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/latchauth/latch/internal/application/auth"
	"github.com/latchauth/latch/internal/domain/authflow"
	domerrors "github.com/latchauth/latch/internal/domain/errors"
	"github.com/latchauth/latch/internal/infrastructure/http/middleware"
)

type AuthHandler struct {
	requestMagicLink *auth.RequestMagicLink
	consumeMagicLink *auth.ConsumeMagicLink
	beginOAuth       *auth.BeginOAuth
	exchangeOAuth    *auth.ExchangeOAuth
	refresh          *auth.Refresh
	logout           *auth.Logout
	validate         *validator.Validate
	log              zerolog.Logger
}

func NewAuthHandler(requestMagicLink *auth.RequestMagicLink, consumeMagicLink *auth.ConsumeMagicLink, beginOAuth *auth.BeginOAuth, exchangeOAuth *auth.ExchangeOAuth, refresh *auth.Refresh, logout *auth.Logout, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		requestMagicLink: requestMagicLink,
		consumeMagicLink: consumeMagicLink,
		beginOAuth:       beginOAuth,
		exchangeOAuth:    exchangeOAuth,
		refresh:          refresh,
		logout:           logout,
		validate:         validator.New(),
		log:              log,
	}
}

// SendMagicLink accepts { "email": "...", "binding": "..." } and always
// returns 202 on a well-formed request so callers cannot probe which emails
// exist.
func (h *AuthHandler) SendMagicLink(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeErr(w, http.StatusUnauthorized, ErrCodeUnauthorized, "tenant required")
		return
	}
	var body struct {
		Email   string `json:"email" validate:"required,email,max=254"`
		Binding string `json:"binding" validate:"max=512"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}
	email := SanitizeEmail(body.Email)
	if email == "" {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid email")
		return
	}
	_, err := h.requestMagicLink.Execute(r.Context(), auth.RequestMagicLinkInput{
		Tenant:  tenant,
		Email:   email,
		Binding: SanitizeBinding(body.Binding),
	})
	if err != nil {
		AuditLog(h.log, r, "magic_link.send", tenant.ID.String(), "", false, err.Error())
		middleware.RecordAuthAttempt("magic_link.send", tenant.ID.String(), false)
		h.log.Error().Err(err).Msg("send magic link failed")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return
	}
	AuditLog(h.log, r, "magic_link.send", tenant.ID.String(), "", true, "")
	middleware.RecordAuthAttempt("magic_link.send", tenant.ID.String(), true)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// VerifyMagicLink accepts { "token": "...", "binding": "..." } and returns a
// session on success. All invalid-token shapes collapse to a single 400.
func (h *AuthHandler) VerifyMagicLink(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeErr(w, http.StatusUnauthorized, ErrCodeUnauthorized, "tenant required")
		return
	}
	var body struct {
		Token   string `json:"token" validate:"required,max=1024"`
		Binding string `json:"binding" validate:"max=512"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}
	result, err := h.consumeMagicLink.Execute(r.Context(), auth.ConsumeMagicLinkInput{
		Tenant:   tenant,
		RawToken: TruncateToken(body.Token),
		Binding:  SanitizeBinding(body.Binding),
	})
	if err != nil {
		AuditLog(h.log, r, "magic_link.verify", tenant.ID.String(), "", false, err.Error())
		middleware.RecordAuthAttempt("magic_link.verify", tenant.ID.String(), false)
		if errors.Is(err, domerrors.ErrLinkInvalidOrExpired) {
			writeErr(w, http.StatusBadRequest, ErrCodeLinkInvalid, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("verify magic link failed")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return
	}
	AuditLog(h.log, r, "magic_link.verify", tenant.ID.String(), result.User.ID.String(), true, "")
	middleware.RecordAuthAttempt("magic_link.verify", tenant.ID.String(), true)
	writeJSON(w, http.StatusOK, sessionResponse(result.Identity.Subject, result.User.ID.String(), result.AccessToken, result.RefreshToken, result.ExpiresIn))
}

// OAuthBegin starts the authorization-code flow for the provider in the URL.
// Returns the provider redirect URL and the state token as JSON.
func (h *AuthHandler) OAuthBegin(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeErr(w, http.StatusUnauthorized, ErrCodeUnauthorized, "tenant required")
		return
	}
	provider := chi.URLParam(r, "provider")
	result, err := h.beginOAuth.Execute(r.Context(), auth.BeginOAuthInput{
		Tenant:   tenant,
		Provider: provider,
	})
	if err != nil {
		AuditLog(h.log, r, "oauth.begin", tenant.ID.String(), "", false, err.Error())
		middleware.RecordAuthAttempt("oauth.begin", tenant.ID.String(), false)
		if errors.Is(err, domerrors.ErrUnknownProvider) {
			writeErr(w, http.StatusBadRequest, ErrCodeUnknownProvider, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("oauth begin failed")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return
	}
	AuditLog(h.log, r, "oauth.begin", tenant.ID.String(), "", true, "")
	middleware.RecordAuthAttempt("oauth.begin", tenant.ID.String(), true)
	writeJSON(w, http.StatusOK, map[string]string{
		"authorize_url": result.AuthorizeURL,
		"state":         result.StateToken,
	})
}

// OAuthExchange redeems { "state": "...", "code": "..." } for a session.
// Transient failures return 502 with Retry-After so the client can retry the
// same state; terminal failures return 400 and the flow must restart.
func (h *AuthHandler) OAuthExchange(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeErr(w, http.StatusUnauthorized, ErrCodeUnauthorized, "tenant required")
		return
	}
	var body struct {
		State string `json:"state" validate:"required,max=1024"`
		Code  string `json:"code" validate:"required,max=1024"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}
	result, err := h.exchangeOAuth.Execute(r.Context(), auth.ExchangeOAuthInput{
		Tenant:     tenant,
		StateToken: TruncateToken(body.State),
		Code:       TruncateToken(body.Code),
	})
	if err != nil {
		AuditLog(h.log, r, "oauth.exchange", tenant.ID.String(), "", false, err.Error())
		middleware.RecordAuthAttempt("oauth.exchange", tenant.ID.String(), false)
		h.writeExchangeErr(w, err)
		return
	}
	AuditLog(h.log, r, "oauth.exchange", tenant.ID.String(), result.User.ID.String(), true, "")
	middleware.RecordAuthAttempt("oauth.exchange", tenant.ID.String(), true)
	writeJSON(w, http.StatusOK, sessionResponse(result.Identity.Subject, result.User.ID.String(), result.AccessToken, result.RefreshToken, result.ExpiresIn))
}

func (h *AuthHandler) writeExchangeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domerrors.ErrStateNotFound):
		writeErr(w, http.StatusBadRequest, ErrCodeStateNotFound, err.Error())
	case errors.Is(err, domerrors.ErrRetryWindowExpired):
		writeErr(w, http.StatusGone, ErrCodeRetryWindowExpired, err.Error())
	default:
		var xerr *authflow.ExchangeError
		if errors.As(err, &xerr) {
			if xerr.Retryable() {
				w.Header().Set("Retry-After", "1")
				writeErr(w, http.StatusBadGateway, ErrCodeProviderUnavailable, xerr.Error())
				return
			}
			writeErr(w, http.StatusBadRequest, ErrCodeExchangeFailed, xerr.Error())
			return
		}
		h.log.Error().Err(err).Msg("oauth exchange failed")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}

// Refresh rotates a refresh token from { "refresh_token": "..." }.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token" validate:"required,max=1024"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}
	result, err := h.refresh.Execute(r.Context(), auth.RefreshInput{
		RefreshToken: TruncateToken(body.RefreshToken),
	})
	if err != nil {
		if errors.Is(err, domerrors.ErrInvalidToken) {
			writeErr(w, http.StatusUnauthorized, ErrCodeInvalidToken, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("refresh failed")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"expires_in":    result.ExpiresIn,
	})
}

// Logout revokes a refresh token. Idempotent.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid body")
		return
	}
	if err := h.logout.Execute(r.Context(), auth.LogoutInput{
		RefreshToken: TruncateToken(body.RefreshToken),
	}); err != nil {
		h.log.Error().Err(err).Msg("logout failed")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func sessionResponse(subject, userID, accessToken, refreshToken string, expiresIn int64) map[string]interface{} {
	return map[string]interface{}{
		"subject":       subject,
		"user_id":       userID,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_type":    "Bearer",
		"expires_in":    expiresIn,
	}
}
