package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/masterworkhq/masterwork/internal/ai"
	"github.com/masterworkhq/masterwork/internal/services"
)

// CreateSessionRequest carries the identity provider's ID token. The token may
// also be sent as a Bearer Authorization header.
type CreateSessionRequest struct {
	IDToken string `json:"id_token" example:"eyJhbGciOiJSUzI1NiIs..."`
}

// SessionResponse describes an issued session.
type SessionResponse struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UpdateProfileRequest is a partial profile update. Omitted fields are kept.
type UpdateProfileRequest struct {
	DisplayName *string  `json:"display_name,omitempty" example:"Ada"`
	Roles       []string `json:"roles,omitempty"`
}

// PushTokenRequest registers a device push token.
type PushTokenRequest struct {
	Token    string `json:"token"    binding:"required"`
	Platform string `json:"platform" example:"web"`
}

// VAPIDKeyResponse exposes the web-push public key.
type VAPIDKeyResponse struct {
	PublicKey string `json:"public_key"`
}

// ChatMessage is one message of an AI proxy conversation.
type ChatMessage struct {
	Role    string `json:"role"    binding:"required,oneof=system user assistant"`
	Content string `json:"content" binding:"required"`
}

// ChatRequest is the AI proxy payload.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" binding:"required,min=1,max=50,dive"`
}

// ChatResponse is the assistant's reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

func (h *Handlers) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Cookie.Name, value, maxAge, "/", "", h.Cookie.Secure, true)
}

// CreateSession godoc
// @ID          createSession
// @Summary     Sign in
// @Description Exchanges an identity provider ID token for a session cookie.
// @Tags        Account
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.CreateSessionRequest  false  "ID token (or Bearer header)"
// @Success     201  {object}  handlers.SessionResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid token"
// @Failure     503  {object}  handlers.ErrorResponse  "Sign-in not configured"
// @Router      /session [post]
func (h *Handlers) CreateSession(c *gin.Context) {
	if h.Verifier == nil || h.Sessions == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeNotConfigured, "sign-in is not configured")
		return
	}
	var req CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	raw := strings.TrimSpace(req.IDToken)
	if raw == "" {
		if v := c.GetHeader("Authorization"); len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
			raw = strings.TrimSpace(v[7:])
		}
	}
	if raw == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id_token is required")
		return
	}

	id, err := h.Verifier.Verify(c.Request.Context(), raw)
	if err != nil {
		log.Ctx(c.Request.Context()).Debug().Err(err).Msg("identity token rejected")
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid or expired token")
		return
	}
	tok, exp, err := h.Sessions.Issue(id)
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	h.setSessionCookie(c, tok, int(time.Until(exp).Seconds()))
	ok(c, http.StatusCreated, SessionResponse{UserID: id.UserID, Token: tok, ExpiresAt: exp})
}

// DeleteSession godoc
// @ID          deleteSession
// @Summary     Sign out
// @Description Clears the session cookie.
// @Tags        Account
// @Success     204  "No Content"
// @Router      /session [delete]
func (h *Handlers) DeleteSession(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	noContent(c)
}

// GetMe godoc
// @ID          getMe
// @Summary     Get my profile
// @Tags        Account
// @Produce     json
// @Success     200  {object}  domain.UserProfile
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /me/profile [get]
func (h *Handlers) GetMe(c *gin.Context) {
	p, err := h.Profiles.Get(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdateMe godoc
// @ID          updateMe
// @Summary     Update my profile
// @Description Changing roles schedules a Discord role sync when the account is linked.
// @Tags        Account
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.UpdateProfileRequest  true  "Profile fields"
// @Success     200  {object}  domain.UserProfile
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /me/profile [put]
func (h *Handlers) UpdateMe(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.Profiles.Update(c.Request.Context(), userID(c), services.ProfileUpdate{
		DisplayName: req.DisplayName,
		Roles:       req.Roles,
	})
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, p)
}

// RegisterPushToken godoc
// @ID          registerPushToken
// @Summary     Register a push token
// @Tags        Account
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.PushTokenRequest  true  "Device token"
// @Success     201  {object}  domain.PushToken
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /me/push-tokens [post]
func (h *Handlers) RegisterPushToken(c *gin.Context) {
	var req PushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "token is required")
		return
	}
	pt, err := h.Profiles.RegisterPushToken(c.Request.Context(), userID(c), req.Token, req.Platform)
	if err != nil {
		failErr(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, pt)
}

// VAPIDKey godoc
// @ID          vapidKey
// @Summary     Web-push public key
// @Tags        Account
// @Produce     json
// @Success     200  {object}  handlers.VAPIDKeyResponse
// @Failure     503  {object}  handlers.ErrorResponse  "Web push not configured"
// @Router      /push/vapid-key [get]
func (h *Handlers) VAPIDKey(c *gin.Context) {
	if h.VAPIDPublicKey == "" {
		fail(c, http.StatusServiceUnavailable, ErrCodeNotConfigured, "web push is not configured")
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	ok(c, http.StatusOK, VAPIDKeyResponse{PublicKey: h.VAPIDPublicKey})
}

// AIChat godoc
// @ID          aiChat
// @Summary     AI chat proxy
// @Description Forwards a conversation to the completion backend and returns the reply.
// @Tags        AI
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.ChatRequest  true  "Conversation"
// @Success     200  {object}  handlers.ChatResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     502  {object}  handlers.ErrorResponse  "Upstream failure"
// @Failure     503  {object}  handlers.ErrorResponse  "AI not configured"
// @Router      /ai/chat [post]
func (h *Handlers) AIChat(c *gin.Context) {
	if h.AI == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeNotConfigured, "ai is not configured")
		return
	}
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "messages must be a non-empty list of {role, content}")
		return
	}
	msgs := make([]ai.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, ai.Message{Role: m.Role, Content: m.Content})
	}

	ctx := c.Request.Context()
	reply, err := h.AI.Complete(ctx, msgs)
	if err != nil {
		if errors.Is(err, ai.ErrNotConfigured) {
			fail(c, http.StatusServiceUnavailable, ErrCodeNotConfigured, "ai is not configured")
			return
		}
		log.Ctx(ctx).Error().Err(err).Msg("ai chat completion failed")
		fail(c, http.StatusBadGateway, ErrCodeUpstreamFailed, "the assistant is unavailable, try again")
		return
	}
	ok(c, http.StatusOK, ChatResponse{Reply: reply})
}
