package handlers

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/masterworkhq/masterwork/internal/discord"
	"github.com/masterworkhq/masterwork/internal/utils"
)

const (
	oauthStateCookie = "mw_discord_state"
	oauthStateMaxAge = 600
	// maxInteractionBody bounds the signed payload read before verification.
	maxInteractionBody = 64 << 10
)

// NotifyRequest is an announcement for the Discord channel.
type NotifyRequest struct {
	Content string `json:"content" binding:"required" example:"New commission opened."`
}

// DiscordLink godoc
// @ID          discordLink
// @Summary     Start Discord linking
// @Description Redirects to Discord's consent screen with a one-time state cookie.
// @Tags        Discord
// @Success     302  "Redirect to Discord"
// @Failure     503  {object}  handlers.ErrorResponse  "Discord OAuth not configured"
// @Router      /discord/link [get]
func (h *Handlers) DiscordLink(c *gin.Context) {
	if h.DiscordOAuth == nil || !h.DiscordOAuth.Enabled() {
		fail(c, http.StatusServiceUnavailable, ErrCodeNotConfigured, "discord linking is not configured")
		return
	}
	state, err := utils.SecureRandomToken(24)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not start linking")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthStateMaxAge, "/discord", "", h.Cookie.Secure, true)
	c.Redirect(http.StatusFound, h.DiscordOAuth.AuthCodeURL(state))
}

// DiscordCallback godoc
// @ID          discordCallback
// @Summary     Finish Discord linking
// @Description Verifies state, exchanges the code and links the Discord account to the caller.
// @Tags        Discord
// @Produce     json
// @Param       code   query  string  true  "Authorization code"
// @Param       state  query  string  true  "State from /discord/link"
// @Success     200  {object}  domain.UserProfile
// @Failure     400  {object}  handlers.ErrorResponse  "State mismatch or denied consent"
// @Failure     403  {object}  handlers.ErrorResponse  "Discord account linked elsewhere"
// @Failure     502  {object}  handlers.ErrorResponse  "Discord exchange failed"
// @Router      /discord/callback [get]
func (h *Handlers) DiscordCallback(c *gin.Context) {
	if h.DiscordOAuth == nil || !h.DiscordOAuth.Enabled() {
		fail(c, http.StatusServiceUnavailable, ErrCodeNotConfigured, "discord linking is not configured")
		return
	}
	want, _ := c.Cookie(oauthStateCookie)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, "", -1, "/discord", "", h.Cookie.Secure, true)

	if e := c.Query("error"); e != "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "discord authorization was denied")
		return
	}
	got := c.Query("state")
	if want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid oauth state")
		return
	}
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "code is required")
		return
	}

	ctx := c.Request.Context()
	du, err := h.DiscordOAuth.Exchange(ctx, code)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("discord oauth exchange failed")
		fail(c, http.StatusBadGateway, ErrCodeUpstreamFailed, "discord did not accept the authorization")
		return
	}
	p, err := h.Profiles.LinkDiscord(ctx, userID(c), du.ID, du.DisplayName())
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, p)
}

// DiscordInteractions godoc
// @ID          discordInteractions
// @Summary     Discord interactions endpoint
// @Description Verifies the Ed25519 request signature and answers slash commands.
// @Tags        Discord
// @Accept      json
// @Produce     json
// @Param       X-Signature-Ed25519    header  string  true  "Request signature"
// @Param       X-Signature-Timestamp  header  string  true  "Signature timestamp"
// @Success     200  {object}  discord.Response
// @Failure     401  {object}  handlers.ErrorResponse  "Bad signature"
// @Router      /discord/interactions [post]
func (h *Handlers) DiscordInteractions(c *gin.Context) {
	if h.Interactions == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeNotConfigured, "discord interactions are not configured")
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxInteractionBody))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "could not read body")
		return
	}
	if !h.Interactions.Verify(c.GetHeader(discord.SignatureHeader), c.GetHeader(discord.SignatureTimestampHeader), body) {
		fail(c, http.StatusUnauthorized, ErrCodeInvalidSignature, "invalid request signature")
		return
	}
	resp, err := h.Interactions.Handle(c.Request.Context(), body)
	if err != nil {
		msg := "malformed interaction"
		if errors.Is(err, discord.ErrUnknownInteraction) {
			msg = err.Error()
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msg)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Notify godoc
// @ID          notify
// @Summary     Post to the Discord channel
// @Tags        Discord
// @Accept      json
// @Param       body  body  handlers.NotifyRequest  true  "Announcement"
// @Success     204  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     502  {object}  handlers.ErrorResponse  "Webhook failed"
// @Failure     503  {object}  handlers.ErrorResponse  "Webhook not configured"
// @Router      /notify [post]
func (h *Handlers) Notify(c *gin.Context) {
	if h.Notifier == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeNotConfigured, "discord webhook is not configured")
		return
	}
	var req NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content is required")
		return
	}
	ctx := c.Request.Context()
	if err := h.Notifier.Notify(ctx, req.Content); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("discord notify failed")
		fail(c, http.StatusBadGateway, ErrCodeUpstreamFailed, "discord did not accept the message")
		return
	}
	noContent(c)
}
