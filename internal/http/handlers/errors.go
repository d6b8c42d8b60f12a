// Error codes are stable snake_case strings and part of the API contract.
// Invite acceptance returns its link codes verbatim, each paired with a
// fixed sentence in linkMessages. not_usable answers also carry the reason,
// which selects a more precise sentence from notUsableMessages.

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/masterworkhq/masterwork/internal/auth"
	"github.com/masterworkhq/masterwork/internal/domain"
	"github.com/masterworkhq/masterwork/internal/http/middleware"
	"github.com/masterworkhq/masterwork/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeTooLong          = "too_long"
	ErrCodeNotParticipant   = "not_participant"
	ErrCodeWrongArea        = "wrong_area"
	ErrCodeProfileImmutable = "profile_immutable"
	ErrCodeAIUnavailable    = "ai_unavailable"
	ErrCodeNotConfigured    = "not_configured"
	ErrCodeInvalidSignature = "invalid_signature"
	ErrCodeInviteNotFound   = "invite_not_found"
	ErrCodeInviteNotUsable  = "not_usable"
	ErrCodeUpstreamFailed   = "upstream_failed"
)

// linkMessages are the fixed sentences shown for each invite-acceptance
// failure code.
var linkMessages = map[string]string{
	services.LinkReadDenied:         "You do not have permission to read this invite.",
	services.LinkInviteNotFound:     "This invite link is invalid or no longer exists.",
	services.LinkNotUsable:          "This invite has already been used, revoked, or expired.",
	services.LinkCreateDenied:       "The relationship could not be created.",
	services.LinkSummaryWriteDenied: "Your conversation list could not be updated. Please try again.",
	services.LinkInviteUpdateDenied: "The invite could not be marked as used. Please try again.",
	services.LinkIDCollision:        "This invite points at a conversation that belongs to someone else.",
}

// notUsableMessages refine the not_usable sentence by reason.
var notUsableMessages = map[string]string{
	domain.ReasonUsed:      "This invite has already been used.",
	domain.ReasonRevoked:   "This invite was revoked by its owner.",
	domain.ReasonExpired:   "This invite has expired. Ask for a new link.",
	domain.ReasonMissing:   "This invite link is invalid or no longer exists.",
	domain.ReasonNotActive: "This invite is not active.",
	services.ReasonSelf:    "You cannot accept your own invite. Share the link instead.",
}

var linkStatus = map[string]int{
	services.LinkReadDenied:         http.StatusForbidden,
	services.LinkInviteNotFound:     http.StatusNotFound,
	services.LinkNotUsable:          http.StatusGone,
	services.LinkCreateDenied:       http.StatusInternalServerError,
	services.LinkSummaryWriteDenied: http.StatusInternalServerError,
	services.LinkInviteUpdateDenied: http.StatusInternalServerError,
	services.LinkIDCollision:        http.StatusConflict,
}

// LinkMessage returns the human-readable sentence for a link error code.
func LinkMessage(code string) string {
	if m, ok := linkMessages[code]; ok {
		return m
	}
	return "The invite could not be accepted."
}

// LinkReasonMessage is LinkMessage refined by the failure reason, when one
// has its own sentence.
func LinkReasonMessage(code, reason string) string {
	if code == services.LinkNotUsable {
		if m, ok := notUsableMessages[reason]; ok {
			return m
		}
	}
	return LinkMessage(code)
}

// failErr maps a service error onto the error envelope. fallbackCode is used
// for unexpected (5xx) errors.
func failErr(c *gin.Context, err error, fallbackCode string) {
	var le *services.LinkError
	switch {
	case errors.As(err, &le):
		status, ok := linkStatus[le.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		failReason(c, status, le.Code, le.Reason, LinkReasonMessage(le.Code, le.Reason))
	case errors.Is(err, services.ErrInvalidInput):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrTooLong):
		fail(c, http.StatusBadRequest, ErrCodeTooLong, err.Error())
	case errors.Is(err, services.ErrUnknownArea):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrRelationshipNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "relationship not found")
	case errors.Is(err, services.ErrProfileNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "character profile not found")
	case errors.Is(err, services.ErrInviteNotFound):
		fail(c, http.StatusNotFound, ErrCodeInviteNotFound, LinkMessage(services.LinkInviteNotFound))
	case errors.Is(err, services.ErrInviteNotUsable):
		fail(c, http.StatusConflict, ErrCodeInviteNotUsable, LinkMessage(services.LinkNotUsable))
	case errors.Is(err, services.ErrNotParticipant):
		fail(c, http.StatusForbidden, ErrCodeNotParticipant, "not a participant of this relationship")
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "forbidden")
	case errors.Is(err, services.ErrWrongArea):
		fail(c, http.StatusConflict, ErrCodeWrongArea, err.Error())
	case errors.Is(err, services.ErrProfileImmutable):
		fail(c, http.StatusConflict, ErrCodeProfileImmutable, err.Error())
	case errors.Is(err, services.ErrAIUnavailable):
		fail(c, http.StatusBadGateway, ErrCodeAIUnavailable, "the narrator is unavailable, try again")
	case errors.Is(err, auth.ErrInvalidToken):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid or expired token")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Str("code", fallbackCode).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, fallbackCode, "internal error")
	}
}
