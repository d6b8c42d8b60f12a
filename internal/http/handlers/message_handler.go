// Message HTTP handlers.
//
// This file exposes REST endpoints for relationship messages:
//   - POST /relationships/{id}/messages   (append a message)
//   - POST /relationships/{id}/updates    (append a highlighted update)
//   - GET  /relationships/{id}/messages   (list paginated messages, ETag)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// result exists for (user, relationship, key), the handler returns that
// recorded message and sets `Idempotency-Replayed: true`.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/masterworkhq/masterwork/internal/domain"
	"github.com/masterworkhq/masterwork/internal/http/middleware"
	"github.com/masterworkhq/masterwork/internal/repo"
)

//
// DTOs
//

// PostMessageRequest is the JSON payload for sending a message.
//
// Text is normalized by the handler (line endings and excessive blank lines)
// before being passed to the service layer. Blank text is accepted and
// ignored.
type PostMessageRequest struct {
	Text string `json:"text" example:"Sketch v2 is up, let me know what you think."`
}

// PostMessageResponse is the JSON envelope for a newly created message.
// Message is null when the text was blank and nothing was stored.
type PostMessageResponse struct {
	Message *domain.Message `json:"message"`
}

// ListMessagesResponse contains a page of messages and pagination metadata.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

//
// Helpers
//

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes user text: CRLF/CR become LF, runs of three
// or more LFs collapse to two, and surrounding whitespace is trimmed.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

type sendFunc func(ctx context.Context, relID, senderID, text string) (*domain.Message, error)

//
// Handlers
//

// PostMessage godoc
// @ID          postMessage
// @Summary     Send a message
// @Description Appends a message and refreshes every participant's summary. Blank text is a no-op.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Messages
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header    string                       false  "Idempotency key for safe retries"
// @Param       id               path      string                       true   "Relationship id"
// @Param       body             body      handlers.PostMessageRequest  true   "Message payload"
// @Success     201  {object}  handlers.PostMessageResponse  "Stored message"
// @Success     200  {object}  handlers.PostMessageResponse  "Replayed or blank"
// @Failure     400  {object}  handlers.ErrorResponse        "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse        "Not a participant"
// @Failure     404  {object}  handlers.ErrorResponse        "Relationship not found"
// @Router      /relationships/{id}/messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	h.post(c, h.Messages.Send)
}

// PostUpdate godoc
// @ID          postUpdate
// @Summary     Post an update
// @Description Like PostMessage but stored with kind "update" and rendered as an announcement.
// @Tags        Messages
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header    string                       false  "Idempotency key for safe retries"
// @Param       id               path      string                       true   "Relationship id"
// @Param       body             body      handlers.PostMessageRequest  true   "Update payload"
// @Success     201  {object}  handlers.PostMessageResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Router      /relationships/{id}/updates [post]
func (h *Handlers) PostUpdate(c *gin.Context) {
	h.post(c, h.Messages.SendUpdate)
}

func (h *Handlers) post(c *gin.Context, send sendFunc) {
	ctx := c.Request.Context()
	relID := c.Param("id")
	uid := userID(c)

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	// Sanitize + early size cap to fail fast at the edge.
	text := sanitizeContent(req.Text)
	if h.MaxMessageRunes > 0 && utf8.RuneCountInString(text) > h.MaxMessageRunes {
		fail(c, http.StatusBadRequest, ErrCodeTooLong, fmt.Sprintf("text too long: max %d runes", h.MaxMessageRunes))
		return
	}

	// Idempotency (replay path).
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && h.DB != nil {
		if rec, err := repo.GetIdempotency(ctx, h.DB, uid, relID, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err2 := repo.GetMessage(ctx, h.DB, rec.MessageID); err2 == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, http.StatusOK, PostMessageResponse{Message: prev})
				return
			}
		}
	}

	m, err := send(ctx, relID, uid, text)
	if err != nil {
		failErr(c, err, ErrCodeCreateFailed)
		return
	}
	if m == nil {
		ok(c, http.StatusOK, PostMessageResponse{})
		return
	}

	// Idempotency (store path), best effort.
	if idemKey != "" && h.DB != nil {
		_, _ = repo.CreateIdempotency(ctx, h.DB, uid, relID, idemKey, m.ID, http.StatusCreated, h.IdempotencyTTL)
	}
	ok(c, http.StatusCreated, PostMessageResponse{Message: m})
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List messages
// @Description Returns a page of messages oldest first. Participants only. Supports weak ETag via If-None-Match.
// @Tags        Messages
// @Produce     json
// @Param       id             path    string  true   "Relationship id"
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListMessagesResponse
// @Success     304  {string}  string  "Not Modified"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Relationship not found"
// @Router      /relationships/{id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	relID := c.Param("id")
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort), only once access is established.
	if h.DB != nil && h.Relationships != nil {
		if _, err := h.Relationships.Get(ctx, relID, uid); err != nil {
			failErr(c, err, ErrCodeListFailed)
			return
		}
		count, maxTS, err := repo.MessagesStats(ctx, h.DB, relID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.UnixNano()
			}
			etag := fmt.Sprintf(`W/"messages:%s:%d:%d:%d:%d"`, relID, count, ts, page, pageSize)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.Messages.ListPage(ctx, relID, uid, page, pageSize)
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, ListMessagesResponse{
		Messages:   items,
		Pagination: newPagination(page, pageSize, total),
	})
}
