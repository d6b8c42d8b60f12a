// Relationship HTTP handlers.
//
// This file exposes REST endpoints for relationships and the caller's list:
//   - GET   /relationships             (caller's summaries, paginated, ETag)
//   - GET   /relationships/{id}        (canonical record, participants only)
//   - PATCH /relationships/{id}/shared (shared note, guidance, scene, ai mode)
//   - POST  /relationships/{id}/read   (advance the caller's read marker)
//   - POST  /cc/unlink                 (remove a member from a client chat)
//   - POST  /commissions               (open a commission with an artist)
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/masterworkhq/masterwork/internal/repo"
	"github.com/masterworkhq/masterwork/internal/services"
)

// ListRelationshipsResponse wraps a page of summaries.
type ListRelationshipsResponse struct {
	Relationships []services.SummaryView `json:"relationships"`
	Pagination    Pagination             `json:"pagination"`
}

// UnlinkRequest names the client chat and the member to remove.
type UnlinkRequest struct {
	OwnerID  string `json:"owner_id"  binding:"required" example:"coach-1"`
	ClientID string `json:"client_id" example:"client-7"`
	UserID   string `json:"user_id"   binding:"required" example:"member-3"`
}

// ListRelationships godoc
// @ID          listRelationships
// @Summary     List my relationships
// @Description Returns the caller's summaries for one area, most recent activity first. Supports weak ETag via If-None-Match.
// @Tags        Relationships
// @Produce     json
// @Param       area           query   string  true   "Product area"  Enums(cc, commission, biggote)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListRelationshipsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /relationships [get]
func (h *Handlers) ListRelationships(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	area := strings.TrimSpace(c.Query("area"))
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if h.DB != nil && area != "" {
		count, maxTS, err := repo.SummariesStats(ctx, h.DB, uid, area)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.UnixNano()
			}
			etag := fmt.Sprintf(`W/"summaries:%s:%s:%d:%d:%d:%d"`, uid, area, count, ts, page, pageSize)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.Relationships.ListForUser(ctx, uid, area, page, pageSize)
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, ListRelationshipsResponse{
		Relationships: items,
		Pagination:    newPagination(page, pageSize, total),
	})
}

// GetRelationship godoc
// @ID          getRelationship
// @Summary     Read a relationship
// @Tags        Relationships
// @Produce     json
// @Param       id   path      string  true  "Relationship id"
// @Success     200  {object}  domain.Relationship
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /relationships/{id} [get]
func (h *Handlers) GetRelationship(c *gin.Context) {
	rel, err := h.Relationships.Get(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, rel)
}

// UpdateShared godoc
// @ID          updateShared
// @Summary     Update shared fields
// @Description Patches the shared note, behavior guidance, scene or AI mode. Omitted fields are unchanged.
// @Tags        Relationships
// @Accept      json
// @Produce     json
// @Param       id    path      string                 true  "Relationship id"
// @Param       body  body      services.SharedUpdate  true  "Fields to change"
// @Success     200   {object}  domain.Relationship
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403   {object}  handlers.ErrorResponse  "Not a participant"
// @Router      /relationships/{id}/shared [patch]
func (h *Handlers) UpdateShared(c *gin.Context) {
	var req services.SharedUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	rel, err := h.Relationships.UpdateShared(c.Request.Context(), c.Param("id"), userID(c), req)
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, rel)
}

// MarkRead godoc
// @ID          markRead
// @Summary     Mark a relationship read
// @Tags        Relationships
// @Produce     json
// @Param       id   path      string  true  "Relationship id"
// @Success     200  {object}  services.SummaryView
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Router      /relationships/{id}/read [post]
func (h *Handlers) MarkRead(c *gin.Context) {
	v, err := h.Relationships.MarkRead(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, v)
}

// Unlink godoc
// @ID          unlinkMember
// @Summary     Remove a member from a client chat
// @Description The owner or the departing member may unlink. Mirror records are cleaned up even when the relationship is gone.
// @Tags        Relationships
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.UnlinkRequest  true  "Client chat and member"
// @Success     200   {object}  services.UnlinkResult
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403   {object}  handlers.ErrorResponse  "Forbidden"
// @Router      /cc/unlink [post]
func (h *Handlers) Unlink(c *gin.Context) {
	var req UnlinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "owner_id and user_id are required")
		return
	}
	res, err := h.Unlinks.Unlink(c.Request.Context(), userID(c), req.OwnerID, req.ClientID, req.UserID)
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, res)
}

// StartCommission godoc
// @ID          startCommission
// @Summary     Open a commission
// @Description Opens (or reopens) the commission between the caller and an artist and posts the brief.
// @Tags        Commissions
// @Accept      json
// @Produce     json
// @Param       body  body      services.StartCommissionInput  true  "Artist and brief"
// @Success     201   {object}  services.CommissionResult
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409   {object}  handlers.ErrorResponse  "Id collision"
// @Router      /commissions [post]
func (h *Handlers) StartCommission(c *gin.Context) {
	var req services.StartCommissionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	res, err := h.Commissions.Start(c.Request.Context(), userID(c), req)
	if err != nil {
		failErr(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, res)
}
