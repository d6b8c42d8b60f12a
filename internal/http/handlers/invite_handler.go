// Invite HTTP handlers.
//
// This file exposes REST endpoints for invites:
//   - POST   /invites                        (create, returns the share URL)
//   - GET    /invites                        (list the caller's invites)
//   - GET    /invites/{owner}/{token}        (read; the token is the capability)
//   - DELETE /invites/{owner}/{token}        (revoke, owner only)
//   - POST   /invites/{owner}/{token}/accept (join the relationship)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/masterworkhq/masterwork/internal/services"
)

// ListInvitesResponse wraps the caller's invites.
type ListInvitesResponse struct {
	Invites []services.InviteView `json:"invites"`
}

// CreateInvite godoc
// @ID          createInvite
// @Summary     Create an invite
// @Description Mints an unguessable token for one of the product areas and returns a shareable URL.
// @Tags        Invites
// @Accept      json
// @Produce     json
// @Param       body  body      services.CreateInviteInput  true  "Invite settings"
// @Success     201   {object}  services.CreatedInvite
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401   {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /invites [post]
func (h *Handlers) CreateInvite(c *gin.Context) {
	var req services.CreateInviteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	created, err := h.Invites.Create(c.Request.Context(), userID(c), req)
	if err != nil {
		failErr(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, created)
}

// ListInvites godoc
// @ID          listInvites
// @Summary     List my invites
// @Tags        Invites
// @Produce     json
// @Param       area  query     string  false  "Filter by product area"  Enums(cc, commission, biggote)
// @Success     200   {object}  handlers.ListInvitesResponse
// @Failure     401   {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /invites [get]
func (h *Handlers) ListInvites(c *gin.Context) {
	list, err := h.Invites.ListForOwner(c.Request.Context(), userID(c), strings.TrimSpace(c.Query("area")))
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, ListInvitesResponse{Invites: list})
}

// GetInvite godoc
// @ID          getInvite
// @Summary     Read an invite
// @Description Returns the invite and whether it can still be accepted.
// @Tags        Invites
// @Produce     json
// @Param       owner  path      string  true  "Owner user id"
// @Param       token  path      string  true  "Invite token"
// @Success     200    {object}  services.InviteView
// @Failure     404    {object}  handlers.ErrorResponse  "Invite not found"
// @Router      /invites/{owner}/{token} [get]
func (h *Handlers) GetInvite(c *gin.Context) {
	v, err := h.Invites.View(c.Request.Context(), c.Param("owner"), c.Param("token"))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, v)
}

// RevokeInvite godoc
// @ID          revokeInvite
// @Summary     Revoke an invite
// @Tags        Invites
// @Param       owner  path  string  true  "Owner user id (must be the caller)"
// @Param       token  path  string  true  "Invite token"
// @Success     204    {string}  string  "No Content"
// @Failure     403    {object}  handlers.ErrorResponse  "Not the owner"
// @Failure     404    {object}  handlers.ErrorResponse  "Invite not found"
// @Failure     409    {object}  handlers.ErrorResponse  "Invite no longer active"
// @Router      /invites/{owner}/{token} [delete]
func (h *Handlers) RevokeInvite(c *gin.Context) {
	owner := c.Param("owner")
	if owner != userID(c) {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "only the owner can revoke an invite")
		return
	}
	if err := h.Invites.Revoke(c.Request.Context(), owner, c.Param("token")); err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}

// AcceptInvite godoc
// @ID          acceptInvite
// @Summary     Accept an invite
// @Description Joins the caller to the relationship the invite describes. Failures carry a stable link code.
// @Tags        Invites
// @Produce     json
// @Param       owner  path      string  true  "Owner user id"
// @Param       token  path      string  true  "Invite token"
// @Success     200    {object}  services.AcceptResult
// @Failure     404    {object}  handlers.ErrorResponse  "invite_not_found"
// @Failure     409    {object}  handlers.ErrorResponse  "id_collision"
// @Failure     410    {object}  handlers.ErrorResponse  "not_usable"
// @Failure     500    {object}  handlers.ErrorResponse  "create_denied, summary_write_denied or invite_update_denied"
// @Router      /invites/{owner}/{token}/accept [post]
func (h *Handlers) AcceptInvite(c *gin.Context) {
	res, err := h.Links.Accept(c.Request.Context(), c.Param("owner"), c.Param("token"), userID(c))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, res)
}
