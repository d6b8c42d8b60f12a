package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/masterworkhq/masterwork/internal/domain"
	"github.com/masterworkhq/masterwork/internal/services"
)

// CharacterSheetsResponse lists every participant's character.
type CharacterSheetsResponse struct {
	Characters []services.CharacterSheet `json:"characters"`
}

// InventoryResponse wraps one participant's inventory.
type InventoryResponse struct {
	Items []domain.InventoryItem `json:"items"`
}

// ListCharacters godoc
// @ID          listCharacters
// @Summary     List characters
// @Description Returns profile, state and inventory for each participant of a BigGote relationship.
// @Tags        Characters
// @Produce     json
// @Param       id   path  string  true  "Relationship id"
// @Success     200  {object}  handlers.CharacterSheetsResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     409  {object}  handlers.ErrorResponse  "Not a BigGote relationship"
// @Router      /relationships/{id}/characters [get]
func (h *Handlers) ListCharacters(c *gin.Context) {
	sheets, err := h.Characters.Sheets(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, CharacterSheetsResponse{Characters: sheets})
}

// CreateCharacter godoc
// @ID          createCharacter
// @Summary     Create the caller's character
// @Description Saves the setup form once. A second call answers 409.
// @Tags        Characters
// @Accept      json
// @Produce     json
// @Param       id    path  string                 true  "Relationship id"
// @Param       body  body  services.ProfileInput  true  "Character setup"
// @Success     201  {object}  domain.CharacterProfile
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid profile"
// @Failure     409  {object}  handlers.ErrorResponse  "Profile already exists"
// @Router      /relationships/{id}/characters [post]
func (h *Handlers) CreateCharacter(c *gin.Context) {
	var in services.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.Characters.CreateProfile(c.Request.Context(), c.Param("id"), userID(c), in)
	if err != nil {
		failErr(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, p)
}

// GetCharacterProfile godoc
// @ID          getCharacterProfile
// @Summary     Get a character profile
// @Tags        Characters
// @Produce     json
// @Param       id    path  string  true  "Relationship id"
// @Param       user  path  string  true  "Participant user id"
// @Success     200  {object}  domain.CharacterProfile
// @Failure     404  {object}  handlers.ErrorResponse  "No profile"
// @Router      /relationships/{id}/characters/{user}/profile [get]
func (h *Handlers) GetCharacterProfile(c *gin.Context) {
	p, err := h.Characters.GetProfile(c.Request.Context(), c.Param("id"), userID(c), c.Param("user"))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, p)
}

// GetCharacterState godoc
// @ID          getCharacterState
// @Summary     Get a character state
// @Tags        Characters
// @Produce     json
// @Param       id    path  string  true  "Relationship id"
// @Param       user  path  string  true  "Participant user id"
// @Success     200  {object}  domain.CharacterState
// @Router      /relationships/{id}/characters/{user}/state [get]
func (h *Handlers) GetCharacterState(c *gin.Context) {
	st, err := h.Characters.GetState(c.Request.Context(), c.Param("id"), userID(c), c.Param("user"))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, st)
}

// GetCharacterInventory godoc
// @ID          getCharacterInventory
// @Summary     Get a character inventory
// @Tags        Characters
// @Produce     json
// @Param       id    path  string  true  "Relationship id"
// @Param       user  path  string  true  "Participant user id"
// @Success     200  {object}  handlers.InventoryResponse
// @Router      /relationships/{id}/characters/{user}/inventory [get]
func (h *Handlers) GetCharacterInventory(c *gin.Context) {
	items, err := h.Characters.GetInventory(c.Request.Context(), c.Param("id"), userID(c), c.Param("user"))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, InventoryResponse{Items: items})
}

// PatchState godoc
// @ID          patchCharacterState
// @Summary     Update the caller's character state
// @Tags        Characters
// @Accept      json
// @Produce     json
// @Param       id    path  string             true  "Relationship id"
// @Param       body  body  domain.StatePatch  true  "State patch"
// @Success     200  {object}  domain.CharacterState
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid patch"
// @Router      /relationships/{id}/state [patch]
func (h *Handlers) PatchState(c *gin.Context) {
	var p domain.StatePatch
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	st, err := h.Characters.PatchState(c.Request.Context(), c.Param("id"), userID(c), p)
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, st)
}

// PatchInventory godoc
// @ID          patchCharacterInventory
// @Summary     Update the caller's inventory
// @Description Operations apply in the order set, add, remove.
// @Tags        Characters
// @Accept      json
// @Produce     json
// @Param       id    path  string                 true  "Relationship id"
// @Param       body  body  domain.InventoryPatch  true  "Inventory patch"
// @Success     200  {object}  handlers.InventoryResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid patch"
// @Router      /relationships/{id}/inventory [patch]
func (h *Handlers) PatchInventory(c *gin.Context) {
	var p domain.InventoryPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	items, err := h.Characters.PatchInventory(c.Request.Context(), c.Param("id"), userID(c), p)
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, InventoryResponse{Items: items})
}

// FinishTurn godoc
// @ID          finishTurn
// @Summary     Finish a turn
// @Description Asks the narrator for the next beat, posts it and applies any structured actions.
// @Tags        Characters
// @Produce     json
// @Param       id  path  string  true  "Relationship id"
// @Success     201  {object}  services.TurnResult
// @Failure     409  {object}  handlers.ErrorResponse  "Not a BigGote relationship"
// @Failure     502  {object}  handlers.ErrorResponse  "Narrator unavailable"
// @Router      /relationships/{id}/turn [post]
func (h *Handlers) FinishTurn(c *gin.Context) {
	if h.Turns == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeNotConfigured, "narrator is not configured")
		return
	}
	res, err := h.Turns.FinishTurn(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusCreated, res)
}
