package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elliewren/caption-gallery/backend/internal/middleware"
	"github.com/elliewren/caption-gallery/backend/internal/votes"
)

type CaptionHandler struct {
	workflow *votes.Workflow
}

func NewCaptionHandler(workflow *votes.Workflow) *CaptionHandler {
	return &CaptionHandler{workflow: workflow}
}

// GetCaptions returns every caption, newest first (public read).
func (h *CaptionHandler) GetCaptions(c *gin.Context) {
	captions, err := h.workflow.LoadContent(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch captions"})
		return
	}
	c.JSON(http.StatusOK, captions)
}

// GetMyVotes returns the current identity's vote mapping (caption id ->
// direction). Fetch failures fold to an empty mapping, never an error.
func (h *CaptionHandler) GetMyVotes(c *gin.Context) {
	ident := middleware.CurrentIdentity(c)
	if ident == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, h.workflow.LoadUserVotes(c.Request.Context(), ident))
}

// CastVote applies one step of the vote cycle for the current identity.
func (h *CaptionHandler) CastVote(c *gin.Context) {
	captionID := c.Param("id")

	var input struct {
		Direction int `json:"direction" binding:"required,oneof=-1 1"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Direction must be -1 or 1"})
		return
	}

	ident := middleware.CurrentIdentity(c)

	result, err := h.workflow.CastVote(c.Request.Context(), ident, captionID, input.Direction)
	switch {
	case errors.Is(err, votes.ErrNotSignedIn):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	case errors.Is(err, votes.ErrBadDirection):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Direction must be -1 or 1"})
		return
	case errors.Is(err, votes.ErrCaptionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Caption not found"})
		return
	case errors.Is(err, votes.ErrVoteInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "Vote already in progress for this caption"})
		return
	case err != nil:
		// The store's native error text is all we have; forward it.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	message := "Vote recorded"
	if result == 0 {
		message = "Vote removed"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "direction": result})
}
