package handlers

import (
	"net/http"

	"post-board/internal/engine/actors"
	"post-board/internal/models"

	"github.com/gin-gonic/gin"
)

type SetReactionRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// DecrementReactionRequest may be omitted entirely; without a userId the
// newest reaction of that kind is retracted.
type DecrementReactionRequest struct {
	UserID string `json:"userId"`
}

func (s *Server) HandleGetReactionCounts() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.respondCounts(c, &actors.GetReactionCountsMsg{PostID: c.Param("id")})
	}
}

func (s *Server) HandleSetReaction() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SetReactionRequest
		if !bindJSON(c, &req, false) {
			return
		}
		s.respondCounts(c, &actors.SetReactionMsg{
			PostID:   c.Param("id"),
			UserID:   req.UserID,
			Reaction: c.Param("reaction"),
		})
	}
}

func (s *Server) HandleDecrementReaction() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DecrementReactionRequest
		if !bindJSON(c, &req, true) {
			return
		}
		s.respondCounts(c, &actors.DecrementReactionMsg{
			PostID:   c.Param("id"),
			Reaction: c.Param("reaction"),
			UserID:   req.UserID,
		})
	}
}

func (s *Server) respondCounts(c *gin.Context, msg interface{}) {
	result, appErr := s.askPosts(msg)
	if appErr != nil {
		writeError(c, appErr)
		return
	}
	counts, ok := result.(models.ReactionCounts)
	if !ok {
		unexpectedReply(c, result)
		return
	}
	c.JSON(http.StatusOK, counts)
}
