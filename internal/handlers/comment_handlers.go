package handlers

import (
	"net/http"

	"post-board/internal/engine/actors"
	"post-board/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateCommentRequest represents a request to add a comment to a post
type CreateCommentRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Comment  string `json:"comment" binding:"required,max=5000"`
}

// EditCommentRequest represents a request to edit an existing comment
type EditCommentRequest struct {
	Comment string `json:"comment" binding:"required,max=5000"`
}

// CommentReactionRequest sets a user's emoji on a comment
type CommentReactionRequest struct {
	Emoji  string `json:"emoji" binding:"required"`
	UserID string `json:"userId" binding:"required"`
}

func (s *Server) HandleListComments() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, appErr := s.askPosts(&actors.ListCommentsMsg{PostID: c.Param("id")})
		if appErr != nil {
			writeError(c, appErr)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func (s *Server) HandleAddComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateCommentRequest
		if !bindJSON(c, &req, false) {
			return
		}
		s.respondComment(c, http.StatusCreated, &actors.AddCommentMsg{
			PostID:     c.Param("id"),
			AuthorID:   req.UserID,
			AuthorName: req.Username,
			Body:       req.Comment,
		})
	}
}

func (s *Server) HandleEditComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EditCommentRequest
		if !bindJSON(c, &req, false) {
			return
		}
		s.respondComment(c, http.StatusOK, &actors.EditCommentMsg{
			PostID:    c.Param("id"),
			CommentID: c.Param("commentId"),
			Body:      req.Comment,
		})
	}
}

func (s *Server) respondComment(c *gin.Context, status int, msg interface{}) {
	result, appErr := s.askPosts(msg)
	if appErr != nil {
		writeError(c, appErr)
		return
	}
	comment, ok := result.(*models.Comment)
	if !ok {
		unexpectedReply(c, result)
		return
	}
	c.JSON(status, comment)
}

func (s *Server) HandleDeleteComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, appErr := s.askPosts(&actors.DeleteCommentMsg{
			PostID:    c.Param("id"),
			CommentID: c.Param("commentId"),
		})
		if appErr != nil {
			writeError(c, appErr)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func (s *Server) HandleSetCommentReaction() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CommentReactionRequest
		if !bindJSON(c, &req, false) {
			return
		}
		result, appErr := s.askPosts(&actors.SetCommentReactionMsg{
			PostID:    c.Param("postId"),
			CommentID: c.Param("commentId"),
			UserID:    req.UserID,
			Emoji:     req.Emoji,
		})
		if appErr != nil {
			writeError(c, appErr)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Reaction added to comment successfully",
			"post":    result,
		})
	}
}

func (s *Server) HandleGetCommentReactionCounts() gin.HandlerFunc {
	return func(c *gin.Context) {
		postID := c.Param("postId")
		result, appErr := s.askPosts(&actors.GetCommentReactionCountsMsg{PostID: postID})
		if appErr != nil {
			writeError(c, appErr)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"postId":           postID,
			"commentReactions": result,
		})
	}
}
