package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"post-board/internal/engine/actors"
	"post-board/internal/media"
	"post-board/internal/models"
	"post-board/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreatePostRequest is the JSON form of a post creation. Multipart requests
// carry the same fields plus an optional "image" file.
type CreatePostRequest struct {
	Content string   `json:"content" form:"content" binding:"required,max=10000"`
	UserID  string   `json:"userId" form:"userId"`
	Media   []string `json:"media"`
}

type UpdatePostRequest struct {
	Content string `json:"content" binding:"required,max=10000"`
}

type SignalPostRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// HandleHealth handles health check requests
func (s *Server) HandleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, appErr := s.askPosts(&actors.GetCountsMsg{})
		if appErr != nil {
			writeError(c, appErr)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"post_count":  result,
			"server_time": time.Now().UTC(),
		})
	}
}

func (s *Server) HandleListPosts() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.respondPosts(c, &actors.ListPostsMsg{})
	}
}

func (s *Server) HandleListUserPosts() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.respondPosts(c, &actors.ListUserPostsMsg{UserID: c.Param("userId")})
	}
}

func (s *Server) respondPosts(c *gin.Context, msg interface{}) {
	result, appErr := s.askPosts(msg)
	if appErr != nil {
		writeError(c, appErr)
		return
	}
	posts, ok := result.([]*models.Post)
	if !ok {
		unexpectedReply(c, result)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// respondPost writes a *models.Post reply with the given status.
func (s *Server) respondPost(c *gin.Context, status int, msg interface{}) {
	result, appErr := s.askPosts(msg)
	if appErr != nil {
		writeError(c, appErr)
		return
	}
	post, ok := result.(*models.Post)
	if !ok {
		unexpectedReply(c, result)
		return
	}
	c.JSON(status, post)
}

func (s *Server) HandleGetPost() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.respondPost(c, http.StatusOK, &actors.GetPostMsg{PostID: c.Param("id")})
	}
}

// HandleCreatePost accepts multipart/form-data (with an optional image) or JSON.
func (s *Server) HandleCreatePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreatePostRequest
		mediaRefs := make([]string, 0, 1)

		if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
			if err := c.ShouldBind(&req); err != nil {
				writeError(c, utils.NewValidationError(validationMessage(err)))
				return
			}
			ref, appErr := s.uploadImage(c)
			if appErr != nil {
				writeError(c, appErr)
				return
			}
			if ref != "" {
				mediaRefs = append(mediaRefs, ref)
			}
		} else {
			if !bindJSON(c, &req, false) {
				return
			}
			for _, raw := range req.Media {
				ref, err := s.Media.Accept(c.Request.Context(), raw)
				if err != nil {
					writeError(c, asAppError(err))
					return
				}
				mediaRefs = append(mediaRefs, ref)
			}
		}

		s.respondPost(c, http.StatusCreated, &actors.CreatePostMsg{
			Content:   req.Content,
			CreatorID: req.UserID,
			Media:     mediaRefs,
		})
	}
}

// uploadImage stores the "image" form file, if any, and returns its reference.
func (s *Server) uploadImage(c *gin.Context) (string, *utils.AppError) {
	header, err := c.FormFile("image")
	if err == http.ErrMissingFile {
		return "", nil
	}
	if err != nil {
		return "", utils.NewValidationError("Invalid image upload")
	}
	if s.MaxUploadBytes > 0 && header.Size > s.MaxUploadBytes {
		return "", utils.NewValidationError("Image exceeds the maximum upload size")
	}

	file, err := header.Open()
	if err != nil {
		return "", utils.NewValidationError("Invalid image upload")
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return "", utils.NewValidationError("Invalid image upload")
	}

	ref, err := s.Media.Upload(c.Request.Context(), buf.Bytes())
	if err != nil {
		return "", asAppError(err)
	}
	return ref, nil
}

func (s *Server) HandleUpdatePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdatePostRequest
		if !bindJSON(c, &req, false) {
			return
		}
		s.respondPost(c, http.StatusOK, &actors.UpdatePostContentMsg{PostID: c.Param("id"), Content: req.Content})
	}
}

func (s *Server) HandleDeletePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, appErr := s.askPosts(&actors.DeletePostMsg{PostID: c.Param("id")})
		if appErr != nil {
			writeError(c, appErr)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func (s *Server) HandleSignalPost() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SignalPostRequest
		if !bindJSON(c, &req, false) {
			return
		}
		if _, appErr := s.askPosts(&actors.SignalPostMsg{PostID: c.Param("id"), UserID: req.UserID}); appErr != nil {
			writeError(c, appErr)
			return
		}
		c.JSON(http.StatusCreated, models.StatusResponse{Success: true, Message: "Post signaled"})
	}
}

// HandleGetPostImage serves the post's first media reference. References
// that are URLs are redirected to; stored images are returned inline.
func (s *Server) HandleGetPostImage() gin.HandlerFunc {
	return func(c *gin.Context) {
		postID := c.Param("id")
		result, appErr := s.askPosts(&actors.GetPostMsg{PostID: postID})
		if appErr != nil {
			writeError(c, appErr)
			return
		}
		post, ok := result.(*models.Post)
		if !ok {
			unexpectedReply(c, result)
			return
		}
		if len(post.Media) == 0 {
			writeError(c, utils.NewAppError(utils.ErrNotFound, "Image not found", nil))
			return
		}

		ref := post.Media[0]
		if target, ok := media.ExternalURL(ref); ok {
			c.Redirect(http.StatusFound, target)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), s.RequestTimeout)
		defer cancel()
		obj, err := s.Media.Fetch(ctx, ref)
		if err != nil {
			zap.S().Errorf("Failed to fetch image for post %s: %v", postID, err)
			writeError(c, asAppError(err))
			return
		}

		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s%s", postID, obj.Extension))
		c.Data(http.StatusOK, obj.ContentType, obj.Data)
	}
}

func asAppError(err error) *utils.AppError {
	if appErr, ok := err.(*utils.AppError); ok {
		return appErr
	}
	return utils.NewAppError(utils.ErrInternal, "Unexpected error", err)
}
