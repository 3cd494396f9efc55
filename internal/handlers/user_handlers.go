package handlers

import (
	"net/http"

	"post-board/internal/engine/actors"

	"github.com/gin-gonic/gin"
)

// RegisterUserRequest represents a request to register a new user
type RegisterUserRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Password string `json:"password" binding:"required,max=72"`
}

// LoginRequest represents a request to log in a user
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UsernameRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// HandleUserRegistration handles requests to register a new user
func (s *Server) HandleUserRegistration() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterUserRequest
		if !bindJSON(c, &req, false) {
			return
		}
		result, appErr := s.askUsers(&actors.RegisterUserMsg{Username: req.Username, Password: req.Password})
		if appErr != nil {
			writeError(c, appErr)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

// HandleUserLogin handles requests to log in a user
func (s *Server) HandleUserLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if !bindJSON(c, &req, false) {
			return
		}
		result, appErr := s.askUsers(&actors.LoginMsg{Username: req.Username, Password: req.Password})
		if appErr != nil {
			writeError(c, appErr)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// HandleGetUsername resolves a user id to its username
func (s *Server) HandleGetUsername() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UsernameRequest
		if !bindJSON(c, &req, false) {
			return
		}
		result, appErr := s.askUsers(&actors.GetUsernameMsg{UserID: req.UserID})
		if appErr != nil {
			writeError(c, appErr)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
