package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/models"
)

// handleListUsers returns registered users for assignee pickers, with
// optional search over email and names.
func (s *Server) handleListUsers(c *gin.Context) {
	page, limit, ok := parsePageLimit(c)
	if !ok {
		return
	}

	users, total, err := s.store.ListUsers(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      len(users),
		"total":      total,
		"page":       page,
		"limit":      limit,
		"totalPages": totalPages(total, limit),
		"data":       gin.H{"users": users},
	})
}

// handleGetUser fetches a single user's public record.
func (s *Server) handleGetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	user, err := s.store.GetUser(c.Request.Context(), id)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"user": user}})
}
