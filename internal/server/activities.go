package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/models"
)

// handleListTaskActivities returns the timeline for one visible task.
func (s *Server) handleListTaskActivities(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID := currentUserID(c)

	if _, err := s.store.GetTask(c.Request.Context(), taskID, userID); err != nil {
		s.respondStoreError(c, err)
		return
	}

	activities, err := s.store.ListTaskActivities(c.Request.Context(), taskID)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if activities == nil {
		activities = []models.Activity{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(activities),
		"data":    gin.H{"activities": activities},
	})
}

// handleListUserActivities returns the timeline across every task the
// user can see, optionally filtered by action.
func (s *Server) handleListUserActivities(c *gin.Context) {
	userID := currentUserID(c)

	page, limit, ok := parsePageLimit(c)
	if !ok {
		return
	}

	activities, total, err := s.store.ListUserActivities(c.Request.Context(), userID, c.Query("action"), page, limit)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if activities == nil {
		activities = []models.Activity{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      len(activities),
		"total":      total,
		"page":       page,
		"limit":      limit,
		"totalPages": totalPages(total, limit),
		"data":       gin.H{"activities": activities},
	})
}
