package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/models"
)

type commentRequest struct {
	Content string `json:"content"`
}

// handleListComments returns the comments on a task the user can see.
func (s *Server) handleListComments(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID := currentUserID(c)

	// Visibility gate: the parent task must be readable.
	if _, err := s.store.GetTask(c.Request.Context(), taskID, userID); err != nil {
		s.respondStoreError(c, err)
		return
	}

	comments, err := s.store.ListComments(c.Request.Context(), taskID)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if comments == nil {
		comments = []models.Comment{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(comments),
		"data":    gin.H{"comments": comments},
	})
}

// handleCreateComment adds a comment to a visible task.
func (s *Server) handleCreateComment(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID := currentUserID(c)

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
		respondFail(c, http.StatusBadRequest, "comment content is required")
		return
	}

	if _, err := s.store.GetTask(c.Request.Context(), taskID, userID); err != nil {
		s.respondStoreError(c, err)
		return
	}

	comment, err := s.store.CreateComment(c.Request.Context(), taskID, userID, req.Content)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	s.recordActivity(c, taskID, userID, models.ActionCommented, "Comment added")

	s.logger.Info("comment created", "task_id", taskID, "user_id", userID)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Comment created successfully",
		"data":    gin.H{"comment": comment},
	})
}

// handleUpdateComment edits a comment; only the author may edit.
func (s *Server) handleUpdateComment(c *gin.Context) {
	commentID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID := currentUserID(c)

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
		respondFail(c, http.StatusBadRequest, "comment content is required")
		return
	}

	comment, err := s.store.UpdateComment(c.Request.Context(), commentID, userID, req.Content)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	s.recordActivity(c, comment.TaskID, userID, models.ActionCommented, "Comment updated")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Comment updated successfully",
		"data":    gin.H{"comment": comment},
	})
}

// handleDeleteComment removes a comment; only the author may delete.
func (s *Server) handleDeleteComment(c *gin.Context) {
	commentID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID := currentUserID(c)

	// Look up the parent task before the row is gone so the deletion
	// still lands on the task's timeline.
	taskID, err := s.store.GetCommentTask(c.Request.Context(), commentID)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	if err := s.store.DeleteComment(c.Request.Context(), commentID, userID); err != nil {
		s.respondStoreError(c, err)
		return
	}

	s.recordActivity(c, taskID, userID, models.ActionCommented, "Comment deleted")

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Comment deleted successfully"})
}
