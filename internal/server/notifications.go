package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskhub/internal/models"
	"taskhub/internal/store/sqlite"
)

// handleListNotifications returns a page of the user's feed together
// with the unread count the bell badge displays.
func (s *Server) handleListNotifications(c *gin.Context) {
	userID := currentUserID(c)

	page, limit, ok := parsePageLimit(c)
	if !ok {
		return
	}

	filter := sqlite.NotificationFilter{Page: page, Limit: limit}
	if raw := c.Query("read_status"); raw != "" {
		read, err := strconv.ParseBool(raw)
		if err != nil {
			respondFail(c, http.StatusBadRequest, "read_status must be a boolean")
			return
		}
		filter.ReadStatus = &read
	}
	if kind := c.Query("type"); kind != "" {
		if _, ok := models.ValidNotificationTypes[kind]; !ok {
			respondFail(c, http.StatusBadRequest, "type must be one of: assignment, update, completion, info")
			return
		}
		filter.Type = kind
	}

	notifications, total, unread, err := s.store.ListNotifications(c.Request.Context(), userID, filter)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"count":        len(notifications),
		"total":        total,
		"unread_count": unread,
		"page":         page,
		"limit":        limit,
		"totalPages":   totalPages(total, limit),
		"data":         gin.H{"notifications": notifications},
	})
}

// handleMarkNotificationRead marks one notification as read.
func (s *Server) handleMarkNotificationRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	notification, err := s.store.MarkNotificationRead(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Notification marked as read",
		"data":    gin.H{"notification": notification},
	})
}

// handleMarkAllNotificationsRead marks the whole feed as read.
func (s *Server) handleMarkAllNotificationsRead(c *gin.Context) {
	count, err := s.store.MarkAllNotificationsRead(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("%d notifications marked as read", count),
		"data":    gin.H{"count": count},
	})
}

// handleDeleteNotification removes one notification from the feed.
func (s *Server) handleDeleteNotification(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := s.store.DeleteNotification(c.Request.Context(), id, currentUserID(c)); err != nil {
		s.respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification deleted successfully"})
}
