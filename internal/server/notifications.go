package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleListNotifications returns the caller's notifications, unread first.
func (s *Server) handleListNotifications(c *gin.Context) {
	actor, ok := s.identity(c)
	if !ok {
		return
	}

	notifications, unread, err := s.svc.Notifications.List(c.Request.Context(), actor)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

// handleMarkNotificationRead marks one notification as read.
func (s *Server) handleMarkNotificationRead(c *gin.Context) {
	actor, ok := s.identity(c)
	if !ok {
		return
	}
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Notifications.MarkRead(c.Request.Context(), id, actor); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "read"})
}

// handleMarkAllNotificationsRead marks every unread notification as read.
func (s *Server) handleMarkAllNotificationsRead(c *gin.Context) {
	actor, ok := s.identity(c)
	if !ok {
		return
	}
	if err := s.svc.Notifications.MarkAllRead(c.Request.Context(), actor); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "read"})
}
