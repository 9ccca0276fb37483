// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bcem/helpdesk/internal/ingest"
	"github.com/bcem/helpdesk/internal/models"
	"github.com/bcem/helpdesk/internal/notification"
	"github.com/bcem/helpdesk/internal/settings"
	"github.com/bcem/helpdesk/internal/ticket"
)

// abortWithError maps service errors onto status codes.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ingest.ErrInvalidEvent),
		errors.Is(err, settings.ErrInvalidSetting),
		errors.Is(err, notification.ErrInvalidNotification):
		status = http.StatusBadRequest
	case errors.Is(err, ingest.ErrDuplicate):
		status = http.StatusConflict
	case errors.Is(err, settings.ErrNotFound),
		errors.Is(err, notification.ErrNotFound),
		errors.Is(err, ticket.ErrNotFound):
		status = http.StatusNotFound
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// --- ingest ---

func (s *Server) ingest(c *gin.Context) {
	var event models.InboundEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	result, err := s.ingestor.Ingest(c.Request.Context(), event)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// --- email settings ---

// settingRequest is the create/update body. Active defaults to true.
type settingRequest struct {
	EmailPattern string `json:"emailPattern"`
	Department   string `json:"department"`
	DisplayName  string `json:"displayName"`
	Active       *bool  `json:"active"`
}

func (r settingRequest) toModel() models.EmailSetting {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return models.EmailSetting{
		EmailPattern: r.EmailPattern,
		Department:   r.Department,
		DisplayName:  r.DisplayName,
		Active:       active,
	}
}

func (s *Server) registerSettingsRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/email-settings")
	g.GET("", s.listSettings)
	g.POST("", s.createSetting)
	g.GET("/:id", s.getSetting)
	g.PUT("/:id", s.updateSetting)
	g.DELETE("/:id", s.deleteSetting)
}

func (s *Server) listSettings(c *gin.Context) {
	list, err := s.settings.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	if list == nil {
		list = []models.EmailSetting{}
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getSetting(c *gin.Context) {
	setting, err := s.settings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

func (s *Server) createSetting(c *gin.Context) {
	var body settingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	setting, err := s.settings.Create(c.Request.Context(), body.toModel())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, setting)
}

func (s *Server) updateSetting(c *gin.Context) {
	var body settingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	setting, err := s.settings.Update(c.Request.Context(), c.Param("id"), body.toModel())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

func (s *Server) deleteSetting(c *gin.Context) {
	if err := s.settings.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- notifications ---

func (s *Server) registerNotificationRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/notifications")
	g.GET("", s.listNotifications)
	g.POST("", s.createNotification)
	g.POST("/:id/read", s.markNotificationRead)
	g.DELETE("/:id", s.deleteNotification)
}

func (s *Server) listNotifications(c *gin.Context) {
	unread, _ := strconv.ParseBool(c.Query("unread"))
	list, err := s.notifications.List(c.Request.Context(), notification.Query{
		Recipient:  c.Query("recipient"),
		UnreadOnly: unread,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) createNotification(c *gin.Context) {
	var body models.Notification
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	n, err := s.notifications.Create(c.Request.Context(), body)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (s *Server) markNotificationRead(c *gin.Context) {
	if err := s.notifications.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteNotification(c *gin.Context) {
	if err := s.notifications.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- tickets ---

func (s *Server) registerTicketRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/tickets")
	g.GET("", s.listTickets)
	g.GET("/:id", s.getTicket)
}

func (s *Server) listTickets(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	list, err := s.tickets.List(c.Request.Context(), ticket.ListFilter{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Limit:    limit,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	if list == nil {
		list = []models.Ticket{}
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getTicket(c *gin.Context) {
	t, err := s.tickets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}
