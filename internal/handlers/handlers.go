// Package handlers exposes the platform over HTTP. Handlers translate JSON
// requests into service calls and service error kinds into status codes;
// all business rules live in the service layer.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/paulcherng/SecretSantaPlatform/internal/models"
	"github.com/paulcherng/SecretSantaPlatform/internal/service"
)

// HTTPHandler holds the dependencies for the HTTP handlers.
type HTTPHandler struct {
	service *service.Service
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(svc *service.Service) *HTTPHandler {
	return &HTTPHandler{service: svc}
}

// RegisterPublicRoutes registers the routes that need no credentials:
// participant submission and the public event views.
func (h *HTTPHandler) RegisterPublicRoutes(r gin.IRouter) {
	r.POST("/api/events/:id/submissions", h.Submit)
	r.GET("/api/events/:id/config", h.GetPublicConfig)
	r.GET("/api/events/:id/status", h.GetStatus)
	r.GET("/healthz", h.Healthz)
}

// RegisterAdminRoutes registers the administrative routes. The caller is
// expected to mount these behind the admin-secret middleware.
func (h *HTTPHandler) RegisterAdminRoutes(r gin.IRouter) {
	r.POST("/api/events", h.CreateEvent)
	r.GET("/api/events", h.ListEvents)
	r.DELETE("/api/events/:id", h.DeleteEvent)
	r.POST("/api/events/:id/reset", h.ResetEventData)
	r.POST("/api/events/:id/draw", h.Draw)
	r.POST("/api/events/:id/notify", h.SendNotifications)
	r.DELETE("/api/events/:id/participants/:pid", h.DeleteParticipant)
	r.GET("/api/events/:id/status/full", h.GetFullStatus)
}

type createEventRequest struct {
	EventName          string         `json:"eventName"`
	GiftAmount         string         `json:"giftAmount"`
	SubmissionDeadline string         `json:"submissionDeadline"`
	EventDate          string         `json:"eventDate"`
	EventLocation      string         `json:"eventLocation"`
	EventNotes         string         `json:"eventNotes"`
	Groups             []models.Group `json:"groups"`
}

// CreateEvent handles POST /api/events.
func (h *HTTPHandler) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	event, err := h.service.CreateEvent(c.Request.Context(), service.CreateEventInput{
		Name:               req.EventName,
		GiftAmount:         req.GiftAmount,
		SubmissionDeadline: req.SubmissionDeadline,
		Date:               req.EventDate,
		Location:           req.EventLocation,
		Notes:              req.EventNotes,
		Groups:             req.Groups,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "event created", "event": event})
}

// ListEvents handles GET /api/events.
func (h *HTTPHandler) ListEvents(c *gin.Context) {
	events, err := h.service.ListEvents(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// DeleteEvent handles DELETE /api/events/:id.
func (h *HTTPHandler) DeleteEvent(c *gin.Context) {
	if err := h.service.DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "event deleted"})
}

// ResetEventData handles POST /api/events/:id/reset.
func (h *HTTPHandler) ResetEventData(c *gin.Context) {
	if err := h.service.ResetEventData(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "event data cleared"})
}

type submitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	GroupID int    `json:"group_id"`
	Wish    string `json:"wish"`
}

// Submit handles POST /api/events/:id/submissions.
func (h *HTTPHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	result, err := h.service.Submit(c.Request.Context(), service.SubmitInput{
		EventID: c.Param("id"),
		Name:    req.Name,
		Email:   req.Email,
		GroupID: req.GroupID,
		Wish:    req.Wish,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	if result.Updated {
		c.JSON(http.StatusOK, gin.H{"message": "您的願望已成功更新！", "updated": true})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":        "提交成功，感謝您的參與！",
		"updated":        false,
		"participant_id": result.Participant.ID,
	})
}

// DeleteParticipant handles DELETE /api/events/:id/participants/:pid.
func (h *HTTPHandler) DeleteParticipant(c *gin.Context) {
	participantID, err := strconv.Atoi(c.Param("pid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid participant id"})
		return
	}

	if err := h.service.DeleteParticipant(c.Request.Context(), c.Param("id"), participantID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "participant removed"})
}

// Draw handles POST /api/events/:id/draw.
func (h *HTTPHandler) Draw(c *gin.Context) {
	if err := h.service.Draw(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "抽籤成功！配對結果已儲存。"})
}

// SendNotifications handles POST /api/events/:id/notify.
func (h *HTTPHandler) SendNotifications(c *gin.Context) {
	sent, err := h.service.SendNotifications(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notifications sent", "sent": sent})
}

// GetPublicConfig handles GET /api/events/:id/config.
func (h *HTTPHandler) GetPublicConfig(c *gin.Context) {
	config, err := h.service.PublicConfig(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, config)
}

// GetStatus handles GET /api/events/:id/status.
func (h *HTTPHandler) GetStatus(c *gin.Context) {
	status, err := h.service.EventStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetFullStatus handles GET /api/events/:id/status/full.
func (h *HTTPHandler) GetFullStatus(c *gin.Context) {
	status, err := h.service.EventFullStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Healthz handles GET /healthz.
func (h *HTTPHandler) Healthz(c *gin.Context) {
	if err := h.service.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps service error kinds to HTTP statuses. Infrastructure
// failures stay opaque to the caller; the detail goes to the request log.
func (h *HTTPHandler) respondError(c *gin.Context, err error) {
	switch service.KindOf(err) {
	case service.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case service.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case service.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		c.Error(err)
		if errors.Is(err, context.DeadlineExceeded) {
			c.JSON(http.StatusGatewayTimeout, gin.H{"message": "operation timed out"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}
