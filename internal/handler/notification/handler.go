package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/handler"
	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/middleware"
	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/model"
	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/service/notification"
	apperrors "github.com/InfofriyendsTechnology/RateOn-sub001/pkg/errors"
)

type Handler struct {
	service notification.Service
}

func NewHandler(service notification.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.PATCH("/read-all", h.MarkAllRead)
		notifications.PATCH("/:id/read", h.MarkRead)
		notifications.DELETE("/:id", h.DeleteNotification)
	}
}

func (h *Handler) ListNotifications(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	var req model.ListNotificationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	page, err := h.service.List(c.Request.Context(), userID, req.Page, req.Limit, model.NotificationFilter(req.Filter))
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to list notifications"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(page))
}

func (h *Handler) UnreadCount(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to count unread notifications"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"count": count}))
}

func (h *Handler) MarkRead(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid notification ID"))
		return
	}

	n, err := h.service.MarkRead(c.Request.Context(), userID, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("notification not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to mark notification read"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"notification": n}))
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	modified, err := h.service.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to mark notifications read"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"modifiedCount": modified}))
}

func (h *Handler) DeleteNotification(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid notification ID"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		if apperrors.IsNotFound(err) {
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("notification not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to delete notification"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
