package engagement

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/handler"
	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/middleware"
	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/service/engagement"
)

// Handler ingests engagement events from the platform services that own
// users, reviews and businesses. The actor is always the authenticated
// caller; the payload carries the subject identifiers this subsystem cannot
// resolve on its own.
type Handler struct {
	service *engagement.Service
}

func NewHandler(service *engagement.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	events := r.Group("/events")
	{
		events.POST("/follow", h.Follow)
		events.POST("/review-reply", h.ReviewReply)
		events.POST("/reply-reply", h.ReplyReply)
		events.POST("/review-reaction", h.ReviewReaction)
		events.POST("/reply-reaction", h.ReplyReaction)
		events.POST("/business-response", h.BusinessResponse)
		events.POST("/mention", h.Mention)
	}
}

type followRequest struct {
	FolloweeID uuid.UUID `json:"followee_id" binding:"required"`
}

func (h *Handler) Follow(c *gin.Context) {
	actor, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.Follow(c.Request.Context(), actor, req.FolloweeID); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusAccepted, handler.NewSuccessResponse(nil))
}

type reviewEventRequest struct {
	ReviewAuthorID uuid.UUID `json:"review_author_id" binding:"required"`
	ReviewID       string    `json:"review_id" binding:"required"`
	BusinessID     string    `json:"business_id"`
}

func (h *Handler) ReviewReply(c *gin.Context) {
	actor, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	var req reviewEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.ReplyToReview(c.Request.Context(), actor, req.ReviewAuthorID, req.ReviewID, req.BusinessID); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusAccepted, handler.NewSuccessResponse(nil))
}

type replyEventRequest struct {
	ParentAuthorID uuid.UUID `json:"parent_author_id" binding:"required"`
	ReplyID        string    `json:"reply_id" binding:"required"`
	ReviewID       string    `json:"review_id" binding:"required"`
	BusinessID     string    `json:"business_id"`
}

func (h *Handler) ReplyReply(c *gin.Context) {
	actor, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	var req replyEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.ReplyToReply(c.Request.Context(), actor, req.ParentAuthorID, req.ReplyID, req.ReviewID, req.BusinessID); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusAccepted, handler.NewSuccessResponse(nil))
}

func (h *Handler) ReviewReaction(c *gin.Context) {
	actor, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	var req reviewEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.ReactToReview(c.Request.Context(), actor, req.ReviewAuthorID, req.ReviewID, req.BusinessID); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusAccepted, handler.NewSuccessResponse(nil))
}

func (h *Handler) ReplyReaction(c *gin.Context) {
	actor, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	var req replyEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.ReactToReply(c.Request.Context(), actor, req.ParentAuthorID, req.ReplyID, req.ReviewID); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusAccepted, handler.NewSuccessResponse(nil))
}

func (h *Handler) BusinessResponse(c *gin.Context) {
	actor, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	var req reviewEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.RespondToReview(c.Request.Context(), actor, req.ReviewAuthorID, req.ReviewID, req.BusinessID); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusAccepted, handler.NewSuccessResponse(nil))
}

type mentionRequest struct {
	MentionedID uuid.UUID `json:"mentioned_id" binding:"required"`
	ReviewID    string    `json:"review_id" binding:"required"`
	BusinessID  string    `json:"business_id"`
}

func (h *Handler) Mention(c *gin.Context) {
	actor, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthorized"))
		return
	}

	var req mentionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.Mention(c.Request.Context(), actor, req.MentionedID, req.ReviewID, req.BusinessID); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusAccepted, handler.NewSuccessResponse(nil))
}
