package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hyperfocus/backend/internal/middleware"
	"hyperfocus/backend/internal/service"
)

type FocusHandler struct {
	focusService *service.FocusService
}

type startPlanRequest struct {
	PlanID string `json:"planId"`
}

type endSessionRequest struct {
	Manual bool `json:"manual"`
}

type adjustDurationRequest struct {
	Minutes int `json:"minutes"`
}

func NewFocusHandler(focusService *service.FocusService) *FocusHandler {
	return &FocusHandler{focusService: focusService}
}

func (h *FocusHandler) GetState(c *gin.Context) {
	userID := middleware.UserID(c)
	state := h.focusService.GetState(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *FocusHandler) Start(c *gin.Context) {
	var req startPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PlanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "planId is required"},
		})
		return
	}

	userID := middleware.UserID(c)
	state, apiErr := h.focusService.StartPlan(c.Request.Context(), userID, req.PlanID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *FocusHandler) Begin(c *gin.Context) {
	userID := middleware.UserID(c)
	state := h.focusService.Begin(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *FocusHandler) Pause(c *gin.Context) {
	userID := middleware.UserID(c)
	state := h.focusService.Pause(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *FocusHandler) Resume(c *gin.Context) {
	userID := middleware.UserID(c)
	state := h.focusService.Resume(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"state": state})
}

// End terminates the active entry. The body's manual flag distinguishes a
// user skip (cancelled) from a natural finish (completed); absent body means
// a manual skip.
func (h *FocusHandler) End(c *gin.Context) {
	req := endSessionRequest{Manual: true}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
			})
			return
		}
	}

	userID := middleware.UserID(c)
	state := h.focusService.EndSession(c.Request.Context(), userID, req.Manual)
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *FocusHandler) Complete(c *gin.Context) {
	userID := middleware.UserID(c)
	state := h.focusService.MarkCompleted(c.Request.Context(), userID, c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *FocusHandler) DeleteSession(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_index", "message": "index must be an integer"},
		})
		return
	}

	userID := middleware.UserID(c)
	state := h.focusService.DeleteSession(c.Request.Context(), userID, index)
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *FocusHandler) AdjustDuration(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_index", "message": "index must be an integer"},
		})
		return
	}

	var req adjustDurationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Minutes < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_duration", "message": "minutes must be a positive integer"},
		})
		return
	}

	userID := middleware.UserID(c)
	state := h.focusService.AdjustDuration(c.Request.Context(), userID, index, req.Minutes)
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *FocusHandler) ListArchives(c *gin.Context) {
	userID := middleware.UserID(c)
	archives, apiErr := h.focusService.ListArchives(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"archives": archives})
}

// Events streams state views over SSE: the current view immediately, then
// one event per mutation until the client disconnects.
func (h *FocusHandler) Events(c *gin.Context) {
	userID := middleware.UserID(c)
	ctl := h.focusService.Controller(c.Request.Context(), userID)

	updates, cancel := ctl.Subscribe()
	defer cancel()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.SSEvent("state", ctl.View())
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case view, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("state", view)
			return true
		}
	})
}
