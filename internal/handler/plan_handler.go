package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hyperfocus/backend/internal/middleware"
	"hyperfocus/backend/internal/service"
)

type PlanHandler struct {
	planService *service.PlanService
}

func NewPlanHandler(planService *service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req service.SavePlanInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	userID := middleware.UserID(c)
	profile, apiErr := h.planService.SavePlan(c.Request.Context(), userID, req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": profile})
}

func (h *PlanHandler) ListPlans(c *gin.Context) {
	userID := middleware.UserID(c)
	profiles, apiErr := h.planService.ListPlans(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": profiles})
}

func (h *PlanHandler) DeletePlan(c *gin.Context) {
	userID := middleware.UserID(c)
	if apiErr := h.planService.DeletePlan(c.Request.Context(), userID, c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PlanHandler) CreateCategory(c *gin.Context) {
	var req service.SaveCategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	userID := middleware.UserID(c)
	category, apiErr := h.planService.CreateCategory(c.Request.Context(), userID, req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

func (h *PlanHandler) ListCategories(c *gin.Context) {
	userID := middleware.UserID(c)
	categories, apiErr := h.planService.ListCategories(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *PlanHandler) DeleteCategory(c *gin.Context) {
	userID := middleware.UserID(c)
	if apiErr := h.planService.DeleteCategory(c.Request.Context(), userID, c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}
