package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-lifeline/stats"
)

const topRegions = 5

// DashboardSummary computes the policy report over the full case set.
func (h *Handlers) DashboardSummary(c *gin.Context) {
	cases, err := h.Store.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats.Compute(c.Request.Context(), cases, h.Regions, topRegions))
}

type analyzeRequest struct {
	Description string `json:"description" binding:"required"`
}

// Analyze suggests a disaster type and severity for a report description.
// Degrades to unknown when the classifier is unavailable.
func (h *Handlers) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Classifier.Classify(c.Request.Context(), req.Description))
}
