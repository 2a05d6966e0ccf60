package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-lifeline/middleware"
	"go-lifeline/routing"
	"go-lifeline/tracking"
)

type positionRequest struct {
	// Pointers so a legitimate 0 coordinate is not mistaken for a missing one.
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

// ReportPosition takes one fix from the responder's device. Fixes inside the
// debounce window are accepted and dropped; fixes for a case that is not
// traveling are rejected.
func (h *Handlers) ReportPosition(c *gin.Context) {
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, _ := middleware.GetPrincipal(c)

	err := h.Tracker.Report(c.Request.Context(), c.Param("id"), p, routing.LatLng{Lat: *req.Lat, Lng: *req.Lng})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracking": true})
}

// GetETA returns the current route estimate for a traveling case. Subscribers
// normally receive pushes; this serves a view that just opened. Reporters may
// only read their own case's ETA.
func (h *Handlers) GetETA(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)
	id := c.Param("id")

	kase, err := h.Store.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if !canView(p, kase) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your case"})
		return
	}

	if eta, ok := h.Tracker.LastETA(id); ok {
		c.JSON(http.StatusOK, eta)
		return
	}

	eta, err := h.Tracker.Refresh(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, tracking.ErrNoFix) || errors.Is(err, tracking.ErrNotTracking) {
			c.JSON(http.StatusOK, gin.H{"caseId": id, "pending": true})
			return
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, eta)
}
