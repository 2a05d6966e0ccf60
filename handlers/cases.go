package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-lifeline/chatlog"
	"go-lifeline/middleware"
	"go-lifeline/routing"
	"go-lifeline/types"
)

type createCaseRequest struct {
	DisasterType string  `json:"disasterType" binding:"required"`
	Description  string  `json:"description"`
	ContactName  string  `json:"contactName"`
	ContactPhone string  `json:"contactPhone" binding:"required"`
	// Pointers so a legitimate 0 coordinate is not mistaken for a missing one.
	OriginLat *float64 `json:"originLat" binding:"required"`
	OriginLng *float64 `json:"originLng" binding:"required"`
}

// CreateCase files a new report for the calling reporter.
func (h *Handlers) CreateCase(c *gin.Context) {
	var req createCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, _ := middleware.GetPrincipal(c)

	id, err := h.Store.Create(c.Request.Context(), p, types.Case{
		DisasterType: req.DisasterType,
		Description:  req.Description,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		OriginLat:    *req.OriginLat,
		OriginLng:    *req.OriginLng,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// GetCase returns one case with its parsed conversation.
func (h *Handlers) GetCase(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)

	kase, err := h.Store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if !canView(p, kase) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your case"})
		return
	}

	cleanDesc, messages := chatlog.Parse(kase.Description)
	c.JSON(http.StatusOK, gin.H{
		"case":             kase,
		"cleanDescription": cleanDesc,
		"messages":         messages,
	})
}

// ListCases returns every case, newest first.
func (h *Handlers) ListCases(c *gin.Context) {
	cases, err := h.Store.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": cases, "count": len(cases)})
}

// ClaimCase binds the calling responder to the case (pending → accepted).
func (h *Handlers) ClaimCase(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)
	if err := h.Store.Claim(c.Request.Context(), c.Param("id"), p); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": types.StatusAccepted})
}

// DepartCase moves the case to traveling and opens the tracking session.
func (h *Handlers) DepartCase(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)
	id := c.Param("id")

	kase, err := h.Store.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.Store.Depart(c.Request.Context(), id, p); err != nil {
		fail(c, err)
		return
	}

	h.Tracker.Start(id, routing.LatLng{Lat: kase.OriginLat, Lng: kase.OriginLng})
	c.JSON(http.StatusOK, gin.H{"status": types.StatusTraveling})
}

// ArriveCase completes the case and tears the tracking session down.
func (h *Handlers) ArriveCase(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)
	id := c.Param("id")

	if err := h.Store.Arrive(c.Request.Context(), id, p); err != nil {
		fail(c, err)
		return
	}
	h.Tracker.Stop(id)
	c.JSON(http.StatusOK, gin.H{"status": types.StatusCompleted})
}

// ToggleCase is the coordinator override between pending and the green set.
func (h *Handlers) ToggleCase(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)
	id := c.Param("id")

	next, err := h.Store.Toggle(c.Request.Context(), id, p)
	if err != nil {
		fail(c, err)
		return
	}
	// Whatever the case was doing, it is no longer traveling.
	h.Tracker.Stop(id)
	c.JSON(http.StatusOK, gin.H{"status": next})
}

// DeleteCase removes a case permanently.
func (h *Handlers) DeleteCase(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)
	id := c.Param("id")

	if err := h.Store.Delete(c.Request.Context(), id, p); err != nil {
		fail(c, err)
		return
	}
	h.Tracker.Stop(id)
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
