package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-lifeline/db"
	"go-lifeline/geocode"
	"go-lifeline/lifecycle"
	"go-lifeline/realtime"
	"go-lifeline/tracking"
	"go-lifeline/triage"
	"go-lifeline/types"
)

// Handlers carries the shared service dependencies into the gin handlers.
type Handlers struct {
	Store      *db.CaseStore
	Hub        *realtime.Hub
	Tracker    *tracking.Tracker
	Regions    geocode.RegionLookup
	Classifier *triage.Classifier
}

func New(store *db.CaseStore, hub *realtime.Hub, tracker *tracking.Tracker, regions geocode.RegionLookup, classifier *triage.Classifier) *Handlers {
	return &Handlers{
		Store:      store,
		Hub:        hub,
		Tracker:    tracker,
		Regions:    regions,
		Classifier: classifier,
	}
}

// fail translates domain errors to HTTP statuses. Invalid transitions are
// conflicts: the record was left unchanged and the client should re-read it.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid status transition"})
	case errors.Is(err, tracking.ErrNotTracking):
		c.JSON(http.StatusConflict, gin.H{"error": "case is not traveling"})
	case errors.Is(err, lifecycle.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "not permitted"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// canView reports whether the principal may read this case. Reporters see
// only their own cases; responders and coordinators see all.
func canView(p types.Principal, c types.Case) bool {
	return p.Role != types.RoleReporter || c.ReporterID == p.ID
}

// HealthCheck reports liveness and hub load.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"feedSubscribers": h.Hub.Subscribers(realtime.FeedTopic),
	})
}
