package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-lifeline/middleware"
)

type sendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// SendMessage appends one conversation entry as the calling party and bumps
// the other party's unread counter.
func (h *Handlers) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, _ := middleware.GetPrincipal(c)

	if err := h.Store.AppendMessage(c.Request.Context(), c.Param("id"), p, req.Text, time.Now()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

// MarkRead zeroes the caller's own unread counter. Called when the
// conversation view opens; safe to call repeatedly.
func (h *Handlers) MarkRead(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)

	if err := h.Store.MarkRead(c.Request.Context(), c.Param("id"), p); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": 0})
}
