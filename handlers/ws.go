package handlers

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"go-lifeline/middleware"
	"go-lifeline/realtime"
)

var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin enforcement belongs to the gateway in front of this service.
		return true
	},
}

// WatchFeed subscribes the caller to live snapshots of the whole case set.
func (h *Handlers) WatchFeed(c *gin.Context) {
	h.subscribe(c, realtime.FeedTopic)
}

// WatchCase subscribes the caller to live snapshots of one case. Reporters
// may only watch their own case.
func (h *Handlers) WatchCase(c *gin.Context) {
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

	h.subscribe(c, realtime.CaseTopic(id))
}

func (h *Handlers) subscribe(c *gin.Context, topic string) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("Failed to upgrade connection to WebSocket")
		return
	}

	client := realtime.NewClient(h.Hub, conn, topic)
	h.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
