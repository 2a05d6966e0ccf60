// Package realtime pushes case changes to subscribed viewers over
// WebSockets. A client subscribes to a single topic: one case record or the
// whole case feed. The document-store listeners that feed the hub are scoped
// to topics with live subscribers and torn down when the last one leaves.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/apex/log"
)

// FeedTopic is the query-over-many-records subscription.
const FeedTopic = "feed"

// CaseTopic names the single-record subscription for a case.
func CaseTopic(id string) string { return "case:" + id }

// Envelope is the wire frame pushed to subscribers.
type Envelope struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type message struct {
	topic string
	data  []byte
}

// Hub manages WebSocket connections and per-topic broadcasting.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan message
	Register   chan *Client
	Unregister chan *Client

	mutex sync.RWMutex

	// Invoked from the hub loop when a topic gains its first subscriber or
	// loses its last one. The bridge uses these to scope store listeners.
	OnTopicActive func(topic string)
	OnTopicIdle   func(topic string)

	topicCounts map[string]int
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		broadcast:   make(chan message, 256),
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		topicCounts: make(map[string]int),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			h.clients[client] = true
			h.topicCounts[client.topic]++
			first := h.topicCounts[client.topic] == 1
			h.mutex.Unlock()
			if first && h.OnTopicActive != nil {
				h.OnTopicActive(client.topic)
			}
			log.Infof("Client subscribed to %s", client.topic)

		case client := <-h.Unregister:
			h.dropClient(client)

		case msg := <-h.broadcast:
			h.mutex.RLock()
			var stale []*Client
			for client := range h.clients {
				if client.topic != msg.topic {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					stale = append(stale, client)
				}
			}
			h.mutex.RUnlock()
			for _, client := range stale {
				h.dropClient(client)
			}
		}
	}
}

func (h *Hub) dropClient(client *Client) {
	h.mutex.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.topicCounts[client.topic]--
	last := h.topicCounts[client.topic] == 0
	if last {
		delete(h.topicCounts, client.topic)
	}
	h.mutex.Unlock()

	if last && h.OnTopicIdle != nil {
		h.OnTopicIdle(client.topic)
	}
	log.Infof("Client left %s", client.topic)
}

// Publish broadcasts a typed payload to every subscriber of a topic.
func (h *Hub) Publish(topic, msgType string, payload interface{}) {
	data, err := json.Marshal(Envelope{
		Type:      msgType,
		Data:      payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.WithError(err).Error("Failed to marshal broadcast message")
		return
	}
	h.broadcast <- message{topic: topic, data: data}
}

// Subscribers reports the current subscriber count for a topic.
func (h *Hub) Subscribers(topic string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.topicCounts[topic]
}
