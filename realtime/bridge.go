package realtime

import (
	"context"
	"strings"
	"sync"

	"go-lifeline/db"
	"go-lifeline/types"
)

// Bridge connects the hub's topics to document-store listeners. A listener
// runs only while its topic has subscribers; its context is cancelled the
// moment the last subscriber leaves, so no listen stream outlives a view.
type Bridge struct {
	store *db.CaseStore
	hub   *Hub

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewBridge(store *db.CaseStore, hub *Hub) *Bridge {
	b := &Bridge{
		store:   store,
		hub:     hub,
		cancels: make(map[string]context.CancelFunc),
	}
	hub.OnTopicActive = b.start
	hub.OnTopicIdle = b.stop
	return b
}

func (b *Bridge) start(topic string) {
	ctx, cancel := context.WithCancel(context.Background())

	b.mu.Lock()
	b.cancels[topic] = cancel
	b.mu.Unlock()

	if topic == FeedTopic {
		go b.runFeed(ctx)
		return
	}
	if id, ok := strings.CutPrefix(topic, "case:"); ok {
		go b.runCase(ctx, id)
		return
	}
	cancel()
}

func (b *Bridge) stop(topic string) {
	b.mu.Lock()
	cancel, ok := b.cancels[topic]
	if ok {
		delete(b.cancels, topic)
	}
	b.mu.Unlock()
	if ok {
		cancel()
	}
}

func (b *Bridge) runCase(ctx context.Context, id string) {
	for ev := range b.store.WatchCase(ctx, id) {
		if ev.Deleted {
			b.hub.Publish(CaseTopic(id), "deleted", map[string]string{"id": id})
			continue
		}
		b.hub.Publish(CaseTopic(id), "case", ev.Case)
	}
}

func (b *Bridge) runFeed(ctx context.Context) {
	for cases := range b.store.WatchAll(ctx) {
		b.hub.Publish(FeedTopic, "cases", struct {
			Cases []types.Case `json:"cases"`
			Count int          `json:"count"`
		}{Cases: cases, Count: len(cases)})
	}
}
