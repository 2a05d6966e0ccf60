package realtime

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(h *Hub, topic string) *Client {
	return &Client{hub: h, topic: topic, send: make(chan []byte, 8)}
}

func recv(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case data := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("no message within deadline")
		return Envelope{}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestPublishReachesOnlyMatchingTopic(t *testing.T) {
	h := NewHub()
	go h.Run()

	feed := testClient(h, FeedTopic)
	watcher := testClient(h, CaseTopic("c1"))
	h.Register <- feed
	h.Register <- watcher
	waitFor(t, func() bool { return h.Subscribers(FeedTopic) == 1 && h.Subscribers(CaseTopic("c1")) == 1 })

	h.Publish(CaseTopic("c1"), "case", map[string]string{"id": "c1"})

	env := recv(t, watcher)
	assert.Equal(t, "case", env.Type)
	assert.Len(t, feed.send, 0)
}

func TestTopicLifecycleCallbacks(t *testing.T) {
	h := NewHub()

	var mu sync.Mutex
	var active, idle []string
	h.OnTopicActive = func(topic string) {
		mu.Lock()
		active = append(active, topic)
		mu.Unlock()
	}
	h.OnTopicIdle = func(topic string) {
		mu.Lock()
		idle = append(idle, topic)
		mu.Unlock()
	}
	go h.Run()

	first := testClient(h, CaseTopic("c1"))
	second := testClient(h, CaseTopic("c1"))
	h.Register <- first
	h.Register <- second
	waitFor(t, func() bool { return h.Subscribers(CaseTopic("c1")) == 2 })

	mu.Lock()
	assert.Equal(t, []string{CaseTopic("c1")}, active, "only the first subscriber activates the topic")
	mu.Unlock()

	h.Unregister <- first
	waitFor(t, func() bool { return h.Subscribers(CaseTopic("c1")) == 1 })
	mu.Lock()
	assert.Empty(t, idle, "topic still has a subscriber")
	mu.Unlock()

	h.Unregister <- second
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(idle) == 1
	})
	mu.Lock()
	assert.Equal(t, []string{CaseTopic("c1")}, idle)
	mu.Unlock()
}

func TestUnregisterTwiceIsHarmless(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := testClient(h, FeedTopic)
	h.Register <- c
	waitFor(t, func() bool { return h.Subscribers(FeedTopic) == 1 })

	h.Unregister <- c
	h.Unregister <- c
	waitFor(t, func() bool { return h.Subscribers(FeedTopic) == 0 })
}
