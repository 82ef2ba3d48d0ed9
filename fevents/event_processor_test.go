package fevents

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flagcore/flagcore-go/flog"
	"github.com/flagcore/flagcore-go/freason"
	"github.com/flagcore/flagcore-go/fuser"
	"github.com/flagcore/flagcore-go/fvalue"
)

func testConfig(uri string) Config {
	return Config{
		EventsURI:     uri,
		Capacity:      1000,
		FlushInterval: time.Hour, // tests trigger flushes manually
		HTTPClient:    http.DefaultClient,
	}
}

func newCapturingServer(t *testing.T, out chan<- []map[string]interface{}) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
		out <- body
	}))
}

func TestEventProcessorSendsIdentifyEvent(t *testing.T) {
	received := make(chan []map[string]interface{}, 1)
	server := newCapturingServer(t, received)
	defer server.Close()

	config := testConfig(server.URL)
	ep := NewDefaultEventProcessor(config)
	defer ep.Close()

	user := fuser.NewUser("user-key")
	factory := NewEventFactory(false, nil)
	ep.SendEvent(factory.NewIdentifyEvent(user))
	ep.Flush()

	select {
	case events := <-received:
		require.Len(t, events, 1)
		assert.Equal(t, "identify", events[0]["kind"])
		assert.Equal(t, "user-key", events[0]["key"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for flush")
	}
}

func TestEventProcessorSummarizesUntrackedEvaluation(t *testing.T) {
	received := make(chan []map[string]interface{}, 1)
	server := newCapturingServer(t, received)
	defer server.Close()

	ep := NewDefaultEventProcessor(testConfig(server.URL))
	defer ep.Close()

	user := fuser.NewUser("user-key")
	factory := NewEventFactory(false, nil)
	flag := FlagEventProperties{Key: "flag-key", Version: 2}
	evt := factory.NewEvalEvent(flag, user, 1, fvalue.Bool(true), fvalue.Bool(false), freason.NewFallthroughReason(), "")
	ep.SendEvent(evt)
	ep.Flush()

	select {
	case events := <-received:
		// An index event for the previously-unseen user, then a summary event.
		require.Len(t, events, 2)
		assert.Equal(t, "index", events[0]["kind"])
		assert.Equal(t, "summary", events[1]["kind"])
		features := events[1]["features"].(map[string]interface{})
		require.Contains(t, features, "flag-key")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for flush")
	}
}

func TestEventProcessorSendsIndividualEventWhenTrackEventsTrue(t *testing.T) {
	received := make(chan []map[string]interface{}, 1)
	server := newCapturingServer(t, received)
	defer server.Close()

	ep := NewDefaultEventProcessor(testConfig(server.URL))
	defer ep.Close()

	user := fuser.NewUser("user-key")
	factory := NewEventFactory(true, nil)
	flag := FlagEventProperties{Key: "flag-key", Version: 2, TrackEvents: true}
	evt := factory.NewEvalEvent(flag, user, 1, fvalue.Bool(true), fvalue.Bool(false), freason.NewFallthroughReason(), "")
	ep.SendEvent(evt)
	ep.Flush()

	select {
	case events := <-received:
		require.Len(t, events, 3) // index + feature + summary
		kinds := []interface{}{events[0]["kind"], events[1]["kind"], events[2]["kind"]}
		assert.Contains(t, kinds, "feature")
		assert.Contains(t, kinds, "index")
		assert.Contains(t, kinds, "summary")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for flush")
	}
}

func TestEventProcessorScrubsPrivateAttributes(t *testing.T) {
	received := make(chan []map[string]interface{}, 1)
	server := newCapturingServer(t, received)
	defer server.Close()

	config := testConfig(server.URL)
	config.PrivateAttributeNames = []string{"email"}
	ep := NewDefaultEventProcessor(config)
	defer ep.Close()

	user := fuser.NewUserBuilder("user-key").Email("user@example.com").Build()
	factory := NewEventFactory(false, nil)
	ep.SendEvent(factory.NewIdentifyEvent(user))
	ep.Flush()

	select {
	case events := <-received:
		require.Len(t, events, 1)
		userOut := events[0]["user"].(map[string]interface{})
		assert.NotContains(t, userOut, "email")
		assert.Contains(t, userOut["privateAttrs"], "email")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for flush")
	}
}

func TestEventProcessorSendsCustomEvent(t *testing.T) {
	received := make(chan []map[string]interface{}, 1)
	server := newCapturingServer(t, received)
	defer server.Close()

	ep := NewDefaultEventProcessor(testConfig(server.URL))
	defer ep.Close()

	user := fuser.NewUser("user-key")
	factory := NewEventFactory(false, nil)
	ep.SendEvent(factory.NewCustomEvent("purchase", user, fvalue.Null(), true, 9.99))
	ep.Flush()

	select {
	case events := <-received:
		require.Len(t, events, 2) // index + custom
		var custom map[string]interface{}
		for _, e := range events {
			if e["kind"] == "custom" {
				custom = e
			}
		}
		require.NotNil(t, custom)
		assert.Equal(t, "purchase", custom["key"])
		assert.Equal(t, 9.99, custom["metricValue"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for flush")
	}
}

func TestEventProcessorDisablesOnUnrecoverableStatus(t *testing.T) {
	var requestCount int32
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requestCount++
		mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	ep := NewDefaultEventProcessor(testConfig(server.URL))
	defer ep.Close()

	user := fuser.NewUser("user-key")
	factory := NewEventFactory(false, nil)

	ep.SendEvent(factory.NewIdentifyEvent(user))
	ep.Flush()
	ep.SendEvent(factory.NewIdentifyEvent(user))
	ep.Flush()

	// Give the two flushes time to reach the server; 401 is unrecoverable so
	// no retries happen within either flush.
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	count := requestCount
	mu.Unlock()
	assert.GreaterOrEqual(t, count, 1)

	// Once a 401 has been seen, later flushes send nothing.
	ep.SendEvent(factory.NewIdentifyEvent(user))
	ep.Flush()
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	assert.Equal(t, count, requestCount)
	mu.Unlock()
}

func TestEventsOutboxDropsEventsPastCapacity(t *testing.T) {
	outbox := newEventsOutbox(1, &flog.Loggers{})
	user := fuser.NewUser("k")
	factory := NewEventFactory(false, nil)
	outbox.addEvent(factory.NewIdentifyEvent(user))
	outbox.addEvent(factory.NewIdentifyEvent(user))
	assert.Equal(t, 1, len(outbox.events))
	assert.Equal(t, 1, outbox.droppedEvents)
}
