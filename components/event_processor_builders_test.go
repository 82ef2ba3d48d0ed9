package components

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flagcore/flagcore-go/fevents"
	"github.com/flagcore/flagcore-go/fuser"
)

func TestSendEventsBuilderDefaults(t *testing.T) {
	b := SendEvents()
	assert.Equal(t, fevents.DefaultCapacity, b.capacity)
	assert.Equal(t, fevents.DefaultFlushInterval, b.flushInterval)

	b.Capacity(500).FlushInterval(time.Second).AllAttributesPrivate(true)
	assert.Equal(t, 500, b.capacity)
	assert.Equal(t, time.Second, b.flushInterval)
	assert.True(t, b.allAttributesPrivate)

	ep, err := b.Build(testContext())
	require.NoError(t, err)
	require.NotNil(t, ep)
	require.NoError(t, ep.Close())
}

func TestNoEventsDiscardsEvents(t *testing.T) {
	ep, err := NoEvents().Build(testContext())
	require.NoError(t, err)

	// Sending and flushing must not panic or block even though nothing
	// is listening on the other end.
	factory := fevents.NewEventFactory(false, nil)
	ep.SendEvent(factory.NewIdentifyEvent(fuser.NewUser("user-key")))
	ep.Flush()
	require.NoError(t, ep.Close())
}
