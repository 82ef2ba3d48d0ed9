package flagcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flagcore/flagcore-go/components"
	"github.com/flagcore/flagcore-go/fmodel"
	"github.com/flagcore/flagcore-go/freason"
	"github.com/flagcore/flagcore-go/fuser"
	"github.com/flagcore/flagcore-go/fvalue"
	"github.com/flagcore/flagcore-go/internal/datastore"
)

func testClient(t *testing.T) *Client {
	config := Config{
		DataSource: components.ExternalUpdatesOnly(),
		Events:     components.NoEvents(),
	}
	client, err := MakeCustomClient("test-sdk-key", config, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func boolFlag(key string, on bool, variations ...bool) fmodel.FeatureFlag {
	vals := make([]fvalue.Value, len(variations))
	for i, v := range variations {
		vals[i] = fvalue.Bool(v)
	}
	off := 1
	return fmodel.FeatureFlag{
		Key:          key,
		Version:      1,
		On:           on,
		OffVariation: &off,
		Variations:   vals,
		Fallthrough:  fmodel.VariationOrRollout{Variation: intPtr(0)},
	}
}

func intPtr(i int) *int { return &i }

func TestClientInitializesImmediatelyInExternalUpdatesMode(t *testing.T) {
	client := testClient(t)
	assert.True(t, client.Initialized())
}

func TestBoolVariationReturnsFlagValue(t *testing.T) {
	client := testClient(t)
	require.NoError(t, client.store.Upsert(datastore.Features, boolFlag("flag-key", true, true, false)))

	value, err := client.BoolVariation("flag-key", fuser.NewUser("user1"), false)
	require.NoError(t, err)
	assert.True(t, value)
}

func TestBoolVariationReturnsDefaultForUnknownFlag(t *testing.T) {
	client := testClient(t)
	value, err := client.BoolVariation("nonexistent", fuser.NewUser("user1"), true)
	assert.Error(t, err)
	assert.True(t, value)
}

func TestBoolVariationDetailReportsReason(t *testing.T) {
	client := testClient(t)
	require.NoError(t, client.store.Upsert(datastore.Features, boolFlag("flag-key", false, true, false)))

	_, detail, err := client.BoolVariationDetail("flag-key", fuser.NewUser("user1"), false)
	require.NoError(t, err)
	assert.Equal(t, freason.Off, detail.Reason.Kind())
}

func TestStringVariation(t *testing.T) {
	client := testClient(t)
	flag := fmodel.FeatureFlag{
		Key:         "string-flag",
		On:          true,
		Variations:  []fvalue.Value{fvalue.String("a"), fvalue.String("b")},
		Fallthrough: fmodel.VariationOrRollout{Variation: intPtr(1)},
	}
	require.NoError(t, client.store.Upsert(datastore.Features, flag))

	value, err := client.StringVariation("string-flag", fuser.NewUser("user1"), "default")
	require.NoError(t, err)
	assert.Equal(t, "b", value)
}

func TestIdentifyAndTrackDoNotPanicWithEventsDisabled(t *testing.T) {
	client := testClient(t)
	user := fuser.NewUser("user1")
	client.Identify(user)
	client.TrackEvent("did-something", user)
	client.TrackMetric("did-something-measurable", user, 1.5, fvalue.Null())
	client.Flush()
}

func TestSecureModeHashIsDeterministic(t *testing.T) {
	client := testClient(t)
	user := fuser.NewUser("user1")
	assert.Equal(t, client.SecureModeHash(user), client.SecureModeHash(user))
}

func TestOfflineClientReturnsDefaults(t *testing.T) {
	client, err := MakeCustomClient("test-sdk-key", Config{Offline: true}, time.Second)
	require.NoError(t, err)
	defer client.Close()

	assert.True(t, client.IsOffline())
	assert.True(t, client.Initialized())

	value, err := client.BoolVariation("any-flag", fuser.NewUser("user1"), true)
	require.NoError(t, err)
	assert.True(t, value)
}

func TestAllFlagsState(t *testing.T) {
	client := testClient(t)
	require.NoError(t, client.store.Upsert(datastore.Features, boolFlag("flag-a", true, true, false)))
	require.NoError(t, client.store.Upsert(datastore.Features, boolFlag("flag-b", false, true, false)))

	state := client.AllFlagsState(fuser.NewUser("user1"))
	require.True(t, state.IsValid())
	assert.Equal(t, fvalue.Bool(true), state.GetFlagValue("flag-a"))
	assert.Equal(t, fvalue.Bool(false), state.GetFlagValue("flag-b"))
}

func TestAllFlagsStateOffline(t *testing.T) {
	client, err := MakeCustomClient("test-sdk-key", Config{Offline: true}, time.Second)
	require.NoError(t, err)
	defer client.Close()

	state := client.AllFlagsState(fuser.NewUser("user1"))
	assert.False(t, state.IsValid())
}
