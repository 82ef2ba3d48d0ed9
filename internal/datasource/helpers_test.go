package datasource

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flagcore/flagcore-go/internal/datastore"
)

func TestIsHTTPErrorRecoverable(t *testing.T) {
	assert.True(t, isHTTPErrorRecoverable(400))
	assert.True(t, isHTTPErrorRecoverable(408))
	assert.True(t, isHTTPErrorRecoverable(429))
	assert.False(t, isHTTPErrorRecoverable(401))
	assert.False(t, isHTTPErrorRecoverable(403))
	assert.False(t, isHTTPErrorRecoverable(404))
	assert.True(t, isHTTPErrorRecoverable(500))
}

func TestCheckForHTTPError(t *testing.T) {
	assert.NoError(t, checkForHTTPError(200, "http://x"))
	assert.Error(t, checkForHTTPError(401, "http://x"))
	assert.Error(t, checkForHTTPError(404, "http://x"))
	assert.Error(t, checkForHTTPError(500, "http://x"))
}

func TestParseAllData(t *testing.T) {
	body := []byte(`{"flags":{"f1":{"key":"f1","version":1}},"segments":{"s1":{"key":"s1","version":2}}}`)
	data, err := parseAllData(body)
	assert.NoError(t, err)
	assert.Len(t, data[datastore.Features], 1)
	assert.Len(t, data[datastore.Segments], 1)
	assert.Equal(t, 1, data[datastore.Features]["f1"].GetVersion())
}

func TestParseAllDataMalformed(t *testing.T) {
	_, err := parseAllData([]byte("not json"))
	assert.Error(t, err)
	_, ok := err.(malformedJSONError)
	assert.True(t, ok)
}

func TestParsePatchData(t *testing.T) {
	patch, err := parsePatchData([]byte(`{"path":"/flags/f1","data":{"key":"f1","version":3}}`))
	assert.NoError(t, err)
	assert.Equal(t, datastore.Features, patch.Kind)
	assert.Equal(t, "f1", patch.Key)
	assert.Equal(t, 3, patch.Item.GetVersion())
}

func TestParseDeleteData(t *testing.T) {
	del, err := parseDeleteData([]byte(`{"path":"/segments/s1","version":4}`))
	assert.NoError(t, err)
	assert.Equal(t, datastore.Segments, del.Kind)
	assert.Equal(t, "s1", del.Key)
	assert.Equal(t, 4, del.Version)
}

func TestSplitPath(t *testing.T) {
	kind, key := splitPath("/flags/my-key")
	assert.Equal(t, "flags", kind)
	assert.Equal(t, "my-key", key)
}
