package datasource

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flagcore/flagcore-go/internal/datastore"
)

func TestRequestorFetchesAndParses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, latestAllPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"flags":{"f1":{"key":"f1","version":1,"on":true}},"segments":{}}`))
	}))
	defer server.Close()

	r := newRequestor(nil, server.URL, nil, nil)
	data, cached, err := r.requestAll()
	assert.NoError(t, err)
	assert.False(t, cached)
	assert.Len(t, data[datastore.Features], 1)
}

func TestRequestorPropagatesUnrecoverableStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	r := newRequestor(nil, server.URL, nil, nil)
	_, _, err := r.requestAll()
	assert.Error(t, err)
	hse, ok := err.(httpStatusError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, hse.Code)
}
