package datasource

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flagcore/flagcore-go/flog"
	"github.com/flagcore/flagcore-go/internal/datastore"
)

func TestPollingDataSourcePollsImmediatelyAndInitializes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"flags":{"f1":{"key":"f1","version":1}},"segments":{}}`))
	}))
	defer server.Close()

	store := datastore.NewInMemory()
	var loggers flog.Loggers
	loggers.SetMinLevel(flog.None)
	ds := NewPollingDataSource(store, nil, server.URL, nil, time.Hour, &loggers)
	ready := ds.Start()
	defer ds.Stop()

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("polling data source never became ready")
	}
	assert.True(t, ds.Initialized())
	items, err := store.All(datastore.Features)
	assert.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestPollingDataSourceStopsOnUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	store := datastore.NewInMemory()
	var loggers flog.Loggers
	loggers.SetMinLevel(flog.None)
	ds := NewPollingDataSource(store, nil, server.URL, nil, time.Hour, &loggers)
	ready := ds.Start()
	defer ds.Stop()

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("expected ready signal after unrecoverable error")
	}
	assert.False(t, ds.Initialized())
}
