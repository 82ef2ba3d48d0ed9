package datasource

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flagcore/flagcore-go/flog"
	"github.com/flagcore/flagcore-go/internal/datastore"
)

func TestStreamingDataSourceProcessesPutEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprintf(w, "event: put\ndata: %s\n\n", `{"flags":{"f1":{"key":"f1","version":1}},"segments":{}}`)
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer server.Close()

	store := datastore.NewInMemory()
	var loggers flog.Loggers
	loggers.SetMinLevel(flog.None)
	ds := NewStreamingDataSource(store, nil, server.URL, nil, 10*time.Millisecond, &loggers)
	ready := ds.Start()
	defer ds.Stop()

	select {
	case <-ready:
	case <-time.After(3 * time.Second):
		t.Fatal("streaming data source never became ready")
	}
	assert.True(t, ds.Initialized())
	items, err := store.All(datastore.Features)
	assert.NoError(t, err)
	assert.Len(t, items, 1)
}
