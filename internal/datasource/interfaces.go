// Package datasource keeps the feature store synchronized with the
// upstream service via streaming, polling, or (for daemon/offline mode) a
// null implementation that never writes anything.
package datasource

import (
	"github.com/flagcore/flagcore-go/internal/datastore"
)

// ReadySignal is a one-shot event the caller may wait on with a timeout. It
// fires when the store first reaches initialized state, or when an
// unrecoverable error occurs (in which case the store is never marked
// initialized by this data source).
type ReadySignal <-chan struct{}

// DataSource keeps datastore.Store synchronized with the upstream service.
type DataSource interface {
	// Start begins synchronization and returns a ReadySignal.
	Start() ReadySignal
	// Stop terminates synchronization; any in-progress sleep or connection is interrupted.
	Stop()
	// Initialized reports whether the store has received at least one full dataset.
	Initialized() bool
}

// requestURLs are the two endpoints a streaming or polling data source needs.
type requestURLs struct {
	BaseURI   string
	StreamURI string
}

// kindFromPath maps a stream/poll path segment ("flags" or "segments") to
// its datastore.Kind, or (nil,false) if unrecognized.
func kindFromPath(pathKind string) (datastore.Kind, bool) {
	switch pathKind {
	case "flags":
		return datastore.Features, true
	case "segments":
		return datastore.Segments, true
	}
	return nil, false
}
