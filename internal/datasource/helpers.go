package datasource

import (
	"encoding/json"
	"fmt"

	"github.com/flagcore/flagcore-go/fmodel"
	"github.com/flagcore/flagcore-go/internal/datastore"
)

// httpStatusError wraps a non-2xx HTTP response so callers can classify it
// as recoverable or not without re-parsing the status code.
type httpStatusError struct {
	Message string
	Code    int
}

func (e httpStatusError) Error() string { return e.Message }

// malformedJSONError marks a response body that could not be parsed, distinct
// from a transport or HTTP-status failure.
type malformedJSONError struct {
	innerError error
}

func (e malformedJSONError) Error() string { return e.innerError.Error() }

// isHTTPErrorRecoverable reports whether a non-2xx status represents a
// condition that might resolve on retry. 400, 408, and 429 are treated as
// transient; every other 4xx is permanent (bad SDK key, wrong resource,
// etc.); everything else (network-layer 5xx) is retried.
func isHTTPErrorRecoverable(statusCode int) bool {
	if statusCode >= 400 && statusCode < 500 {
		switch statusCode {
		case 400, 408, 429:
			return true
		default:
			return false
		}
	}
	return true
}

func httpErrorDescription(statusCode int) string {
	if statusCode == 401 || statusCode == 403 {
		return fmt.Sprintf("HTTP error %d (invalid key)", statusCode)
	}
	return fmt.Sprintf("HTTP error %d", statusCode)
}

func checkForHTTPError(statusCode int, url string) error {
	if statusCode == 401 {
		return httpStatusError{Message: fmt.Sprintf("invalid key when accessing URL: %s", url), Code: statusCode}
	}
	if statusCode == 404 {
		return httpStatusError{Message: fmt.Sprintf("resource not found: %s", url), Code: statusCode}
	}
	if statusCode/100 != 2 {
		return httpStatusError{Message: fmt.Sprintf("unexpected response code %d from %s", statusCode, url), Code: statusCode}
	}
	return nil
}

// allDataWire is the wire representation of a full dataset, shared by the
// polling "latest-all" response and the streaming "put" event.
type allDataWire struct {
	Flags    map[string]fmodel.FeatureFlag `json:"flags"`
	Segments map[string]fmodel.Segment     `json:"segments"`
}

func parseAllData(body []byte) (map[datastore.Kind]map[string]datastore.Item, error) {
	var wire allDataWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, malformedJSONError{err}
	}
	flags := make(map[string]datastore.Item, len(wire.Flags))
	for k, f := range wire.Flags {
		flags[k] = f
	}
	segments := make(map[string]datastore.Item, len(wire.Segments))
	for k, s := range wire.Segments {
		segments[k] = s
	}
	return map[datastore.Kind]map[string]datastore.Item{
		datastore.Features: flags,
		datastore.Segments: segments,
	}, nil
}

// patchData is the payload of a streaming "patch" event: an upsert of a
// single item in one kind.
type patchData struct {
	Kind datastore.Kind
	Key  string
	Item datastore.Item
}

func parsePatchData(data []byte) (patchData, error) {
	var envelope struct {
		Path string          `json:"path"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return patchData{}, malformedJSONError{err}
	}
	pathKind, key := splitPath(envelope.Path)
	kind, ok := kindFromPath(pathKind)
	if !ok {
		return patchData{}, nil
	}
	item, err := unmarshalItem(kind, envelope.Data)
	if err != nil {
		return patchData{}, malformedJSONError{err}
	}
	return patchData{Kind: kind, Key: key, Item: item}, nil
}

// deleteData is the payload of a streaming "delete" event.
type deleteData struct {
	Kind    datastore.Kind
	Key     string
	Version int
}

func parseDeleteData(data []byte) (deleteData, error) {
	var envelope struct {
		Path    string `json:"path"`
		Version int    `json:"version"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return deleteData{}, malformedJSONError{err}
	}
	pathKind, key := splitPath(envelope.Path)
	kind, ok := kindFromPath(pathKind)
	if !ok {
		return deleteData{}, nil
	}
	return deleteData{Kind: kind, Key: key, Version: envelope.Version}, nil
}

func unmarshalItem(kind datastore.Kind, raw json.RawMessage) (datastore.Item, error) {
	switch kind {
	case datastore.Features:
		var f fmodel.FeatureFlag
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, err
		}
		return f, nil
	case datastore.Segments:
		var s fmodel.Segment
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unrecognized kind %s", kind.String())
}

// splitPath parses a streaming event path of the form "/flags/my-key" into
// its kind segment ("flags") and item key ("my-key").
func splitPath(path string) (pathKind string, key string) {
	trimmed := path
	if len(trimmed) > 0 && trimmed[0] == '/' {
		trimmed = trimmed[1:]
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] == '/' {
			return trimmed[:i], trimmed[i+1:]
		}
	}
	return trimmed, ""
}
