package datasource

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	es "github.com/launchdarkly/eventsource"

	"github.com/flagcore/flagcore-go/flog"
	"github.com/flagcore/flagcore-go/internal/datastore"
)

// Error handling follows the upstream SDK's convention: a malformed event
// or a failed store write restarts the stream (we may have missed
// updates); an unrecoverable HTTP status (401, 403, any 4xx except
// {400,408,429}) closes the stream for good and never marks the source
// initialized; any other network error retries with backoff and jitter.
const (
	putEvent    = "put"
	patchEvent  = "patch"
	deleteEvent = "delete"

	streamReadTimeout        = 5 * time.Minute
	streamMaxRetryDelay      = 30 * time.Second
	streamRetryResetInterval = 60 * time.Second
	streamJitterRatio        = 0.5
	defaultStreamRetryDelay  = 1 * time.Second

	streamingErrorContext     = "in stream connection"
	streamingWillRetryMessage = "will retry"

	streamingRequestPath = "/all"
)

// StreamingDataSource keeps the store synchronized via a persistent
// Server-Sent Events connection, with automatic reconnect-and-replay.
type StreamingDataSource struct {
	store                 datastore.Store
	streamURI             string
	client                *http.Client
	headers               http.Header
	loggers               *flog.Loggers
	initialReconnectDelay time.Duration

	halt      chan struct{}
	readyOnce sync.Once
	closeOnce sync.Once
}

// NewStreamingDataSource creates a streaming data source that connects to
// streamURI and writes updates into store.
func NewStreamingDataSource(
	store datastore.Store,
	httpClient *http.Client,
	streamURI string,
	headers http.Header,
	initialReconnectDelay time.Duration,
	loggers *flog.Loggers,
) *StreamingDataSource {
	client := httpClient
	if client == nil {
		client = &http.Client{}
	}
	clientCopy := *client
	// The stream never completes a response body, so a request timeout would
	// kill the connection; only the dial itself should ever time out.
	clientCopy.Timeout = 0
	return &StreamingDataSource{
		store:                 store,
		streamURI:             streamURI,
		client:                &clientCopy,
		headers:               headers,
		loggers:               loggers,
		initialReconnectDelay: initialReconnectDelay,
		halt:                  make(chan struct{}),
	}
}

// Initialized reports whether the store has been initialized, either by a
// "put" event of this source or before it started.
func (sp *StreamingDataSource) Initialized() bool {
	return sp.store.Initialized()
}

// Start opens the SSE connection in a background goroutine.
func (sp *StreamingDataSource) Start() ReadySignal {
	closeWhenReady := make(chan struct{})
	sp.loggers.Info("starting streaming connection")
	go sp.subscribe(closeWhenReady)
	return closeWhenReady
}

func (sp *StreamingDataSource) subscribe(closeWhenReady chan<- struct{}) {
	req, err := http.NewRequest("GET", sp.streamURI+streamingRequestPath, nil)
	if err != nil {
		sp.loggers.Errorf("unable to create stream request, most likely a bad base URI: %s", err)
		sp.notifyReady(closeWhenReady)
		return
	}
	for k, vv := range sp.headers {
		req.Header[k] = vv
	}

	initialRetryDelay := sp.initialReconnectDelay
	if initialRetryDelay <= 0 {
		initialRetryDelay = defaultStreamRetryDelay
	}

	errorHandler := func(err error) es.StreamErrorHandlerResult {
		if se, ok := err.(es.SubscriptionError); ok {
			recoverable := sp.logRecoverable(httpErrorDescription(se.Code), se.Code)
			if recoverable {
				return es.StreamErrorHandlerResult{CloseNow: false}
			}
			return es.StreamErrorHandlerResult{CloseNow: true}
		}
		sp.logRecoverable(err.Error(), 0)
		return es.StreamErrorHandlerResult{CloseNow: false}
	}

	stream, err := es.SubscribeWithRequestAndOptions(req,
		es.StreamOptionHTTPClient(sp.client),
		es.StreamOptionReadTimeout(streamReadTimeout),
		es.StreamOptionInitialRetry(initialRetryDelay),
		es.StreamOptionUseBackoff(streamMaxRetryDelay),
		es.StreamOptionUseJitter(streamJitterRatio),
		es.StreamOptionRetryResetInterval(streamRetryResetInterval),
		es.StreamOptionErrorHandler(errorHandler),
		es.StreamOptionCanRetryFirstConnection(-1),
	)
	if err != nil {
		sp.notifyReady(closeWhenReady)
		return
	}

	sp.consumeStream(stream, closeWhenReady)
}

func (sp *StreamingDataSource) logRecoverable(desc string, statusCode int) bool {
	if statusCode > 0 && !isHTTPErrorRecoverable(statusCode) {
		sp.loggers.Errorf("error %s (giving up permanently): %s", streamingErrorContext, desc)
		return false
	}
	sp.loggers.Warnf("error %s (%s): %s", streamingErrorContext, streamingWillRetryMessage, desc)
	return true
}

func (sp *StreamingDataSource) consumeStream(stream *es.Stream, closeWhenReady chan<- struct{}) {
	defer func() {
		for range stream.Events {
		}
		if stream.Errors != nil {
			for range stream.Errors {
			}
		}
	}()

	for {
		select {
		case event, ok := <-stream.Events:
			if !ok {
				sp.notifyReady(closeWhenReady)
				return
			}
			sp.handleEvent(event, stream, closeWhenReady)

		case <-sp.halt:
			stream.Close()
			return
		}
	}
}

func (sp *StreamingDataSource) handleEvent(event es.Event, stream *es.Stream, closeWhenReady chan<- struct{}) {
	switch event.Event() {
	case putEvent:
		body := []byte(event.Data())
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if json.Unmarshal(body, &envelope) == nil && len(envelope.Data) > 0 {
			body = envelope.Data
		}
		data, err := parseAllData(body)
		if err != nil {
			sp.loggers.Errorf("received streaming \"put\" event with malformed JSON (%s); restarting stream", err)
			stream.Restart()
			return
		}
		if err := sp.store.Init(data); err != nil {
			sp.loggers.Errorf("failed to store streaming data: %s; restarting stream", err)
			stream.Restart()
			return
		}
		sp.loggers.Info("streaming is active")
		sp.notifyReady(closeWhenReady)

	case patchEvent:
		patch, err := parsePatchData([]byte(event.Data()))
		if err != nil {
			sp.loggers.Errorf("received streaming \"patch\" event with malformed JSON (%s); restarting stream", err)
			stream.Restart()
			return
		}
		if patch.Kind == nil {
			return
		}
		if err := sp.store.Upsert(patch.Kind, patch.Item); err != nil {
			sp.loggers.Errorf("failed to store streaming update of %s; restarting stream", patch.Key)
			stream.Restart()
		}

	case deleteEvent:
		del, err := parseDeleteData([]byte(event.Data()))
		if err != nil {
			sp.loggers.Errorf("received streaming \"delete\" event with malformed JSON (%s); restarting stream", err)
			stream.Restart()
			return
		}
		if del.Kind == nil {
			return
		}
		if err := sp.store.Delete(del.Kind, del.Key, del.Version); err != nil {
			sp.loggers.Errorf("failed to store streaming deletion of %s; restarting stream", del.Key)
			stream.Restart()
		}

	default:
		sp.loggers.Infof("unexpected event found in stream: %s", event.Event())
	}
}

func (sp *StreamingDataSource) notifyReady(closeWhenReady chan<- struct{}) {
	sp.readyOnce.Do(func() { close(closeWhenReady) })
}

// Stop halts the stream connection. Idempotent.
func (sp *StreamingDataSource) Stop() {
	sp.closeOnce.Do(func() { close(sp.halt) })
}
