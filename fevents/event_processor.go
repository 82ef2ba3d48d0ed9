package fevents

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flagcore/flagcore-go/flog"
)

// defaultEventProcessor is the public EventProcessor: a thin, never-blocking
// wrapper that posts messages to a single background dispatcher goroutine.
type defaultEventProcessor struct {
	inboxCh       chan eventDispatcherMessage
	inboxFullOnce sync.Once
	closeOnce     sync.Once
	loggers       *flog.Loggers
}

// NewDefaultEventProcessor creates the event pipeline described by config.
func NewDefaultEventProcessor(config Config) EventProcessor {
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	if config.Capacity <= 0 {
		config.Capacity = DefaultCapacity
	}
	if config.Loggers == nil {
		config.Loggers = &flog.Loggers{}
	}
	inboxCh := make(chan eventDispatcherMessage, config.Capacity)
	startEventDispatcher(config, inboxCh)
	return &defaultEventProcessor{inboxCh: inboxCh, loggers: config.Loggers}
}

func (ep *defaultEventProcessor) SendEvent(e Event) {
	ep.postNonBlocking(sendEventMessage{event: e})
}

func (ep *defaultEventProcessor) Flush() {
	ep.postNonBlocking(flushEventsMessage{})
}

func (ep *defaultEventProcessor) postNonBlocking(m eventDispatcherMessage) {
	select {
	case ep.inboxCh <- m:
		return
	default:
	}
	ep.inboxFullOnce.Do(func() {
		ep.loggers.Warn("events are being produced faster than they can be processed; some events will be dropped")
	})
}

func (ep *defaultEventProcessor) Close() error {
	ep.closeOnce.Do(func() {
		ep.inboxCh <- flushEventsMessage{}
		m := shutdownEventsMessage{replyCh: make(chan struct{})}
		ep.inboxCh <- m
		<-m.replyCh
	})
	return nil
}

// eventDispatcherMessage is the payload of the inbox channel.
type eventDispatcherMessage interface{}

type sendEventMessage struct{ event Event }
type flushEventsMessage struct{}
type shutdownEventsMessage struct{ replyCh chan struct{} }
type syncEventsMessage struct{ replyCh chan struct{} }

type flushPayload struct {
	events  []Event
	summary summaryState
}

// eventsOutbox buffers raw events plus a running summary between flushes.
type eventsOutbox struct {
	capacity      int
	events        []Event
	summarizer    *eventSummarizer
	droppedEvents int
	loggers       *flog.Loggers
	capacityWarn  sync.Once
}

func newEventsOutbox(capacity int, loggers *flog.Loggers) *eventsOutbox {
	return &eventsOutbox{capacity: capacity, summarizer: newEventSummarizer(), loggers: loggers}
}

func (o *eventsOutbox) addEvent(e Event) {
	if len(o.events) >= o.capacity {
		o.droppedEvents++
		o.capacityWarn.Do(func() {
			o.loggers.Warn("event capacity exceeded; events will be dropped until the next flush")
		})
		return
	}
	o.events = append(o.events, e)
}

func (o *eventsOutbox) addToSummary(e FeatureRequestEvent) {
	o.summarizer.summarizeEvent(e)
}

func (o *eventsOutbox) getPayload() flushPayload {
	return flushPayload{events: o.events, summary: o.summarizer.snapshot()}
}

func (o *eventsOutbox) clear() {
	o.events = nil
	o.summarizer = newEventSummarizer()
}

// eventDispatcher owns the single background goroutine that serializes
// all event-pipeline state: the outbox, the dedup cache, and disablement
// after an unrecoverable send error.
type eventDispatcher struct {
	config            Config
	lastKnownPastTime uint64
	deduplicatedUsers int
	eventsInLastBatch int
	disabled          bool
	stateLock         sync.Mutex
}

func startEventDispatcher(config Config, inboxCh <-chan eventDispatcherMessage) {
	ed := &eventDispatcher{config: config}

	flushCh := make(chan *flushPayload, 1)
	var workersGroup sync.WaitGroup
	for i := 0; i < maxFlushWorkers; i++ {
		startFlushTask(config, flushCh, &workersGroup, ed.handleResponse)
	}
	go ed.runMainLoop(inboxCh, flushCh, &workersGroup)
}

func (ed *eventDispatcher) runMainLoop(
	inboxCh <-chan eventDispatcherMessage,
	flushCh chan<- *flushPayload,
	workersGroup *sync.WaitGroup,
) {
	outbox := newEventsOutbox(ed.config.Capacity, ed.config.Loggers)
	userKeys := newLruCache(userKeysCapacityOrDefault(ed.config))

	flushInterval := ed.config.FlushInterval
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}
	userKeysFlushInterval := ed.config.UserKeysFlushInterval
	if userKeysFlushInterval <= 0 {
		userKeysFlushInterval = DefaultUserKeysFlushInterval
	}
	flushTicker := time.NewTicker(flushInterval)
	defer flushTicker.Stop()
	usersResetTicker := time.NewTicker(userKeysFlushInterval)
	defer usersResetTicker.Stop()

	for {
		select {
		case message := <-inboxCh:
			switch m := message.(type) {
			case sendEventMessage:
				ed.processEvent(m.event, outbox, &userKeys)
			case flushEventsMessage:
				ed.triggerFlush(outbox, flushCh, workersGroup)
			case syncEventsMessage:
				workersGroup.Wait()
				m.replyCh <- struct{}{}
			case shutdownEventsMessage:
				workersGroup.Wait()
				close(flushCh)
				m.replyCh <- struct{}{}
				return
			}
		case <-flushTicker.C:
			ed.triggerFlush(outbox, flushCh, workersGroup)
		case <-usersResetTicker.C:
			userKeys.clear()
		}
	}
}

func (ed *eventDispatcher) processEvent(evt Event, outbox *eventsOutbox, userKeys *lruCache) {
	willAddFullEvent := false
	var debugEvent Event

	switch e := evt.(type) {
	case FeatureRequestEvent:
		outbox.addToSummary(e)
		willAddFullEvent = e.TrackEvents
		if ed.shouldDebugEvent(&e) {
			de := e
			de.Debug = true
			debugEvent = de
		}
	default:
		willAddFullEvent = true
	}

	if !(willAddFullEvent && ed.config.InlineUsersInEvents) {
		user := evt.GetBase().User
		if noticeUser(userKeys, user.GetKey()) {
			ed.deduplicatedUsers++
		} else if _, ok := evt.(IdentifyEvent); !ok {
			outbox.addEvent(IndexEvent{BaseEvent{CreationDate: evt.GetBase().CreationDate, User: user}})
		}
	}
	if willAddFullEvent {
		outbox.addEvent(evt)
	}
	if debugEvent != nil {
		outbox.addEvent(debugEvent)
	}
}

func noticeUser(userKeys *lruCache, key string) bool {
	if key == "" {
		return true
	}
	return userKeys.add(key)
}

func (ed *eventDispatcher) shouldDebugEvent(e *FeatureRequestEvent) bool {
	if e.DebugEventsUntilDate == 0 {
		return false
	}
	ed.stateLock.Lock()
	defer ed.stateLock.Unlock()
	return e.DebugEventsUntilDate > int64(ed.lastKnownPastTime) && e.DebugEventsUntilDate > nowUnixMillis()
}

func (ed *eventDispatcher) triggerFlush(outbox *eventsOutbox, flushCh chan<- *flushPayload, workersGroup *sync.WaitGroup) {
	if ed.isDisabled() {
		outbox.clear()
		return
	}
	payload := outbox.getPayload()
	total := len(payload.events)
	if len(payload.summary.flags) > 0 {
		total++
	}
	if total == 0 {
		ed.eventsInLastBatch = 0
		return
	}
	workersGroup.Add(1)
	select {
	case flushCh <- &payload:
		ed.eventsInLastBatch = total
		outbox.clear()
	default:
		workersGroup.Done()
	}
}

func (ed *eventDispatcher) isDisabled() bool {
	ed.stateLock.Lock()
	defer ed.stateLock.Unlock()
	return ed.disabled
}

func (ed *eventDispatcher) handleResponse(resp *http.Response) {
	if err := checkForHTTPError(resp.StatusCode, resp.Request.URL.String()); err != nil {
		ed.config.Loggers.Error(httpErrorMessage(resp.StatusCode, "posting events", "some events were dropped"))
		if !isHTTPErrorRecoverable(resp.StatusCode) {
			ed.stateLock.Lock()
			ed.disabled = true
			ed.stateLock.Unlock()
		}
		return
	}
	if dt, err := http.ParseTime(resp.Header.Get("Date")); err == nil {
		ed.stateLock.Lock()
		ed.lastKnownPastTime = toUnixMillis(dt)
		ed.stateLock.Unlock()
	}
}

// flushWorker POSTs flush payloads. A fixed-size pool of these bounds how
// much concurrent outbound traffic the pipeline can generate.
type flushWorker struct {
	client    *http.Client
	config    Config
	formatter eventOutputFormatter
}

func startFlushTask(config Config, flushCh <-chan *flushPayload, workersGroup *sync.WaitGroup, responseFn func(*http.Response)) {
	w := flushWorker{
		client: config.HTTPClient,
		config: config,
		formatter: eventOutputFormatter{
			userFilter: newUserFilter(config),
			config:     config,
		},
	}
	go w.run(flushCh, responseFn, workersGroup)
}

func (w *flushWorker) run(flushCh <-chan *flushPayload, responseFn func(*http.Response), workersGroup *sync.WaitGroup) {
	for payload := range flushCh {
		outputEvents := w.formatter.makeOutputEvents(payload.events, payload.summary)
		if len(outputEvents) > 0 {
			if resp := w.postEvents(outputEvents, len(outputEvents)); resp != nil {
				responseFn(resp)
			}
		}
		workersGroup.Done()
	}
}

func (w *flushWorker) postEvents(outputData interface{}, eventCount int) *http.Response {
	jsonPayload, err := json.Marshal(outputData)
	if err != nil {
		w.config.Loggers.Errorf("unexpected error marshaling event JSON: %s", err)
		return nil
	}
	payloadUUID, _ := uuid.NewRandom()
	payloadID := payloadUUID.String()

	w.config.Loggers.Debugf("sending %d events", eventCount)

	var resp *http.Response
	var respErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			w.config.Loggers.Warn("will retry posting events after 1 second")
			time.Sleep(time.Second)
		}
		req, reqErr := http.NewRequest("POST", w.config.EventsURI, bytes.NewReader(jsonPayload))
		if reqErr != nil {
			w.config.Loggers.Errorf("unexpected error creating event request: %s", reqErr)
			return nil
		}
		for k, vv := range w.config.Headers {
			for _, v := range vv {
				req.Header.Add(k, v)
			}
		}
		req.Header.Add("Content-Type", "application/json")
		req.Header.Add(eventSchemaHeader, currentEventSchema)
		req.Header.Add(payloadIDHeader, payloadID)

		resp, respErr = w.client.Do(req)
		if resp != nil && resp.Body != nil {
			_, _ = io.ReadAll(resp.Body)
			_ = resp.Body.Close()
		}
		if respErr != nil {
			w.config.Loggers.Warnf("unexpected error sending events: %s", respErr)
			continue
		}
		if resp.StatusCode >= 400 && isHTTPErrorRecoverable(resp.StatusCode) {
			w.config.Loggers.Warnf("received error status %d when sending events", resp.StatusCode)
			continue
		}
		break
	}
	return resp
}

func userKeysCapacityOrDefault(config Config) int {
	if config.UserKeysCapacity > 0 {
		return config.UserKeysCapacity
	}
	return DefaultUserKeysCapacity
}
