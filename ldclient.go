package flagcore

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/flagcore/flagcore-go/components"
	"github.com/flagcore/flagcore-go/evaluation"
	"github.com/flagcore/flagcore-go/fevents"
	"github.com/flagcore/flagcore-go/flog"
	"github.com/flagcore/flagcore-go/fmodel"
	"github.com/flagcore/flagcore-go/freason"
	"github.com/flagcore/flagcore-go/fuser"
	"github.com/flagcore/flagcore-go/fvalue"
	"github.com/flagcore/flagcore-go/internal/datasource"
	"github.com/flagcore/flagcore-go/internal/datastore"
)

// Version is the client version.
const Version = "1.0.0"

// Initialization errors.
var (
	ErrInitializationTimeout = errors.New("timeout encountered waiting for client initialization")
	ErrInitializationFailed  = errors.New("client initialization failed")
	ErrClientNotInitialized  = errors.New("feature flag evaluation called before client initialization completed")
)

// Client evaluates feature flags and sends analytics events. Instances are
// safe for concurrent use; applications should create a single instance for
// the lifetime of the application.
type Client struct {
	sdkKey         string
	config         Config
	loggers        *flog.Loggers
	eventProcessor fevents.EventProcessor
	eventFactory   fevents.EventFactory
	dataSource     datasource.DataSource
	store          datastore.Store
	evaluator      evaluation.Evaluator
}

type storeDataProvider struct {
	store datastore.Store
}

func (p storeDataProvider) GetFeatureFlag(key string) (fmodel.FeatureFlag, bool) {
	item, err := p.store.Get(datastore.Features, key)
	if err != nil || item == nil {
		return fmodel.FeatureFlag{}, false
	}
	flag, ok := item.(fmodel.FeatureFlag)
	return flag, ok
}

func (p storeDataProvider) GetSegment(key string) (fmodel.Segment, bool) {
	item, err := p.store.Get(datastore.Segments, key)
	if err != nil || item == nil {
		return fmodel.Segment{}, false
	}
	segment, ok := item.(fmodel.Segment)
	return segment, ok
}

// MakeClient creates a client that connects using the default configuration.
// waitFor, if positive, blocks until the client has either initialized or
// the duration has elapsed.
func MakeClient(sdkKey string, waitFor time.Duration) (*Client, error) {
	return MakeCustomClient(sdkKey, Config{}, waitFor)
}

// MakeCustomClient creates a client with a custom Config.
func MakeCustomClient(sdkKey string, config Config, waitFor time.Duration) (*Client, error) {
	loggers := config.Logging
	if loggers == nil {
		loggers = components.Logging()
	}
	built := loggers.Build()
	built.Infof("Starting client %s", Version)

	httpBuilder := config.HTTP
	if httpBuilder == nil {
		httpBuilder = components.HTTPConfiguration()
	}
	httpConfig, err := httpBuilder.Build(sdkKey)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP configuration: %w", err)
	}

	storeFactory := config.DataStore
	if storeFactory == nil {
		storeFactory = components.InMemoryDataStore()
	}
	clientContext := components.ClientContext{
		SDKKey:  sdkKey,
		HTTP:    httpConfig,
		Loggers: built,
	}
	store, err := storeFactory.Build(clientContext)
	if err != nil {
		return nil, fmt.Errorf("failed to build data store: %w", err)
	}
	clientContext.Store = store

	evaluator := evaluation.NewEvaluator(storeDataProvider{store: store})

	client := &Client{
		sdkKey:       sdkKey,
		config:       config,
		loggers:      built,
		store:        store,
		evaluator:    evaluator,
		eventFactory: fevents.NewEventFactory(false, nil),
	}

	if config.Offline {
		client.eventProcessor = fevents.NewNullEventProcessor()
		client.dataSource = datasource.NewNullDataSource()
		client.dataSource.Start()
		built.Info("Started client in offline mode")
		return client, nil
	}

	eventsFactory := config.Events
	if eventsFactory == nil {
		eventsFactory = components.SendEvents()
	}
	eventProcessor, err := eventsFactory.Build(clientContext)
	if err != nil {
		return nil, fmt.Errorf("failed to build event processor: %w", err)
	}
	client.eventProcessor = eventProcessor

	dataSourceFactory := config.DataSource
	if dataSourceFactory == nil {
		dataSourceFactory = components.StreamingDataSource()
	}
	dataSource, err := dataSourceFactory.Build(clientContext)
	if err != nil {
		return nil, fmt.Errorf("failed to build data source: %w", err)
	}
	client.dataSource = dataSource

	ready := dataSource.Start()
	if waitFor > 0 {
		built.Infof("Waiting up to %d milliseconds for client to start...", waitFor/time.Millisecond)
	}
	timeout := time.After(waitFor)
	select {
	case <-ready:
		if !dataSource.Initialized() {
			built.Warn("client initialization failed")
			return client, ErrInitializationFailed
		}
		built.Info("successfully initialized client")
		return client, nil
	case <-timeout:
		if waitFor > 0 {
			built.Warn("timeout encountered waiting for client initialization")
			return client, ErrInitializationTimeout
		}
		go func() { <-ready }()
		return client, nil
	}
}

// Identify reports details about a user, independent of any flag evaluation.
func (c *Client) Identify(user fuser.User) {
	if user.GetKey() == "" {
		c.loggers.Warn("Identify called with empty user key")
		return
	}
	c.eventProcessor.SendEvent(c.eventFactory.NewIdentifyEvent(user))
}

// TrackEvent reports that a user performed an application-defined event.
func (c *Client) TrackEvent(eventName string, user fuser.User) {
	c.TrackData(eventName, user, fvalue.Null())
}

// TrackData reports an application-defined event with associated custom data.
func (c *Client) TrackData(eventName string, user fuser.User, data fvalue.Value) {
	if user.GetKey() == "" {
		c.loggers.Warn("Track called with empty user key")
		return
	}
	c.eventProcessor.SendEvent(c.eventFactory.NewCustomEvent(eventName, user, data, false, 0))
}

// TrackMetric reports an application-defined event with a numeric value, for
// use in aggregate metrics.
func (c *Client) TrackMetric(eventName string, user fuser.User, metricValue float64, data fvalue.Value) {
	if user.GetKey() == "" {
		c.loggers.Warn("Track called with empty user key")
		return
	}
	c.eventProcessor.SendEvent(c.eventFactory.NewCustomEvent(eventName, user, data, true, metricValue))
}

// IsOffline returns whether the client is in offline mode.
func (c *Client) IsOffline() bool {
	return c.config.Offline
}

// SecureModeHash generates the secure mode hash value for a user: an
// HMAC-SHA256 of the user key keyed by the SDK key, allowing front-end code
// to prove it was handed a valid per-user token without exposing the SDK key
// itself.
func (c *Client) SecureModeHash(user fuser.User) string {
	h := hmac.New(sha256.New, []byte(c.sdkKey))
	_, _ = h.Write([]byte(user.GetKey()))
	return hex.EncodeToString(h.Sum(nil))
}

// Initialized returns whether the client has received its initial dataset.
func (c *Client) Initialized() bool {
	return c.IsOffline() || c.dataSource.Initialized()
}

// Flush tells the client that all pending analytics events should be
// delivered as soon as possible. Flushing is asynchronous; this method
// returns before delivery completes.
func (c *Client) Flush() {
	c.eventProcessor.Flush()
}

// Close shuts down the client. After calling Close, the client must not be
// used again. This method blocks until all pending analytics events have
// been sent.
func (c *Client) Close() error {
	c.loggers.Info("Closing client")
	if c.IsOffline() {
		return nil
	}
	_ = c.eventProcessor.Close()
	c.dataSource.Stop()
	return nil
}

func newEvaluationError(defaultVal fvalue.Value, errorKind freason.ErrorKind) freason.EvaluationDetail {
	return freason.EvaluationDetail{
		Value:          defaultVal,
		VariationIndex: freason.NoVariation,
		Reason:         freason.NewErrorReason(errorKind),
	}
}

func flagEventProperties(flag fmodel.FeatureFlag) fevents.FlagEventProperties {
	var debugUntil int64
	if flag.DebugEventsUntilDate != nil {
		debugUntil = *flag.DebugEventsUntilDate
	}
	ruleTrackEvents := make([]bool, len(flag.Rules))
	for i, rule := range flag.Rules {
		ruleTrackEvents[i] = rule.TrackEvents
	}
	return fevents.FlagEventProperties{
		Key:                    flag.Key,
		Version:                flag.Version,
		TrackEvents:            flag.TrackEvents,
		TrackEventsFallthrough: flag.TrackEventsFallthrough,
		DebugEventsUntilDate:   debugUntil,
		RuleTrackEvents:        ruleTrackEvents,
	}
}

// variation is the shared implementation behind every typed Variation/
// VariationDetail accessor.
func (c *Client) variation(
	key string,
	user fuser.User,
	defaultVal fvalue.Value,
	checkType bool,
	sendReasonsInEvents bool,
) (freason.EvaluationDetail, error) {
	if c.IsOffline() {
		return newEvaluationError(defaultVal, freason.ClientNotReady), nil
	}

	detail, flag, err := c.evaluateInternal(key, user, defaultVal, sendReasonsInEvents)
	if err != nil {
		detail.Value = defaultVal
		detail.VariationIndex = freason.NoVariation
	} else if checkType && defaultVal.Type() != fvalue.NullType && detail.Value.Type() != defaultVal.Type() {
		detail = newEvaluationError(defaultVal, freason.WrongType)
	}

	eventFactory := fevents.NewEventFactory(sendReasonsInEvents, nil)
	var evt fevents.FeatureRequestEvent
	if flag == nil {
		evt = eventFactory.NewEvalEvent(fevents.FlagEventProperties{Key: key}, user, detail.VariationIndex, detail.Value, defaultVal, detail.Reason, "")
	} else {
		evt = eventFactory.NewEvalEvent(flagEventProperties(*flag), user, detail.VariationIndex, detail.Value, defaultVal, detail.Reason, "")
	}
	c.eventProcessor.SendEvent(evt)

	return detail, err
}

// evaluateInternal performs evaluation without sending the main feature
// request event (the caller does that); prerequisite events are sent here.
func (c *Client) evaluateInternal(
	key string,
	user fuser.User,
	defaultVal fvalue.Value,
	sendReasonsInEvents bool,
) (freason.EvaluationDetail, *fmodel.FeatureFlag, error) {
	if user.GetKey() == "" {
		c.loggers.Warnf("User key is blank when evaluating flag %q", key)
	}

	if !c.Initialized() {
		if c.store.Initialized() {
			c.loggers.Warn("Feature flag evaluation called before client initialization completed; using last known values from data store")
		} else {
			return newEvaluationError(defaultVal, freason.ClientNotReady), nil, ErrClientNotInitialized
		}
	}

	item, err := c.store.Get(datastore.Features, key)
	if err != nil {
		c.loggers.Errorf("error fetching flag %q from store: %s", key, err)
		return newEvaluationError(defaultVal, freason.Exception), nil, err
	}
	if item == nil {
		err := fmt.Errorf("unknown feature key: %s", key)
		if c.config.LogEvaluationErrors {
			c.loggers.Warn(err)
		}
		return newEvaluationError(defaultVal, freason.FlagNotFound), nil, err
	}
	flag, ok := item.(fmodel.FeatureFlag)
	if !ok {
		err := fmt.Errorf("unexpected data type (%T) found in store for flag key: %s", item, key)
		if c.config.LogEvaluationErrors {
			c.loggers.Warn(err)
		}
		return newEvaluationError(defaultVal, freason.Exception), nil, err
	}

	eventFactory := fevents.NewEventFactory(sendReasonsInEvents, nil)
	var prereqEvents []fevents.FeatureRequestEvent
	recorder := func(event evaluation.PrerequisiteFlagEvent) {
		prereqEvents = append(prereqEvents, eventFactory.NewEvalEvent(
			flagEventProperties(event.PrerequisiteFlag), user,
			event.Result.VariationIndex, event.Result.Value, fvalue.Null(), event.Result.Reason, event.PrereqOfFlagKey))
	}

	detail := c.evaluator.Evaluate(flag, user, recorder)
	if detail.Reason.Kind() == freason.Error && c.config.LogEvaluationErrors {
		c.loggers.Warnf("flag evaluation for %s failed with error %s, default value was returned", key, detail.Reason.ErrorKind())
	}
	if detail.VariationIndex == freason.NoVariation {
		detail.Value = defaultVal
	}

	for _, event := range prereqEvents {
		c.eventProcessor.SendEvent(event)
	}

	return detail, &flag, nil
}

// BoolVariation returns the value of a boolean flag for the given user.
// Returns defaultVal if there is an error, the flag doesn't exist, or the
// flag is off with no off variation.
func (c *Client) BoolVariation(key string, user fuser.User, defaultVal bool) (bool, error) {
	detail, err := c.variation(key, user, fvalue.Bool(defaultVal), true, false)
	return detail.Value.Bool(), err
}

// BoolVariationDetail is the same as BoolVariation but also returns the
// evaluation reason.
func (c *Client) BoolVariationDetail(key string, user fuser.User, defaultVal bool) (bool, freason.EvaluationDetail, error) {
	detail, err := c.variation(key, user, fvalue.Bool(defaultVal), true, true)
	return detail.Value.Bool(), detail, err
}

// IntVariation returns the value of a flag (whose variations are numbers)
// for the given user, truncated toward zero.
func (c *Client) IntVariation(key string, user fuser.User, defaultVal int) (int, error) {
	detail, err := c.variation(key, user, fvalue.Int(defaultVal), true, false)
	return detail.Value.Int(), err
}

// IntVariationDetail is the same as IntVariation but also returns the
// evaluation reason.
func (c *Client) IntVariationDetail(key string, user fuser.User, defaultVal int) (int, freason.EvaluationDetail, error) {
	detail, err := c.variation(key, user, fvalue.Int(defaultVal), true, true)
	return detail.Value.Int(), detail, err
}

// Float64Variation returns the value of a flag (whose variations are
// numbers) for the given user.
func (c *Client) Float64Variation(key string, user fuser.User, defaultVal float64) (float64, error) {
	detail, err := c.variation(key, user, fvalue.Float64(defaultVal), true, false)
	return detail.Value.Float64(), err
}

// Float64VariationDetail is the same as Float64Variation but also returns
// the evaluation reason.
func (c *Client) Float64VariationDetail(key string, user fuser.User, defaultVal float64) (float64, freason.EvaluationDetail, error) {
	detail, err := c.variation(key, user, fvalue.Float64(defaultVal), true, true)
	return detail.Value.Float64(), detail, err
}

// StringVariation returns the value of a flag (whose variations are
// strings) for the given user.
func (c *Client) StringVariation(key string, user fuser.User, defaultVal string) (string, error) {
	detail, err := c.variation(key, user, fvalue.String(defaultVal), true, false)
	return detail.Value.String(), err
}

// StringVariationDetail is the same as StringVariation but also returns the
// evaluation reason.
func (c *Client) StringVariationDetail(key string, user fuser.User, defaultVal string) (string, freason.EvaluationDetail, error) {
	detail, err := c.variation(key, user, fvalue.String(defaultVal), true, true)
	return detail.Value.String(), detail, err
}

// JSONVariation returns the value of a flag for the given user, allowing the
// value to be of any JSON type.
func (c *Client) JSONVariation(key string, user fuser.User, defaultVal fvalue.Value) (fvalue.Value, error) {
	detail, err := c.variation(key, user, defaultVal, false, false)
	return detail.Value, err
}

// JSONVariationDetail is the same as JSONVariation but also returns the
// evaluation reason.
func (c *Client) JSONVariationDetail(key string, user fuser.User, defaultVal fvalue.Value) (fvalue.Value, freason.EvaluationDetail, error) {
	detail, err := c.variation(key, user, defaultVal, false, true)
	return detail.Value, detail, err
}
