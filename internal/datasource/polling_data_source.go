package datasource

import (
	"net/http"
	"sync"
	"time"

	"github.com/flagcore/flagcore-go/flog"
	"github.com/flagcore/flagcore-go/internal/datastore"
)

const (
	pollingErrorContext     = "on polling request"
	pollingWillRetryMessage = "will retry at next scheduled poll interval"
)

// PollingDataSource polls the full-dataset endpoint on a fixed interval and
// replaces the store's contents wholesale on every successful, uncached
// response.
type PollingDataSource struct {
	store        datastore.Store
	requestor    *requestor
	pollInterval time.Duration
	loggers      *flog.Loggers

	setInitializedOnce sync.Once
	quit               chan struct{}
	closeOnce          sync.Once
}

// NewPollingDataSource creates a polling data source against baseURI,
// polling every pollInterval and writing results into store.
func NewPollingDataSource(
	store datastore.Store,
	httpClient *http.Client,
	baseURI string,
	headers http.Header,
	pollInterval time.Duration,
	loggers *flog.Loggers,
) *PollingDataSource {
	return &PollingDataSource{
		store:        store,
		requestor:    newRequestor(httpClient, baseURI, headers, loggers),
		pollInterval: pollInterval,
		loggers:      loggers,
		quit:         make(chan struct{}),
	}
}

// Start begins polling in a background goroutine.
func (pp *PollingDataSource) Start() ReadySignal {
	closeWhenReady := make(chan struct{})
	pp.loggers.Infof("starting polling with interval %s", pp.pollInterval)

	ticker := newTickerWithInitialTick(pp.pollInterval)

	go func() {
		defer ticker.Stop()

		var readyOnce sync.Once
		notifyReady := func() {
			readyOnce.Do(func() { close(closeWhenReady) })
		}
		defer notifyReady()

		for {
			select {
			case <-pp.quit:
				return
			case <-ticker.C:
				if err := pp.poll(); err != nil {
					if hse, ok := err.(httpStatusError); ok {
						recoverable := pp.logRecoverable(httpErrorDescription(hse.Code), hse.Code)
						if !recoverable {
							notifyReady()
							return
						}
					} else {
						pp.logRecoverable(err.Error(), 0)
					}
					continue
				}
				pp.setInitializedOnce.Do(func() {
					pp.loggers.Info("first polling request successful")
					notifyReady()
				})
			}
		}
	}()

	return closeWhenReady
}

func (pp *PollingDataSource) logRecoverable(desc string, statusCode int) bool {
	if statusCode > 0 && !isHTTPErrorRecoverable(statusCode) {
		pp.loggers.Errorf("error %s (giving up permanently): %s", pollingErrorContext, desc)
		return false
	}
	pp.loggers.Warnf("error %s (%s): %s", pollingErrorContext, pollingWillRetryMessage, desc)
	return true
}

func (pp *PollingDataSource) poll() error {
	data, cached, err := pp.requestor.requestAll()
	if err != nil {
		return err
	}
	if !cached {
		return pp.store.Init(data)
	}
	return nil
}

// Stop halts the polling goroutine. Idempotent.
func (pp *PollingDataSource) Stop() {
	pp.closeOnce.Do(func() { close(pp.quit) })
}

// Initialized reports whether the store has been initialized, either by a
// successful poll of this source or before it started.
func (pp *PollingDataSource) Initialized() bool {
	return pp.store.Initialized()
}

// tickerWithInitialTick wraps time.Ticker so the first tick fires
// immediately instead of waiting a full interval, matching how a
// newly-started client expects data right away.
type tickerWithInitialTick struct {
	*time.Ticker
	C <-chan time.Time
}

func newTickerWithInitialTick(interval time.Duration) *tickerWithInitialTick {
	c := make(chan time.Time)
	ticker := time.NewTicker(interval)
	t := &tickerWithInitialTick{C: c, Ticker: ticker}
	go func() {
		c <- time.Now()
		for tt := range ticker.C {
			c <- tt
		}
	}()
	return t
}
