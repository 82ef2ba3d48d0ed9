package datasource

import (
	"io"
	"net/http"

	"github.com/gregjones/httpcache"

	"github.com/flagcore/flagcore-go/flog"
	"github.com/flagcore/flagcore-go/internal/datastore"
)

// latestAllPath is the polling endpoint that returns every flag and segment
// in one response.
const latestAllPath = "/sdk/latest-all"

// requestor fetches the full dataset over HTTP, using an ETag-aware cache
// so that an unchanged upstream response costs only a conditional-GET
// round trip instead of a full re-parse.
type requestor struct {
	httpClient *http.Client
	baseURI    string
	headers    http.Header
	loggers    *flog.Loggers
}

func newRequestor(httpClient *http.Client, baseURI string, headers http.Header, loggers *flog.Loggers) *requestor {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	cachingClient := *httpClient
	cachingClient.Transport = &httpcache.Transport{
		Cache:               httpcache.NewMemoryCache(),
		MarkCachedResponses: true,
		Transport:           httpClient.Transport,
	}
	return &requestor{httpClient: &cachingClient, baseURI: baseURI, headers: headers, loggers: loggers}
}

// requestAll fetches the full dataset. cached is true if the upstream
// response was a 304 served from the local ETag cache, in which case the
// caller should leave the store untouched.
func (r *requestor) requestAll() (map[datastore.Kind]map[string]datastore.Item, bool, error) {
	if r.loggers != nil && r.loggers.IsDebugEnabled() {
		r.loggers.Debug("polling for feature flag updates")
	}
	body, cached, err := r.makeRequest(latestAllPath)
	if err != nil {
		return nil, false, err
	}
	if cached {
		return nil, true, nil
	}
	data, err := parseAllData(body)
	if err != nil {
		return nil, false, err
	}
	return data, false, nil
}

func (r *requestor) makeRequest(resource string) ([]byte, bool, error) {
	req, err := http.NewRequest("GET", r.baseURI+resource, nil)
	if err != nil {
		return nil, false, err
	}
	url := req.URL.String()
	for k, vv := range r.headers {
		req.Header[k] = vv
	}
	res, err := r.httpClient.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer func() {
		_, _ = io.ReadAll(res.Body)
		_ = res.Body.Close()
	}()
	if err := checkForHTTPError(res.StatusCode, url); err != nil {
		return nil, false, err
	}
	cached := res.Header.Get(httpcache.XFromCache) != ""
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, false, err
	}
	return body, cached, nil
}
