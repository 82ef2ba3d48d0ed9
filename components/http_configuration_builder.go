package components

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/flagcore/flagcore-go/ldhttp"
)

// DefaultConnectTimeout is the HTTP connection timeout used if
// HTTPConfigurationBuilder.ConnectTimeout is not set.
const DefaultConnectTimeout = 3 * time.Second

// HTTPConfigurationBuilder configures the SDK's networking behavior.
type HTTPConfigurationBuilder struct {
	connectTimeout    time.Duration
	proxyURL          string
	userAgent         string
	wrapperIdentifier string
	customHeaders     map[string]string
	caCertData        []byte
}

// HTTPConfiguration returns a configuration builder for the SDK's HTTP behavior.
func HTTPConfiguration() *HTTPConfigurationBuilder {
	return &HTTPConfigurationBuilder{
		connectTimeout: DefaultConnectTimeout,
		customHeaders:  make(map[string]string),
	}
}

// ConnectTimeout sets the maximum time to wait for each individual
// connection attempt before considering it failed. The same duration is also
// the overall request timeout of the HTTP clients this configuration
// creates; the streaming data source removes that overall limit on its copy.
func (b *HTTPConfigurationBuilder) ConnectTimeout(timeout time.Duration) *HTTPConfigurationBuilder {
	if timeout <= 0 {
		b.connectTimeout = DefaultConnectTimeout
	} else {
		b.connectTimeout = timeout
	}
	return b
}

// ProxyURL routes all SDK requests through the given proxy, overriding the
// HTTP_PROXY/HTTPS_PROXY/NO_PROXY environment variables.
func (b *HTTPConfigurationBuilder) ProxyURL(proxyURL string) *HTTPConfigurationBuilder {
	b.proxyURL = proxyURL
	return b
}

// CACert adds a CA certificate, in PEM format, to the trusted root list used for TLS connections.
func (b *HTTPConfigurationBuilder) CACert(certData []byte) *HTTPConfigurationBuilder {
	b.caCertData = append(b.caCertData, certData...)
	return b
}

// Header sets a custom header sent with every request. Repeated calls with
// the same key overwrite the previous value.
func (b *HTTPConfigurationBuilder) Header(key, value string) *HTTPConfigurationBuilder {
	b.customHeaders[key] = value
	return b
}

// UserAgent sets an additional User-Agent header value.
func (b *HTTPConfigurationBuilder) UserAgent(userAgent string) *HTTPConfigurationBuilder {
	b.userAgent = userAgent
	return b
}

// Wrapper lets wrapper libraries identify themselves via the
// X-Flagcore-Wrapper-style header used by every SDK-consuming layer.
func (b *HTTPConfigurationBuilder) Wrapper(wrapperName, wrapperVersion string) *HTTPConfigurationBuilder {
	if wrapperName == "" || wrapperVersion == "" {
		b.wrapperIdentifier = wrapperName
	} else {
		b.wrapperIdentifier = fmt.Sprintf("%s/%s", wrapperName, wrapperVersion)
	}
	return b
}

// Build is called internally by the client to construct the HTTP configuration.
func (b *HTTPConfigurationBuilder) Build(sdkKey string) (HTTPConfig, error) {
	headers := make(http.Header)
	headers.Set("Authorization", sdkKey)
	userAgent := "FlagcoreGo/1.0"
	if b.userAgent != "" {
		userAgent = userAgent + " " + b.userAgent
	}
	headers.Set("User-Agent", userAgent)
	if b.wrapperIdentifier != "" {
		headers.Add("X-Flagcore-Wrapper", b.wrapperIdentifier)
	}
	for key, value := range b.customHeaders {
		headers.Set(key, value)
	}

	var transportOpts []ldhttp.TransportOption
	if len(b.caCertData) > 0 {
		transportOpts = append(transportOpts, ldhttp.CACertOption(b.caCertData))
	}
	if b.proxyURL != "" {
		u, err := url.Parse(b.proxyURL)
		if err != nil {
			return HTTPConfig{}, err
		}
		transportOpts = append(transportOpts, ldhttp.ProxyOption(*u))
	}
	transportOpts = append(transportOpts, ldhttp.ConnectTimeoutOption(b.connectTimeout))

	transport, _, err := ldhttp.NewHTTPTransport(transportOpts...)
	if err != nil {
		return HTTPConfig{}, err
	}

	connectTimeout := b.connectTimeout
	return HTTPConfig{
		Headers: headers,
		CreateHTTPClient: func() *http.Client {
			return &http.Client{Timeout: connectTimeout, Transport: transport}
		},
	}, nil
}
