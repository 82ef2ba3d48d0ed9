// Package ldhttp provides functional options for constructing an
// *http.Transport with TLS and proxy settings, shared by every component
// that builds its own HTTP client (data sources, the event pipeline).
package ldhttp

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"
)

// TransportOption is a functional option for NewHTTPTransport.
type TransportOption func(*transportOptions) error

type transportOptions struct {
	caCertData     []byte
	proxyURL       *url.URL
	connectTimeout time.Duration
}

// CACertOption adds a CA certificate, in PEM format, to the trusted root
// list used for TLS connections.
func CACertOption(certData []byte) TransportOption {
	return func(o *transportOptions) error {
		o.caCertData = append(o.caCertData, certData...)
		return nil
	}
}

// CACertFileOption is like CACertOption but reads the certificate data from a file.
func CACertFileOption(filePath string) TransportOption {
	return func(o *transportOptions) error {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return errors.New("can't read CA certificate file: " + err.Error())
		}
		o.caCertData = append(o.caCertData, data...)
		return nil
	}
}

// ProxyOption routes all requests made with this transport through proxyURL,
// overriding the HTTP_PROXY/HTTPS_PROXY/NO_PROXY environment variables.
func ProxyOption(proxyURL url.URL) TransportOption {
	return func(o *transportOptions) error {
		u := proxyURL
		o.proxyURL = &u
		return nil
	}
}

// ConnectTimeoutOption sets the transport's dial timeout.
func ConnectTimeoutOption(timeout time.Duration) TransportOption {
	return func(o *transportOptions) error {
		o.connectTimeout = timeout
		return nil
	}
}

// NewHTTPTransport builds an *http.Transport from the given options,
// along with the certificate pool it ended up using (nil if no CACert
// option was applied, in which case the system root pool is used).
func NewHTTPTransport(options ...TransportOption) (*http.Transport, *x509.CertPool, error) {
	var o transportOptions
	for _, opt := range options {
		if err := opt(&o); err != nil {
			return nil, nil, err
		}
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}

	var certPool *x509.CertPool
	if len(o.caCertData) > 0 {
		certPool = x509.NewCertPool()
		if !certPool.AppendCertsFromPEM(o.caCertData) {
			return nil, nil, errors.New("invalid CA certificate data")
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: certPool}
	}

	if o.proxyURL != nil {
		fixedURL := *o.proxyURL
		transport.Proxy = http.ProxyURL(&fixedURL)
	}

	if o.connectTimeout > 0 {
		dialer := &net.Dialer{Timeout: o.connectTimeout}
		transport.DialContext = dialer.DialContext
	}

	return transport, certPool, nil
}
