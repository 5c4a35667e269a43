package app

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// newUpstreamHTTPClient returns the client used for gateway calls. The
// overall timeout is left to the request context; the transport only bounds
// connection setup. sslVerify=false accepts self-signed certificates, which
// self-hosted OpenAI-compatible servers often use.
func newUpstreamHTTPClient(sslVerify bool) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   64,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if !sslVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{Transport: transport}
}
