package app

import (
	"net/http"
	"testing"
)

func TestNewUpstreamHTTPClient_SSLVerify(t *testing.T) {
	tests := []struct {
		name      string
		sslVerify bool
		insecure  bool
	}{
		{"verify enabled", true, false},
		{"verify disabled", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newUpstreamHTTPClient(tt.sslVerify)
			transport, ok := client.Transport.(*http.Transport)
			if !ok {
				t.Fatalf("expected *http.Transport, got %T", client.Transport)
			}
			got := transport.TLSClientConfig != nil && transport.TLSClientConfig.InsecureSkipVerify
			if got != tt.insecure {
				t.Fatalf("InsecureSkipVerify=%v, want %v", got, tt.insecure)
			}
			if transport == http.DefaultTransport {
				t.Fatalf("transport should not be the default")
			}
		})
	}
}
