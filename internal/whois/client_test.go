package whois

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientFetch(t *testing.T) {
	var gotPath, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(registryPage))
	}))
	defer server.Close()

	client := NewClient(Config{URLTemplate: server.URL + "/whois/%s"})
	client.now = func() time.Time { return now }

	findings, err := client.Fetch(context.Background(), "example.com")
	require.NoError(t, err)

	assert.Equal(t, "/whois/example.com", gotPath)
	assert.Equal(t, DefaultUserAgent, gotAgent)
	assert.Len(t, findings, 6)
}

func TestClientFetchStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Config{URLTemplate: server.URL + "/%s"})
	_, err := client.Fetch(context.Background(), "example.com")

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)
	assert.Equal(t, "example.com", fetchErr.Domain)
}

func TestClientFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Config{URLTemplate: server.URL + "/%s", Timeout: 50 * time.Millisecond})
	_, err := client.Fetch(context.Background(), "slow.test")

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Error(t, fetchErr.Unwrap())
}

func TestClientFetchEmptyDomain(t *testing.T) {
	_, err := NewClient(Config{}).Fetch(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyDomain)
}

func TestClientFetchUnrecognizedPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>Rate limited</body></html>`))
	}))
	defer server.Close()

	findings, err := NewClient(Config{URLTemplate: server.URL + "/%s"}).Fetch(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Empty(t, findings)
}
