package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		APIKey:     "test-key",
		EngineID:   "test-cx",
		NumResults: 10,
		Timeout:    2 * time.Second,
	}
}

func TestSearchParsesItems(t *testing.T) {
	t.Parallel()

	payload := `{
		"items": [
			{"link": "https://example.com", "title": "Low Voltage Contractor RFP", "snippet": "Bid due January 15th..."},
			{"link": "https://other.example.org/bid", "title": "Cabling IFB", "snippet": "Proposals due"}
		]
	}`
	var gotQuery, gotKey, gotCX, gotNum string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = q.Get("q")
		gotKey = q.Get("key")
		gotCX = q.Get("cx")
		gotNum = q.Get("num")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	client, err := New(testConfig(), WithBaseURL(srv.URL))
	require.NoError(t, err)

	resp, err := client.Search(context.Background(), "low voltage contractor New Jersey office")
	require.NoError(t, err)

	assert.Equal(t, "low voltage contractor New Jersey office", gotQuery)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "test-cx", gotCX)
	assert.Equal(t, "10", gotNum)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "https://example.com", resp.Results[0].URL)
	assert.Equal(t, "Low Voltage Contractor RFP", resp.Results[0].Title)
	assert.Equal(t, "Bid due January 15th...", resp.Results[0].Snippet)
	assert.JSONEq(t, payload, string(resp.Raw))
}

func TestSearchEmptyItems(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"kind": "customsearch#search"}`))
	}))
	defer srv.Close()

	client, err := New(testConfig(), WithBaseURL(srv.URL))
	require.NoError(t, err)

	resp, err := client.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestSearchPropagatesHTTPFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"code": 429, "message": "quota"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := New(testConfig(), WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestNewRejectsMissingCredentials(t *testing.T) {
	t.Parallel()

	_, err := New(Config{EngineID: "cx"})
	assert.Error(t, err)

	_, err = New(Config{APIKey: "key"})
	assert.Error(t, err)
}

func TestSearchHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client, err := New(testConfig(), WithBaseURL(srv.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Search(ctx, "anything")
	require.Error(t, err)
}
