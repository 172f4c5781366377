// ABOUTME: Tests for the recording downloader
// ABOUTME: Serves files with httptest and checks caching and size limits
package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	return &Fetcher{cacheDir: t.TempDir(), client: http.DefaultClient, logger: quietLogger}
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/a.wav"))
	assert.True(t, IsURL("http://example.com/a.wav"))
	assert.False(t, IsURL("meeting.wav"))
	assert.False(t, IsURL("ftp://example.com/a.wav"))
}

func TestFetchJob(t *testing.T) {
	wav := stereoWAV(t)
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(wav)
	}))
	defer ts.Close()

	f := newTestFetcher(t)
	job, err := f.FetchJob(context.Background(), ts.URL+"/rec/weekly.wav?sig=abc", DefaultLimit, "ko")
	require.NoError(t, err)
	assert.Equal(t, "weekly.wav", job.FileName)
	assert.Equal(t, "audio/wav", job.MIMEType)
	assert.Equal(t, wav, job.Data)

	// second fetch comes from the cache
	_, err = f.FetchJob(context.Background(), ts.URL+"/rec/weekly.wav?sig=abc", DefaultLimit, "ko")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetch_Errors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer ts.Close()

	f := newTestFetcher(t)

	_, err := f.Fetch(context.Background(), ts.URL+"/missing", 0, "ko")
	assert.ErrorContains(t, err, "HTTP 404")

	_, err = f.Fetch(context.Background(), ts.URL+"/big.wav", 1024, "en")
	var tooLarge *FileTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, int64(1024), tooLarge.Limit)
}
