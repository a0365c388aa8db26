// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/question-bank/pkg/types"
)

func init() {
	// Use a tiny base delay so tests finish quickly.
	RetryBaseDelay = 1 * time.Millisecond
}

const corpus = "T0A03 (C) What circuit does black wire insulation indicate? A. Neutral B. Equipment ground C. Hot D. Critical loads Correct Answer: C. Hot\n"

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.txt")
	require.NoError(t, os.WriteFile(path, []byte(corpus), 0o644))

	got, err := NewReader(types.HTTPConfig{}, nil).Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, corpus, got)
}

func TestReadMissingFile(t *testing.T) {
	_, err := NewReader(types.HTTPConfig{}, nil).Read(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadStdin(t *testing.T) {
	for _, loc := range []string{"", Stdin} {
		r := NewReader(types.HTTPConfig{}, nil).WithStdin(strings.NewReader(corpus))
		got, err := r.Read(context.Background(), loc)
		require.NoError(t, err)
		assert.Equal(t, corpus, got)
	}
}

func TestReadURL(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(corpus))
	}))
	defer ts.Close()

	r := NewReader(types.HTTPConfig{UserAgent: "question-bank/test"}, ts.Client())
	got, err := r.Read(context.Background(), ts.URL+"/pool.txt")
	require.NoError(t, err)
	assert.Equal(t, corpus, got)
	assert.Equal(t, "question-bank/test", gotUA)
}

func TestReadURLRetriesThenSucceeds(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		switch n {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
			return
		case 2:
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(corpus))
	}))
	defer ts.Close()

	got, err := NewReader(types.HTTPConfig{}, ts.Client()).Read(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, corpus, got)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestReadURLExhaustsRetries(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	}))
	defer ts.Close()

	_, err := NewReader(types.HTTPConfig{MaxRetries: 2}, ts.Client()).Read(context.Background(), ts.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 429: slow down")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestReadURLNotFound(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer ts.Close()

	_, err := NewReader(types.HTTPConfig{}, ts.Client()).Read(context.Background(), ts.URL)
	require.ErrorContains(t, err, "HTTP 404")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestReadURLContextCancelled(t *testing.T) {
	RetryBaseDelay = time.Hour
	defer func() { RetryBaseDelay = time.Millisecond }()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewReader(types.HTTPConfig{}, ts.Client()).Read(ctx, ts.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/pool.txt"))
	assert.True(t, IsURL("http://example.com"))
	assert.False(t, IsURL("pools/raw/technician.txt"))
	assert.False(t, IsURL("-"))
}
