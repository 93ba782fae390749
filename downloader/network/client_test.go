package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"available_releases":[17,21]}`))
	}))
	defer server.Close()

	var body struct {
		AvailableReleases []int `json:"available_releases"`
	}
	err := NewClient().GetJSON(context.Background(), server.URL, &body)
	require.NoError(t, err)
	assert.Equal(t, []int{17, 21}, body.AvailableReleases)
}

func TestGetJSONErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			_, _ = w.Write([]byte(`{not json`))
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	var v map[string]interface{}
	err := NewClient().GetJSON(context.Background(), server.URL+"/status", &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-OK status")

	err = NewClient().GetJSON(context.Background(), server.URL+"/broken", &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestBasicAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "alice" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	var v map[string]interface{}
	assert.Error(t, NewClient().GetJSON(context.Background(), server.URL, &v))
	assert.NoError(t, NewClient(WithBasicAuth("alice", "secret")).GetJSON(context.Background(), server.URL, &v))
}

func TestDownload(t *testing.T) {
	payload := []byte("archive bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "17_x64_linux.zip")
	n, err := NewClient().Download(context.Background(), server.URL, dest)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	_, err = os.Stat(dest + PartialSuffix)
	assert.True(t, os.IsNotExist(err), "partial file must be gone")
}

func TestDownloadFailureLeavesNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "17_x64_linux.zip")
	_, err := NewClient().Download(context.Background(), server.URL, dest)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownloadCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("never read"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	_, err := NewClient().Download(ctx, server.URL, filepath.Join(dir, "a.zip"))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownloadOverTLSWithCustomClient(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("archive"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "17_x64_linux.zip")

	_, err := NewClient().Download(context.Background(), server.URL, dest)
	require.Error(t, err, "the default client does not trust the test certificate")

	n, err := NewClient(WithHTTPClient(server.Client())).Download(context.Background(), server.URL, dest)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "archive", string(data))
}
