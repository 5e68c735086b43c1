package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchDownloadStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/resume/stats", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total_downloads":42,"recent_downloads":7}`))
	}))
	defer srv.Close()

	total, recent, err := fetchDownloadStats(context.Background(), srv.URL+"/", time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(42), total)
	assert.Equal(t, int64(7), recent)
}

func TestFetchDownloadStats_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Failed to get stats"}`))
	}))
	defer srv.Close()

	_, _, err := fetchDownloadStats(context.Background(), srv.URL, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to get stats")
}

func TestContentCheck_BuiltIn(t *testing.T) {
	var out bytes.Buffer
	contentCheckCmd.SetOut(&out)
	defer contentCheckCmd.SetOut(nil)

	require.NoError(t, contentCheckCmd.RunE(contentCheckCmd, nil))
	assert.Contains(t, out.String(), "OK")
	assert.Contains(t, out.String(), "ideas")
}

func TestContentCheck_MissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nothing-here")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	err := contentCheckCmd.RunE(contentCheckCmd, []string{dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "portfolio.yaml")
}

func TestFlagKey(t *testing.T) {
	assert.Equal(t, "db_path", flagKey("db-path"))
	assert.Equal(t, "content_dir", flagKey("content-dir"))
	assert.Equal(t, "port", flagKey("port"))
}
