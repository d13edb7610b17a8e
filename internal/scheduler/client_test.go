package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListJobsSendsTokenAndParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/jobs", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "running", r.URL.Query().Get("state"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jobs": [], "total": 0}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	out, err := c.ListJobs(context.Background(), "tok-1", url.Values{"state": {"running"}})
	require.NoError(t, err)
	assert.Equal(t, float64(0), out["total"])
}

func TestStartJobPostsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/jobs", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "pl-1", body["pipeline_id"])
		assert.Equal(t, "gpu", body["queue"])

		_, _ = w.Write([]byte(`{"job_id": "j-9"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	out, err := c.StartJob(context.Background(), "tok", StartJobRequest{
		PipelineID: "pl-1",
		Queue:      "gpu",
		Name:       "nightly",
	})
	require.NoError(t, err)
	assert.Equal(t, "j-9", out["job_id"])
}

func TestStopJobPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/jobs/j-3/stop", r.URL.Path)
		_, _ = w.Write([]byte(`{"stopped": true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.StopJob(context.Background(), "tok", "j-3")
	assert.NoError(t, err)
}

func TestUpstreamErrorForwarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "queue does not exist", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.ListJobs(context.Background(), "tok", nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "queue does not exist")
}

func TestNotConfigured(t *testing.T) {
	c := NewClient("", time.Second)
	_, err := c.ListJobs(context.Background(), "tok", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCreatePipelineMultipart(t *testing.T) {
	dir := t.TempDir()
	attached := filepath.Join(dir, "custom.txt")
	require.NoError(t, os.WriteFile(attached, []byte("file-body"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "nightly", r.FormValue("name"))
		assert.Contains(t, r.FormValue("yaml_str"), "stages:")

		f, header, err := r.FormFile("custom_dir")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "custom.txt", header.Filename)

		_, _ = w.Write([]byte(`{"pipeline_id": "pl-7"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	out, err := c.CreatePipeline(context.Background(), "tok", CreatePipelineRequest{
		PipelineName: "nightly",
		YAMLContent:  "stages:\n  - build\n",
		Files:        map[string]string{"custom_dir": attached},
	})
	require.NoError(t, err)
	assert.Equal(t, "pl-7", out["pipeline_id"])
}

func TestCreatePipelineMissingFile(t *testing.T) {
	c := NewClient("http://localhost:1", time.Second)
	_, err := c.CreatePipeline(context.Background(), "tok", CreatePipelineRequest{
		PipelineName: "x",
		YAMLContent:  "y",
		Files:        map[string]string{"f": "/does/not/exist"},
	})
	assert.Error(t, err)
}
