package renderer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creative-engine/internal/engine"
)

func TestSubmit(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 4711})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok-123", time.Second)
	handle, err := c.Submit(context.Background(), "tmpl-abc", engine.Layers{
		"header": {"text": "HELLO"},
	})
	require.NoError(t, err)
	assert.Equal(t, engine.JobHandle("4711"), handle)
	assert.Equal(t, "/tmpl-abc", gotPath)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, false, gotBody["create_now"])
	layers := gotBody["layers"].(map[string]any)
	assert.Equal(t, "HELLO", layers["header"].(map[string]any)["text"])
}

func TestPoll(t *testing.T) {
	tests := []struct {
		name     string
		response map[string]any
		want     engine.JobStatus
	}{
		{
			name:     "finished",
			response: map[string]any{"status": "finished", "image_url": "https://assets/img.png"},
			want:     engine.JobStatus{State: engine.JobCompleted, AssetURL: "https://assets/img.png"},
		},
		{
			name:     "queued",
			response: map[string]any{"status": "queued"},
			want:     engine.JobStatus{State: engine.JobPending},
		},
		{
			name:     "error with list",
			response: map[string]any{"status": "error", "errors": []string{"bad layer", "missing font"}},
			want:     engine.JobStatus{State: engine.JobFailed, Reason: "bad layer; missing font"},
		},
		{
			name:     "error without detail",
			response: map[string]any{"status": "error"},
			want:     engine.JobStatus{State: engine.JobFailed, Reason: "render job failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/images/99", r.URL.Path)
				_ = json.NewEncoder(w).Encode(tt.response)
			}))
			defer srv.Close()

			status, err := New(srv.URL, "tok", time.Second).Poll(context.Background(), "99")
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestRateLimitRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 1})
	}))
	defer srv.Close()

	handle, err := New(srv.URL, "tok", 5*time.Second).Submit(context.Background(), "tmpl", engine.Layers{})
	require.NoError(t, err)
	assert.Equal(t, engine.JobHandle("1"), handle)
	assert.Equal(t, int32(2), calls.Load())
}

func TestServerErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "template not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "tok", time.Second).Submit(context.Background(), "tmpl", engine.Layers{})
	assert.ErrorContains(t, err, "status 404")
	assert.ErrorContains(t, err, "template not found")
}

func TestUploadMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/media", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "cluster.png", header.Filename)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"media": []map[string]any{{"file_key": "file", "file_id": "https://hosted/cluster.png"}},
		})
	}))
	defer srv.Close()

	url, err := New(srv.URL, "tok", time.Second).UploadMedia(context.Background(), []byte{0x89, 0x50}, "cluster.png")
	require.NoError(t, err)
	assert.Equal(t, "https://hosted/cluster.png", url)
}
