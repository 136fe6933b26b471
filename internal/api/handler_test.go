package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creative-engine/internal/creativetypes"
	"creative-engine/internal/engine"
	"creative-engine/internal/generators"
	"creative-engine/internal/storage"
)

// stubRenderer completes every job immediately.
type stubRenderer struct {
	mu    sync.Mutex
	count int
	fail  map[int]string
}

func (s *stubRenderer) Submit(_ context.Context, _ string, _ engine.Layers) (engine.JobHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := engine.JobHandle(fmt.Sprintf("%d", s.count))
	s.count++
	return h, nil
}

func (s *stubRenderer) Poll(_ context.Context, handle engine.JobHandle) (engine.JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	fmt.Sscanf(string(handle), "%d", &n)
	if reason, ok := s.fail[n]; ok {
		return engine.JobStatus{State: engine.JobFailed, Reason: reason}, nil
	}
	return engine.JobStatus{State: engine.JobCompleted, AssetURL: "https://assets.test/" + string(handle) + ".png"}, nil
}

func newTestHandler(t *testing.T, rend engine.Renderer) (*GenerateHandler, *storage.MemoryHistory) {
	t.Helper()
	reg := engine.NewRegistry()
	require.NoError(t, generators.RegisterBuiltins(reg, nil))
	eng := engine.New(reg, rend, engine.Options{PollInterval: time.Millisecond, PollTimeout: time.Second})
	history := storage.NewMemoryHistory(10)
	return NewGenerateHandler(eng, creativetypes.BuiltIn(), history, 3, 12), history
}

func postGenerate(t *testing.T, h *GenerateHandler, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/generate", bytes.NewReader(raw))
	w := httptest.NewRecorder()
	h.Generate(w, req)
	return w
}

func validHalfHalfRequest() map[string]any {
	lines := make([]string, 12)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	return map[string]any{
		"topic":         "Girls Bracelet Kit",
		"event":         "Black Friday",
		"creative_type": "half_half",
		"inputs": map[string]any{
			"main_lines":         lines,
			"product_image_urls": []string{"https://shop.test/p0.png"},
		},
	}
}

func TestGenerateEndpoint(t *testing.T) {
	t.Run("full batch", func(t *testing.T) {
		h, history := newTestHandler(t, &stubRenderer{})
		w := postGenerate(t, h, validHalfHalfRequest())
		require.Equal(t, http.StatusOK, w.Code)

		var resp generateResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "half_half", resp.CreativeType)
		assert.Equal(t, 12, resp.Requested)
		assert.Equal(t, 12, resp.Succeeded)
		assert.Len(t, resp.Groups, 4, "12 creatives in groups of 3")
		assert.Empty(t, resp.Failed)

		batches, err := history.RecentBatches(context.Background(), 10)
		require.NoError(t, err)
		require.Len(t, batches, 1)
		assert.Equal(t, resp.BatchID, batches[0].ID)
		assert.Equal(t, 12, batches[0].Succeeded)
		assert.Len(t, batches[0].Assets, 12)
	})

	t.Run("missing topic", func(t *testing.T) {
		h, _ := newTestHandler(t, &stubRenderer{})
		w := postGenerate(t, h, map[string]any{"creative_type": "half_half"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown creative type", func(t *testing.T) {
		h, _ := newTestHandler(t, &stubRenderer{})
		body := validHalfHalfRequest()
		body["creative_type"] = "vertical_video"
		w := postGenerate(t, h, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "unknown creative type")
	})

	t.Run("config error maps to 400", func(t *testing.T) {
		h, _ := newTestHandler(t, &stubRenderer{})
		body := validHalfHalfRequest()
		body["count"] = 5 // pools are sized for 12
		w := postGenerate(t, h, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "style_pool")
	})

	t.Run("generator error maps to 500", func(t *testing.T) {
		h, _ := newTestHandler(t, &stubRenderer{})
		body := validHalfHalfRequest()
		delete(body["inputs"].(map[string]any), "main_lines")
		w := postGenerate(t, h, body)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("partial failure maps to 502 with detail", func(t *testing.T) {
		h, history := newTestHandler(t, &stubRenderer{fail: map[int]string{2: "layer rejected"}})
		w := postGenerate(t, h, validHalfHalfRequest())
		require.Equal(t, http.StatusBadGateway, w.Code)

		var resp generateResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 11, resp.Succeeded)
		require.Len(t, resp.Failed, 1)
		assert.Contains(t, resp.Failed[0].Reason, "layer rejected")

		// Partial batches are recorded too.
		batches, err := history.RecentBatches(context.Background(), 1)
		require.NoError(t, err)
		require.Len(t, batches, 1)
		assert.Equal(t, 1, batches[0].Failed)
	})

	t.Run("invalid json", func(t *testing.T) {
		h, _ := newTestHandler(t, &stubRenderer{})
		req := httptest.NewRequest(http.MethodPost, "/v1/generate", bytes.NewReader([]byte("{")))
		w := httptest.NewRecorder()
		h.Generate(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCreativeTypesEndpoint(t *testing.T) {
	h, _ := newTestHandler(t, &stubRenderer{})
	req := httptest.NewRequest(http.MethodGet, "/v1/creative-types", nil)
	w := httptest.NewRecorder()
	h.CreativeTypes(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var configs []engine.CreativeTypeConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &configs))
	require.Len(t, configs, 3)
	assert.Equal(t, "half_half", configs[0].Name)
}

func TestBatchesEndpoint(t *testing.T) {
	h, history := newTestHandler(t, &stubRenderer{})

	require.NoError(t, history.SaveBatch(context.Background(), storage.BatchRecord{ID: "b1", Topic: "t", CreatedAt: time.Now()}))
	require.NoError(t, history.SaveBatch(context.Background(), storage.BatchRecord{ID: "b2", Topic: "t", CreatedAt: time.Now()}))

	req := httptest.NewRequest(http.MethodGet, "/v1/batches?limit=1", nil)
	w := httptest.NewRecorder()
	h.Batches(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var batches []storage.BatchRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &batches))
	require.Len(t, batches, 1)
	assert.Equal(t, "b2", batches[0].ID, "newest first")
}
