package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"creative-engine/internal/creativetypes"
	"creative-engine/internal/engine"
	"creative-engine/internal/observability"
	"creative-engine/internal/storage"
)

type GenerateHandler struct {
	Eng     *engine.Engine
	Catalog *creativetypes.Catalog
	History storage.History

	GroupSize    int
	DefaultCount int
}

func NewGenerateHandler(eng *engine.Engine, catalog *creativetypes.Catalog, history storage.History, groupSize, defaultCount int) *GenerateHandler {
	return &GenerateHandler{
		Eng:          eng,
		Catalog:      catalog,
		History:      history,
		GroupSize:    groupSize,
		DefaultCount: defaultCount,
	}
}

type generateRequest struct {
	Topic    string `json:"topic"`
	Event    string `json:"event"`
	Discount string `json:"discount"`
	PageType string `json:"page_type"`
	URL      string `json:"url"`

	CreativeType string         `json:"creative_type"`
	Count        int            `json:"count"`
	GroupSize    int            `json:"group_size"`
	Inputs       map[string]any `json:"inputs"`
	Options      map[string]any `json:"options"`
}

type generateResponse struct {
	BatchID      string              `json:"batch_id"`
	CreativeType string              `json:"creative_type"`
	Requested    int                 `json:"requested"`
	Succeeded    int                 `json:"succeeded"`
	Groups       [][]engine.Creative `json:"groups"`
	Failed       []failedCreative    `json:"failed,omitempty"`
}

type failedCreative struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Topic == "" {
		writeError(w, http.StatusBadRequest, "missing 'topic' field")
		return
	}
	if req.CreativeType == "" {
		req.CreativeType = "product_cluster"
	}
	if req.Count <= 0 {
		req.Count = h.DefaultCount
	}
	if req.GroupSize <= 0 {
		req.GroupSize = h.GroupSize
	}

	cfg, err := h.Catalog.Get(req.CreativeType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	topic := engine.Topic{
		Name:     req.Topic,
		Event:    defaultStr(req.Event, "none"),
		Discount: defaultStr(req.Discount, "none"),
		PageType: defaultStr(req.PageType, "general"),
		URL:      req.URL,
	}

	start := time.Now()
	creatives, genErr := h.Eng.Generate(r.Context(), topic, cfg, req.Inputs, req.Options, req.Count)
	observability.GenerationDuration.Observe(time.Since(start).Seconds())
	observability.CreativesGenerated.WithLabelValues(cfg.Name).Add(float64(len(creatives)))

	var batchErr *engine.BatchError
	if genErr != nil && !errors.As(genErr, &batchErr) {
		status := http.StatusInternalServerError
		var cfgErr *engine.ConfigError
		if errors.As(genErr, &cfgErr) {
			status = http.StatusBadRequest
		}
		log.Error().Err(genErr).Str("creative_type", cfg.Name).Msg("generation failed")
		writeError(w, status, genErr.Error())
		return
	}

	resp := generateResponse{
		BatchID:      uuid.NewString(),
		CreativeType: cfg.Name,
		Requested:    req.Count,
		Succeeded:    len(creatives),
		Groups:       engine.Group(creatives, req.GroupSize),
	}
	if batchErr != nil {
		observability.RenderFailures.WithLabelValues(cfg.Name).Add(float64(len(batchErr.Failed)))
		for _, f := range batchErr.Failed {
			resp.Failed = append(resp.Failed, failedCreative{Index: f.Index, Reason: f.Error()})
		}
	}

	h.record(r, topic, resp, creatives)

	if batchErr != nil {
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// record persists the batch outcome; failure to record never fails the
// request.
func (h *GenerateHandler) record(r *http.Request, topic engine.Topic, resp generateResponse, creatives []engine.Creative) {
	if h.History == nil {
		return
	}
	batch := storage.BatchRecord{
		ID:           resp.BatchID,
		Topic:        topic.Name,
		CreativeType: resp.CreativeType,
		Requested:    resp.Requested,
		Succeeded:    resp.Succeeded,
		Failed:       len(resp.Failed),
		CreatedAt:    time.Now().UTC(),
	}
	for i, c := range creatives {
		batch.Assets = append(batch.Assets, storage.AssetRow{Index: i, Variant: c.Variant, AssetURL: c.AssetURL})
	}
	if err := h.History.SaveBatch(r.Context(), batch); err != nil {
		log.Error().Err(err).Str("batch", batch.ID).Msg("record batch")
	}
}

func (h *GenerateHandler) CreativeTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Catalog.All())
}

func (h *GenerateHandler) Batches(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		writeJSON(w, http.StatusOK, []storage.BatchRecord{})
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	batches, err := h.History.RecentBatches(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("load batch history")
		writeError(w, http.StatusInternalServerError, "failed to load batches")
		return
	}
	if batches == nil {
		batches = []storage.BatchRecord{}
	}
	writeJSON(w, http.StatusOK, batches)
}

func defaultStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
