// Package renderer is the HTTP client for the external rendering service.
// The service processes jobs asynchronously: a submission returns a numeric
// job id, results are fetched by polling.
package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"creative-engine/internal/engine"
)

const defaultBaseURL = "https://api.placid.app/api/rest"

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
}

func New(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: 5,
	}
}

// Submit creates a render job for the template with the given layer values.
func (c *Client) Submit(ctx context.Context, templateID string, layers engine.Layers) (engine.JobHandle, error) {
	payload, err := json.Marshal(map[string]any{
		"create_now": false,
		"layers":     layers,
	})
	if err != nil {
		return "", fmt.Errorf("encode layers: %w", err)
	}

	var resp struct {
		ID int64 `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/"+templateID, payload, &resp); err != nil {
		return "", fmt.Errorf("submit render job: %w", err)
	}
	return engine.JobHandle(strconv.FormatInt(resp.ID, 10)), nil
}

// Poll fetches the current state of a render job.
func (c *Client) Poll(ctx context.Context, handle engine.JobHandle) (engine.JobStatus, error) {
	var resp struct {
		Status   string          `json:"status"`
		ImageURL string          `json:"image_url"`
		Errors   json.RawMessage `json:"errors"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/images/"+string(handle), nil, &resp); err != nil {
		return engine.JobStatus{}, fmt.Errorf("poll render job %s: %w", handle, err)
	}

	switch resp.Status {
	case "finished":
		return engine.JobStatus{State: engine.JobCompleted, AssetURL: resp.ImageURL}, nil
	case "error":
		return engine.JobStatus{State: engine.JobFailed, Reason: flattenErrors(resp.Errors)}, nil
	default:
		return engine.JobStatus{State: engine.JobPending}, nil
	}
}

// UploadMedia uploads an image to the rendering service's media endpoint and
// returns its hosted URL.
func (c *Client) UploadMedia(ctx context.Context, data []byte, filename string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/media", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload media: status %d", resp.StatusCode)
	}

	var out struct {
		Media []struct {
			FileID string `json:"file_id"`
		} `json:"media"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode media response: %w", err)
	}
	if len(out.Media) == 0 || out.Media[0].FileID == "" {
		return "", fmt.Errorf("media response contains no file id")
	}
	return out.Media[0].FileID, nil
}

// doJSON performs one request with exponential backoff on 429 responses. The
// service rate-limits bursts of submissions; anything else non-2xx is an
// immediate error.
func (c *Client) doJSON(ctx context.Context, method, url string, body []byte, out any) error {
	for attempt := 0; ; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.maxRetries {
			resp.Body.Close()
			wait := time.Duration(1<<attempt) * time.Second
			log.Debug().Str("url", url).Dur("wait", wait).Msg("rate limited, backing off")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}
}

func flattenErrors(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "render job failed"
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}
	return string(raw)
}
