package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"rasterview/pkg/logger"
	"rasterview/pkg/metrics"
)

// HTTPEngine talks to the raster engine daemon over localhost HTTP.
type HTTPEngine struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

var _ RasterEngine = (*HTTPEngine)(nil)

func NewHTTPEngine(baseURL string, timeout time.Duration, l logger.Logger) *HTTPEngine {
	return &HTTPEngine{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: l,
	}
}

func (e *HTTPEngine) OpenRaster(ctx context.Context, path string) (*Metadata, error) {
	body := map[string]string{"path": path}

	var meta Metadata
	if err := e.postJSON(ctx, "/v1/datasets", body, &meta); err != nil {
		return nil, fmt.Errorf("failed to open raster %q: %w", path, err)
	}

	e.logger.Info("dataset opened", "id", meta.ID, "path", path,
		"size", fmt.Sprintf("%dx%d", meta.Width, meta.Height),
		"bands", meta.Bands, "georeferenced", meta.Georeferenced)

	return &meta, nil
}

func (e *HTTPEngine) CloseDataset(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, e.baseURL+"/v1/datasets/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("engine returned status %d", resp.StatusCode)
	}
	return nil
}

func (e *HTTPEngine) BandStats(ctx context.Context, id string, band int) (*BandStats, error) {
	u := fmt.Sprintf("%s/v1/datasets/%s/stats?band=%d", e.baseURL, url.PathEscape(id), band)

	var stats BandStats
	if err := e.getJSON(ctx, u, &stats); err != nil {
		return nil, fmt.Errorf("failed to get stats for band %d: %w", band, err)
	}
	return &stats, nil
}

func (e *HTTPEngine) Histogram(ctx context.Context, id string, band, bins int) (*Histogram, error) {
	u := fmt.Sprintf("%s/v1/datasets/%s/histogram?band=%d&bins=%d", e.baseURL, url.PathEscape(id), band, bins)

	var hist Histogram
	if err := e.getJSON(ctx, u, &hist); err != nil {
		return nil, fmt.Errorf("failed to get histogram for band %d: %w", band, err)
	}
	return &hist, nil
}

func (e *HTTPEngine) StretchedTile(ctx context.Context, req SingleBandRequest) ([]byte, error) {
	return e.tile(ctx, "/v1/tiles/stretch", req)
}

func (e *HTTPEngine) PixelTile(ctx context.Context, req SingleBandRequest) ([]byte, error) {
	return e.tile(ctx, "/v1/tiles/pixel-stretch", req)
}

func (e *HTTPEngine) RGBTile(ctx context.Context, req RGBRequest) ([]byte, error) {
	return e.tile(ctx, "/v1/tiles/rgb", req)
}

func (e *HTTPEngine) CrossLayerTile(ctx context.Context, req CrossLayerRequest) ([]byte, error) {
	return e.tile(ctx, "/v1/tiles/cross-rgb", req)
}

func (e *HTTPEngine) CrossLayerPixelTile(ctx context.Context, req CrossLayerRequest) ([]byte, error) {
	return e.tile(ctx, "/v1/tiles/pixel-cross-rgb", req)
}

// tile posts a compute request and returns the raw pixel buffer.
func (e *HTTPEngine) tile(ctx context.Context, endpoint string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("engine returned status %d", resp.StatusCode)
	}

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tile data: %w", err)
	}
	return buf, nil
}

func (e *HTTPEngine) postJSON(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeJSON(resp, out)
}

func (e *HTTPEngine) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeJSON(resp, out)
}

func (e *HTTPEngine) do(req *http.Request) (*http.Response, error) {
	metrics.EngineRequests.Inc()
	start := time.Now()

	resp, err := e.httpClient.Do(req)

	metrics.EngineLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, fmt.Errorf("engine request failed: %w", err)
	}
	return resp, nil
}

func decodeJSON(resp *http.Response, out any) error {
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("engine returned status %s: %s", strconv.Itoa(resp.StatusCode), msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode engine response: %w", err)
	}
	return nil
}
