package routingprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fleetops/optimizer/pkg/domain"
)

// GraphHopperProvider talks to the GraphHopper Matrix API
// (https://docs.graphhopper.com/openapi/matrix). GraphHopper offers both a
// synchronous matrix call and an async submit/poll/download flow; Matrix
// picks between them itself via Config.SyncThreshold.
type GraphHopperProvider struct {
	cfg        Config
	httpClient *http.Client
	baseURL    string
}

// NewGraphHopperProvider constructs a GraphHopper adapter from shared config.
func NewGraphHopperProvider(cfg Config) *GraphHopperProvider {
	return &GraphHopperProvider{
		cfg:     cfg,
		baseURL: "https://graphhopper.com/api/1",
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (p *GraphHopperProvider) Name() string { return "graphhopper" }

type ghMatrixRequest struct {
	Points      [][2]float64 `json:"points"` // [lng, lat]
	OutArrays   []string     `json:"out_arrays"`
	Vehicle     string       `json:"vehicle"`
	Key         string       `json:"-"`
}

type ghMatrixResponse struct {
	Distances [][]float64 `json:"distances"`
	Times     [][]float64 `json:"times"` // milliseconds
	JobID     string      `json:"job_id"`
	Status    string      `json:"status"`
}

// Matrix submits a synchronous or asynchronous matrix request depending on
// the configured size threshold, polling for async jobs per §4.1.
func (p *GraphHopperProvider) Matrix(ctx context.Context, points []domain.Point, profile string) (*Matrix, error) {
	sync := len(points) <= p.cfg.SyncThreshold
	resp, err := p.requestMatrix(ctx, points, profile, sync)
	if err != nil {
		return nil, err
	}

	if resp.JobID != "" && resp.Status != "finished" {
		resp, err = p.pollMatrix(ctx, resp.JobID)
		if err != nil {
			return nil, err
		}
	}

	size := len(points)
	m := &Matrix{Distances: squareMatrix(size), Durations: squareMatrix(size)}
	for i := 0; i < size && i < len(resp.Distances); i++ {
		for j := 0; j < size && j < len(resp.Distances[i]); j++ {
			if i == j {
				continue
			}
			if resp.Distances[i][j] <= 0 {
				m.Distances[i][j] = UnreachableCost
				m.Durations[i][j] = UnreachableCost
				continue
			}
			m.Distances[i][j] = resp.Distances[i][j]
			if i < len(resp.Times) && j < len(resp.Times[i]) {
				m.Durations[i][j] = resp.Times[i][j] / 1000
			}
		}
	}
	return m, nil
}

func (p *GraphHopperProvider) requestMatrix(ctx context.Context, points []domain.Point, profile string, sync bool) (*ghMatrixResponse, error) {
	coords := make([][2]float64, len(points))
	for i, pt := range points {
		coords[i] = [2]float64{pt.Lng, pt.Lat}
	}

	body, err := json.Marshal(ghMatrixRequest{
		Points:    coords,
		OutArrays: []string{"distances", "times"},
		Vehicle:   profile,
	})
	if err != nil {
		return nil, wrapHTTPError(p.Name(), "matrix", err)
	}

	path := "/matrix"
	if !sync {
		path = "/matrix/calculate"
	}
	endpoint := fmt.Sprintf("%s%s?key=%s", p.baseURL, path, url.QueryEscape(p.cfg.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return nil, wrapHTTPError(p.Name(), "matrix", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, wrapHTTPError(p.Name(), "matrix", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, wrapHTTPError(p.Name(), "matrix", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var parsed ghMatrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, wrapHTTPError(p.Name(), "matrix", err)
	}
	return &parsed, nil
}

func (p *GraphHopperProvider) pollMatrix(ctx context.Context, jobID string) (*ghMatrixResponse, error) {
	endpoint := fmt.Sprintf("%s/matrix/%s?key=%s", p.baseURL, jobID, url.QueryEscape(p.cfg.APIKey))

	pollEvery := p.cfg.AsyncPollEvery
	if pollEvery <= 0 {
		pollEvery = 2 * time.Second
	}
	maxPolls := p.cfg.AsyncMaxPolls
	if maxPolls <= 0 {
		maxPolls = 30
	}

	for attempt := 0; attempt < maxPolls; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, wrapHTTPError(p.Name(), "matrix_poll", err)
		}

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return nil, wrapHTTPError(p.Name(), "matrix_poll", err)
		}

		var parsed ghMatrixResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&parsed)
		resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, wrapHTTPError(p.Name(), "matrix_poll", fmt.Errorf("unexpected status %d", resp.StatusCode))
		}
		if decodeErr != nil {
			return nil, wrapHTTPError(p.Name(), "matrix_poll", decodeErr)
		}

		if parsed.Status == "finished" {
			return &parsed, nil
		}

		select {
		case <-ctx.Done():
			return nil, wrapHTTPError(p.Name(), "matrix_poll", ctx.Err())
		case <-time.After(pollEvery):
		}
	}

	return nil, wrapHTTPError(p.Name(), "matrix_poll", ErrAsyncTimedOut)
}

// Polyline implements Provider using GraphHopper's Routing API.
func (p *GraphHopperProvider) Polyline(ctx context.Context, points []domain.Point, profile string) (*string, error) {
	query := url.Values{}
	for _, pt := range points {
		query.Add("point", strconv.FormatFloat(pt.Lat, 'f', 6, 64)+","+strconv.FormatFloat(pt.Lng, 'f', 6, 64))
	}
	query.Set("vehicle", profile)
	query.Set("key", p.cfg.APIKey)
	query.Set("points_encoded", "true")

	endpoint := fmt.Sprintf("%s/route?%s", p.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil //nolint:nilerr // polyline failure is non-fatal, §4.5.5
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, nil //nolint:nilerr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil
	}

	var parsed struct {
		Paths []struct {
			Points string `json:"points"`
		} `json:"paths"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || len(parsed.Paths) == 0 {
		return nil, nil
	}
	if parsed.Paths[0].Points == "" {
		return nil, nil
	}
	return &parsed.Paths[0].Points, nil
}
