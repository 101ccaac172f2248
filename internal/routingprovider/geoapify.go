package routingprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fleetops/optimizer/pkg/domain"
)

// GeoapifyProfiles is the vehicle→mode mapping in Geoapify's own vocabulary
// (§4.1); callers resolve a profile with domain.VehicleType before calling
// Matrix/Polyline.
var GeoapifyProfiles = map[domain.VehicleType]string{
	domain.VehicleCar:     "drive",
	domain.VehicleVan:     "drive",
	domain.VehicleTruck:   "truck",
	domain.VehicleBike:    "bicycle",
	domain.VehicleScooter: "bicycle",
	domain.VehicleFoot:    "walk",
}

// GeoapifyProvider talks to Geoapify's Route Matrix and Routing APIs
// (https://apidocs.geoapify.com). It exposes only a synchronous matrix
// endpoint, so this adapter always calls it and does not consult
// Config.SyncThreshold.
type GeoapifyProvider struct {
	cfg        Config
	httpClient *http.Client
	baseURL    string
}

// NewGeoapifyProvider constructs a Geoapify adapter from shared config.
func NewGeoapifyProvider(cfg Config) *GeoapifyProvider {
	return &GeoapifyProvider{
		cfg:     cfg,
		baseURL: "https://api.geoapify.com/v1",
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (p *GeoapifyProvider) Name() string { return "geoapify" }

type geoapifyMatrixRequest struct {
	Mode    string               `json:"mode"`
	Sources []geoapifyCoordinate `json:"sources"`
	Targets []geoapifyCoordinate `json:"targets"`
}

type geoapifyCoordinate struct {
	Location [2]float64 `json:"location"` // [lon, lat]
}

type geoapifyMatrixResponse struct {
	SourcesToTargets [][]struct {
		DistanceMeters float64 `json:"distance"`
		TimeSeconds    float64 `json:"time"`
	} `json:"sources_to_targets"`
}

// Matrix implements Provider.
func (p *GeoapifyProvider) Matrix(ctx context.Context, points []domain.Point, profile string) (*Matrix, error) {
	coords := make([]geoapifyCoordinate, len(points))
	for i, pt := range points {
		coords[i] = geoapifyCoordinate{Location: [2]float64{pt.Lng, pt.Lat}}
	}

	body := geoapifyMatrixRequest{Mode: profile, Sources: coords, Targets: coords}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, wrapHTTPError(p.Name(), "matrix", err)
	}

	endpoint := fmt.Sprintf("%s/routematrix?apiKey=%s", p.baseURL, url.QueryEscape(p.cfg.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(payload)))
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

	var parsed geoapifyMatrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, wrapHTTPError(p.Name(), "matrix", err)
	}

	size := len(points)
	m := &Matrix{Distances: squareMatrix(size), Durations: squareMatrix(size)}
	for i := 0; i < size && i < len(parsed.SourcesToTargets); i++ {
		row := parsed.SourcesToTargets[i]
		for j := 0; j < size && j < len(row); j++ {
			if i == j {
				continue
			}
			cell := row[j]
			if cell.DistanceMeters <= 0 && cell.TimeSeconds <= 0 {
				m.Distances[i][j] = UnreachableCost
				m.Durations[i][j] = UnreachableCost
				continue
			}
			m.Distances[i][j] = cell.DistanceMeters
			m.Durations[i][j] = cell.TimeSeconds
		}
	}
	return m, nil
}

// Polyline implements Provider using Geoapify's Routing API.
func (p *GeoapifyProvider) Polyline(ctx context.Context, points []domain.Point, profile string) (*string, error) {
	waypoints := make([]string, len(points))
	for i, pt := range points {
		waypoints[i] = strconv.FormatFloat(pt.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(pt.Lng, 'f', 6, 64)
	}

	endpoint := fmt.Sprintf("%s/routing?waypoints=%s&mode=%s&apiKey=%s",
		p.baseURL, strings.Join(waypoints, "|"), profile, url.QueryEscape(p.cfg.APIKey))

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
		Features []struct {
			Properties struct {
				Geometry string `json:"legs"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || len(parsed.Features) == 0 {
		return nil, nil
	}

	encoded := parsed.Features[0].Properties.Geometry
	if encoded == "" {
		return nil, nil
	}
	return &encoded, nil
}

