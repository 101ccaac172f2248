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

// tomtomProfiles maps vehicle types onto TomTom's "travelMode" vocabulary.
var tomtomProfiles = map[domain.VehicleType]string{
	domain.VehicleCar:     "car",
	domain.VehicleVan:     "van",
	domain.VehicleTruck:   "truck",
	domain.VehicleBike:    "bicycle",
	domain.VehicleScooter: "bicycle",
	domain.VehicleFoot:    "pedestrian",
}

// TomTomProfiles exposes the mapping for callers resolving a profile before
// calling Matrix/Polyline.
var TomTomProfiles = tomtomProfiles

// TomTomProvider talks to the TomTom Matrix Routing API v2
// (https://developer.tomtom.com/matrix-routing-v2). This adapter sends a
// single POST and reads the matrix from its response; it has no
// submit/poll/download flow.
type TomTomProvider struct {
	cfg        Config
	httpClient *http.Client
	baseURL    string
}

// NewTomTomProvider constructs a TomTom adapter from shared config.
func NewTomTomProvider(cfg Config) *TomTomProvider {
	return &TomTomProvider{
		cfg:     cfg,
		baseURL: "https://api.tomtom.com/routing/matrix/2",
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (p *TomTomProvider) Name() string { return "tomtom" }

type tomtomMatrixRequest struct {
	Origins      []tomtomPoint `json:"origins"`
	Destinations []tomtomPoint `json:"destinations"`
	Options      struct {
		TravelMode string `json:"travelMode"`
	} `json:"options"`
}

type tomtomPoint struct {
	Point struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"point"`
}

type tomtomMatrixResponse struct {
	Data []struct {
		OriginIndex      int `json:"originIndex"`
		DestinationIndex int `json:"destinationIndex"`
		Routes           []struct {
			Summary struct {
				LengthInMeters     float64 `json:"lengthInMeters"`
				TravelTimeInSecond float64 `json:"travelTimeInSeconds"`
			} `json:"summary"`
		} `json:"routes"`
	} `json:"data"`
}

// Matrix implements Provider. It always makes the same single request and
// does not consult Config.SyncThreshold.
func (p *TomTomProvider) Matrix(ctx context.Context, points []domain.Point, profile string) (*Matrix, error) {
	coords := make([]tomtomPoint, len(points))
	for i, pt := range points {
		coords[i].Point.Latitude = pt.Lat
		coords[i].Point.Longitude = pt.Lng
	}

	reqBody := tomtomMatrixRequest{Origins: coords, Destinations: coords}
	reqBody.Options.TravelMode = profile

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, wrapHTTPError(p.Name(), "matrix", err)
	}

	endpoint := fmt.Sprintf("%s?key=%s", p.baseURL, url.QueryEscape(p.cfg.APIKey))
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

	var parsed tomtomMatrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, wrapHTTPError(p.Name(), "matrix", err)
	}

	size := len(points)
	m := &Matrix{Distances: squareMatrix(size), Durations: squareMatrix(size)}
	for _, cell := range parsed.Data {
		i, j := cell.OriginIndex, cell.DestinationIndex
		if i < 0 || i >= size || j < 0 || j >= size || i == j {
			continue
		}
		if len(cell.Routes) == 0 {
			m.Distances[i][j] = UnreachableCost
			m.Durations[i][j] = UnreachableCost
			continue
		}
		m.Distances[i][j] = cell.Routes[0].Summary.LengthInMeters
		m.Durations[i][j] = cell.Routes[0].Summary.TravelTimeInSecond
	}
	return m, nil
}

// Polyline implements Provider using TomTom's Routing API.
func (p *TomTomProvider) Polyline(ctx context.Context, points []domain.Point, profile string) (*string, error) {
	locations := make([]string, len(points))
	for i, pt := range points {
		locations[i] = strconv.FormatFloat(pt.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(pt.Lng, 'f', 6, 64)
	}

	endpoint := fmt.Sprintf("https://api.tomtom.com/routing/1/calculateRoute/%s/json?travelMode=%s&key=%s",
		strings.Join(locations, ":"), profile, url.QueryEscape(p.cfg.APIKey))

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
		Routes []struct {
			Legs []struct {
				Points []struct {
					Latitude  float64 `json:"latitude"`
					Longitude float64 `json:"longitude"`
				} `json:"points"`
			} `json:"legs"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || len(parsed.Routes) == 0 {
		return nil, nil
	}

	var b strings.Builder
	for _, leg := range parsed.Routes[0].Legs {
		for _, pt := range leg.Points {
			fmt.Fprintf(&b, "%f,%f;", pt.Latitude, pt.Longitude)
		}
	}
	if b.Len() == 0 {
		return nil, nil
	}
	encoded := b.String()
	return &encoded, nil
}
