// Package weather fetches current conditions for a city. A live WeatherAPI
// client is used when an API key is configured; otherwise a deterministic
// simulated provider keeps recommendations working offline.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kalambet/attire/internal/planner"
)

// ErrNoCity is returned when a lookup is attempted without a city.
var ErrNoCity = errors.New("no city configured")

// Provider resolves the current weather for a city.
type Provider interface {
	Current(ctx context.Context, city string) (planner.Weather, error)
}

const defaultBaseURL = "https://api.weatherapi.com/v1"

// Client talks to the WeatherAPI current-conditions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Client with the given API key.
func New(apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewWithBaseURL creates a Client against a custom endpoint (for testing).
func NewWithBaseURL(apiKey, baseURL string) *Client {
	c := New(apiKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// currentResponse mirrors the JSON returned by GET /current.json.
type currentResponse struct {
	Current struct {
		TempC     float64 `json:"temp_c"`
		Humidity  int     `json:"humidity"`
		WindKPH   float64 `json:"wind_kph"`
		Condition struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
}

// Current fetches the live conditions for the city.
func (c *Client) Current(ctx context.Context, city string) (planner.Weather, error) {
	if strings.TrimSpace(city) == "" {
		return planner.Weather{}, ErrNoCity
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("q", city)
	endpoint := c.baseURL + "/current.json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return planner.Weather{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return planner.Weather{}, fmt.Errorf("requesting weather for %q: %w", city, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return planner.Weather{}, fmt.Errorf("weather lookup for %q: unexpected status %d", city, resp.StatusCode)
	}

	var cur currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&cur); err != nil {
		return planner.Weather{}, fmt.Errorf("decoding weather response: %w", err)
	}

	return planner.Weather{
		TemperatureC: cur.Current.TempC,
		Humidity:     cur.Current.Humidity,
		Condition:    cur.Current.Condition.Text,
		WindKPH:      cur.Current.WindKPH,
	}, nil
}

// Simulated is an offline Provider. Conditions derive from the city name
// and the calendar date, so repeated calls within a day agree with each
// other and different cities differ.
type Simulated struct {
	// Now defaults to time.Now; overridable for tests.
	Now func() time.Time
}

func (s Simulated) Current(_ context.Context, city string) (planner.Weather, error) {
	if strings.TrimSpace(city) == "" {
		return planner.Weather{}, ErrNoCity
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	day := now().Format("2006-01-02")
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(city))))
	h.Write([]byte(day))
	seed := h.Sum64()

	// Seasonal baseline for the northern hemisphere, wobbled by the hash.
	month := int(now().Month())
	base := []float64{2, 4, 8, 13, 18, 23, 26, 25, 20, 14, 8, 3}[month-1]
	temp := base + float64(seed%9) - 4

	conditions := []string{"Sunny", "Partly cloudy", "Cloudy", "Light rain", "Overcast"}

	return planner.Weather{
		TemperatureC: temp,
		Humidity:     40 + int(seed>>8%50),
		Condition:    conditions[seed>>16%uint64(len(conditions))],
		WindKPH:      float64(seed >> 24 % 30),
	}, nil
}
