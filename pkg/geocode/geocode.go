package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"

	"github.com/securityronin/nameback/pkg/location"
	"github.com/securityronin/nameback/pkg/version"
)

const (
	defaultBaseURL = "https://nominatim.openstreetmap.org"
	cacheTTL       = time.Hour
	// minInterval honors Nominatim's absolute 1 req/s usage policy. A rate
	// limited lookup falls back to coordinates instead of waiting.
	minInterval    = time.Second
	requestTimeout = 5 * time.Second
)

// Client reverse-geocodes coordinates against Nominatim with an in-process
// cache and hard client-side rate limiting.
type Client struct {
	baseURL string
	http    *http.Client

	mu          sync.Mutex
	cache       map[string]cachedEntry
	lastRequest time.Time
}

type cachedEntry struct {
	place    string
	cachedAt time.Time
}

func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: requestTimeout},
		cache:   make(map[string]cachedEntry),
	}
}

type nominatimResponse struct {
	Address struct {
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		Hamlet      string `json:"hamlet"`
		Suburb      string `json:"suburb"`
		State       string `json:"state"`
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// Reverse resolves a point to a filename-friendly "City_Region" string.
// ok=false on cache-miss-while-rate-limited, network failure, or an empty
// address; callers fall back to Point.Format().
func (c *Client) Reverse(ctx context.Context, p location.Point) (string, bool) {
	log := logger.FromContext(ctx)
	key := fmt.Sprintf("%.4f,%.4f", p.Latitude, p.Longitude)

	c.mu.Lock()
	if entry, ok := c.cache[key]; ok && time.Since(entry.cachedAt) < cacheTTL {
		c.mu.Unlock()
		return entry.place, true
	}
	if time.Since(c.lastRequest) < minInterval {
		c.mu.Unlock()
		log.Debug("geocode rate limited, using coordinates", logger.Data{"key": key})
		return "", false
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	place, err := c.lookup(ctx, p)
	if err != nil {
		log.Err(err).Warn("reverse geocoding failed", logger.Data{"key": key})
		return "", false
	}

	c.mu.Lock()
	c.cache[key] = cachedEntry{place: place, cachedAt: time.Now()}
	c.mu.Unlock()
	return place, true
}

func (c *Client) lookup(ctx context.Context, p location.Point) (string, error) {
	u := fmt.Sprintf("%s/reverse?lat=%s&lon=%s&format=json&zoom=10",
		c.baseURL,
		url.QueryEscape(fmt.Sprintf("%v", p.Latitude)),
		url.QueryEscape(fmt.Sprintf("%v", p.Longitude)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", fmt.Sprintf("nameback/%s (https://github.com/securityronin/nameback)", version.Version))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var data nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", err
	}

	place := formatAddress(data)
	if place == "" {
		return "", fmt.Errorf("no usable address for %.4f,%.4f", p.Latitude, p.Longitude)
	}
	return place, nil
}

func formatAddress(data nominatimResponse) string {
	a := data.Address

	city := firstNonEmpty(a.City, a.Town, a.Village, a.Hamlet, a.Suburb)

	// US/Canada get the state; everywhere else the country reads better.
	var region string
	switch a.CountryCode {
	case "us", "ca":
		region = a.State
	default:
		region = a.Country
	}
	if region == "" {
		region = a.Country
	}

	switch {
	case city != "" && region != "":
		region = cleanPlace(region)
		if a.CountryCode == "us" {
			if abbrev, ok := usStateAbbrevs[strings.ToLower(strings.ReplaceAll(region, "_", " "))]; ok {
				region = abbrev
			}
		}
		return cleanPlace(city) + "_" + region
	case city != "":
		return cleanPlace(city)
	case region != "":
		return cleanPlace(region)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// cleanPlace maps a place name onto filename-safe tokens joined by
// underscores.
func cleanPlace(s string) string {
	var parts []string
	var current strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return strings.Join(parts, "_")
}

var usStateAbbrevs = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT",
	"delaware": "DE", "florida": "FL", "georgia": "GA", "hawaii": "HI",
	"idaho": "ID", "illinois": "IL", "indiana": "IN", "iowa": "IA",
	"kansas": "KS", "kentucky": "KY", "louisiana": "LA", "maine": "ME",
	"maryland": "MD", "massachusetts": "MA", "michigan": "MI",
	"minnesota": "MN", "mississippi": "MS", "missouri": "MO",
	"montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM",
	"new york": "NY", "north carolina": "NC", "north dakota": "ND",
	"ohio": "OH", "oklahoma": "OK", "oregon": "OR", "pennsylvania": "PA",
	"rhode island": "RI", "south carolina": "SC", "south dakota": "SD",
	"tennessee": "TN", "texas": "TX", "utah": "UT", "vermont": "VT",
	"virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY",
}
