// Package placesearch looks up restaurants by keyword through the Kakao local
// search API.
package placesearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bobvengers/mapmate/internal/domain/assemble"
	"github.com/bobvengers/mapmate/internal/domain/collection"
	"github.com/bobvengers/mapmate/internal/infrastructure/apiclient"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

const keywordPath = "/v2/local/search/keyword.json"

// SearchTimeout bounds one search call. Unlike the backend gateway, the
// search service is third party and a stalled call should not hang the CLI.
var SearchTimeout = 10 * time.Second

// ErrMissingAPIKey is returned when no REST API key is configured
var ErrMissingAPIKey = errors.New("place search needs a Kakao REST API key (set KAKAO_REST_API_KEY)")

// Place is one search hit
type Place struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Address     string  `json:"address" yaml:"address"`
	RoadAddress string  `json:"roadAddress,omitempty" yaml:"roadAddress,omitempty"`
	Category    string  `json:"category,omitempty" yaml:"category,omitempty"`
	Phone       string  `json:"phone,omitempty" yaml:"phone,omitempty"`
	Latitude    float64 `json:"latitude" yaml:"latitude"`
	Longitude   float64 `json:"longitude" yaml:"longitude"`
}

// RestaurantInfo converts the hit for map creation
func (p Place) RestaurantInfo() collection.RestaurantInfo {
	return collection.RestaurantInfo{Name: p.Name, Address: p.Address}
}

// AssemblePlace converts the hit for a new assemble post
func (p Place) AssemblePlace() assemble.Place {
	return assemble.Place{Name: p.Name, Address: p.Address}
}

type document struct {
	ID              string `json:"id"`
	PlaceName       string `json:"place_name"`
	AddressName     string `json:"address_name"`
	RoadAddressName string `json:"road_address_name"`
	CategoryName    string `json:"category_name"`
	Phone           string `json:"phone"`
	X               string `json:"x"`
	Y               string `json:"y"`
}

type keywordResponse struct {
	Documents []document `json:"documents"`
}

// Client searches places
type Client struct {
	api    *apiclient.Client
	logger *zap.Logger
}

// New creates a Kakao search client. The API key travels as
// "Authorization: KakaoAK <key>" on every request.
func New(baseURL, apiKey string, logger *zap.Logger, opts ...apiclient.Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	api, err := apiclient.New(apiclient.Config{
		BaseURL:   baseURL,
		UserAgent: "mapmate-places/1.0",
		Headers:   map[string]string{"Authorization": "KakaoAK " + apiKey},
	}, logger, append([]apiclient.Option{apiclient.WithHTTPClient(&http.Client{Timeout: SearchTimeout})}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("creating place search client: %w", err)
	}
	return &Client{api: api, logger: logger.Named("places")}, nil
}

// NormalizeKeyword trims the keyword and converts it to Unicode NFC, so
// decomposed Hangul typed on some keyboards matches the composed form.
func NormalizeKeyword(keyword string) string {
	return norm.NFC.String(strings.TrimSpace(keyword))
}

// Search returns places matching keyword. A blank keyword returns no results
// without calling the service.
func (c *Client) Search(ctx context.Context, keyword string) ([]Place, error) {
	keyword = NormalizeKeyword(keyword)
	if keyword == "" {
		return nil, nil
	}

	var resp keywordResponse
	if err := c.api.Get(ctx, keywordPath, map[string]string{"query": keyword}, &resp); err != nil {
		return nil, fmt.Errorf("searching places for %q: %w", keyword, err)
	}

	places := make([]Place, 0, len(resp.Documents))
	for _, d := range resp.Documents {
		p := Place{
			ID:          d.ID,
			Name:        d.PlaceName,
			Address:     d.AddressName,
			RoadAddress: d.RoadAddressName,
			Category:    d.CategoryName,
			Phone:       d.Phone,
		}
		var err error
		if p.Longitude, err = parseCoord(d.X); err != nil {
			c.logger.Debug("bad longitude in search result", zap.String("id", d.ID), zap.Error(err))
		}
		if p.Latitude, err = parseCoord(d.Y); err != nil {
			c.logger.Debug("bad latitude in search result", zap.String("id", d.ID), zap.Error(err))
		}
		places = append(places, p)
	}
	return places, nil
}

func parseCoord(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
