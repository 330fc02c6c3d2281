// Package weather resolves current conditions from the OpenWeather API.
package weather

import (
	"context"
	"net/url"

	"github.com/cricwidget/gateway/internal/apikey"
	"github.com/cricwidget/gateway/internal/upstream"
)

// Name identifies the weather upstream in errors, logs and metrics.
const Name = "weather"

// Report is the Weather GraphQL type.
type Report struct {
	City        string
	Temperature float64
	FeelsLike   float64
	Humidity    int32
	Description string
	Icon        string
	WindSpeed   float64
}

type currentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int32   `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Client talks to the OpenWeather current weather endpoint.
type Client struct {
	api *upstream.Client
}

// NewClient wraps an upstream client rooted at the OpenWeather 2.5 API.
func NewClient(api *upstream.Client) *Client {
	return &Client{api: api}
}

// Current returns the current conditions in city, in metric units. The key
// is sent as is, so an empty key fails upstream.
func (c *Client) Current(ctx context.Context, key, city string) (*Report, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", key)
	q.Set("units", "metric")

	var resp currentResponse
	if err := c.api.GetJSON(ctx, "/weather", q, &resp); err != nil {
		return nil, err
	}

	r := &Report{
		City:        resp.Name,
		Temperature: resp.Main.Temp,
		FeelsLike:   resp.Main.FeelsLike,
		Humidity:    resp.Main.Humidity,
		WindSpeed:   resp.Wind.Speed,
	}
	if r.City == "" {
		r.City = city
	}
	if len(resp.Weather) > 0 {
		r.Description = resp.Weather[0].Description
		r.Icon = resp.Weather[0].Icon
	}
	return r, nil
}

// Lookup resolves the weather of a city with the key found in ctx. Other
// domains use it to attach weather to their own types.
func (c *Client) Lookup(ctx context.Context, city string) (*Report, error) {
	return c.Current(ctx, apikey.FromContext(ctx).Weather, city)
}

// WeatherResolver owns the weather field of Query.
type WeatherResolver struct {
	client *Client
}

// NewResolver returns the Query resolver for the weather domain.
func NewResolver(c *Client) *WeatherResolver {
	return &WeatherResolver{client: c}
}

// Domain names the resolver in registration errors.
func (r *WeatherResolver) Domain() string { return Name }

// QueryFields lists the Query fields this resolver answers.
func (r *WeatherResolver) QueryFields() []string { return []string{"weather"} }

// Weather resolves weather(city: String!).
func (r *WeatherResolver) Weather(ctx context.Context, args struct{ City string }) (*Report, error) {
	return r.client.Lookup(ctx, args.City)
}
