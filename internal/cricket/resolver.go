// Package cricket resolves match data from CricAPI.
package cricket

import (
	"context"
	"strings"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/cricwidget/gateway/internal/apikey"
	"github.com/cricwidget/gateway/internal/weather"
)

// WeatherLookup resolves the current weather of a city, taking the key from
// ctx.
type WeatherLookup interface {
	Lookup(ctx context.Context, city string) (*weather.Report, error)
}

// MatchResolver owns the match fields of Query.
type MatchResolver struct {
	client  *Client
	weather WeatherLookup
}

// NewResolver returns the Query resolver for the cricket domain. weather may
// be nil, in which case Match.weather is always null.
func NewResolver(c *Client, weather WeatherLookup) *MatchResolver {
	return &MatchResolver{client: c, weather: weather}
}

// Domain names the resolver in registration errors.
func (r *MatchResolver) Domain() string { return Name }

// QueryFields lists the Query fields this resolver answers.
func (r *MatchResolver) QueryFields() []string { return []string{"liveMatches", "match"} }

// LiveMatches resolves liveMatches.
func (r *MatchResolver) LiveMatches(ctx context.Context) (*[]*matchResolver, error) {
	ms, err := r.client.CurrentMatches(ctx, apikey.FromContext(ctx).Cricket)
	if err != nil {
		return nil, err
	}
	out := make([]*matchResolver, 0, len(ms))
	for _, m := range ms {
		if m != nil {
			out = append(out, &matchResolver{m: m, weather: r.weather})
		}
	}
	return &out, nil
}

// Match resolves match(matchId: ID!).
func (r *MatchResolver) Match(ctx context.Context, args struct{ MatchID graphql.ID }) (*matchResolver, error) {
	m, err := r.client.MatchInfo(ctx, apikey.FromContext(ctx).Cricket, string(args.MatchID))
	if err != nil || m == nil {
		return nil, err
	}
	return &matchResolver{m: m, weather: r.weather}, nil
}

type matchResolver struct {
	m       *Match
	weather WeatherLookup
}

func (r *matchResolver) ID() graphql.ID { return graphql.ID(r.m.ID) }
func (r *matchResolver) Name() string { return r.m.Name }
func (r *matchResolver) MatchType() *string { return optional(r.m.MatchType) }
func (r *matchResolver) Status() string { return r.m.Status }
func (r *matchResolver) Venue() *string { return optional(r.m.Venue) }
func (r *matchResolver) Date() *string { return optional(r.m.Date) }
func (r *matchResolver) DateTimeGMT() *string { return optional(r.m.DateTimeGMT) }
func (r *matchResolver) MatchStarted() bool { return r.m.MatchStarted }
func (r *matchResolver) MatchEnded() bool { return r.m.MatchEnded }

func (r *matchResolver) Teams() []string {
	if r.m.Teams == nil {
		return []string{}
	}
	return r.m.Teams
}

func (r *matchResolver) Score() []*Score {
	out := make([]*Score, 0, len(r.m.Score))
	for _, s := range r.m.Score {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Weather reports the current weather in the city the match is played in.
// Matches without a venue have no weather.
func (r *matchResolver) Weather(ctx context.Context) (*weather.Report, error) {
	city := VenueCity(r.m.Venue)
	if city == "" || r.weather == nil {
		return nil, nil
	}
	return r.weather.Lookup(ctx, city)
}

// VenueCity extracts the city from a CricAPI venue such as
// "Wankhede Stadium, Mumbai": the text after the last comma. It assumes the
// "Ground, City" form; a venue that also names the country, like
// "Melbourne Cricket Ground, Melbourne, Australia", yields the country.
func VenueCity(venue string) string {
	if i := strings.LastIndexByte(venue, ','); i >= 0 {
		venue = venue[i+1:]
	}
	return strings.TrimSpace(venue)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
