package gateway_test

import (
	"context"
	"testing"

	"github.com/graph-gophers/graphql-go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cricwidget/gateway/internal/apikey"
	"github.com/cricwidget/gateway/internal/config"
	"github.com/cricwidget/gateway/internal/fakeupstream"
	"github.com/cricwidget/gateway/internal/gateway"
	"github.com/cricwidget/gateway/internal/gqltest"
)

func fakeConfig(t *testing.T) *config.Config {
	srv := fakeupstream.Start(t)
	cfg := config.Default()
	cfg.CricketURL = srv.Cricket.URL
	cfg.WeatherURL = srv.Weather.URL
	cfg.NewsURL = srv.News.URL
	cfg.Tracing = config.TracingNone
	return cfg
}

func allKeys() context.Context {
	return apikey.NewContext(context.Background(), config.Keys{
		Cricket: fakeupstream.CricketKey,
		Weather: fakeupstream.WeatherKey,
		News:    fakeupstream.NewsKey,
	})
}

func upstreamErr(path []interface{}, upstream string, status int, msg string) *errors.QueryError {
	err := gqltest.Errorf(path, "%s", msg)
	err.Extensions = map[string]interface{}{
		"code":     "UPSTREAM_ERROR",
		"upstream": upstream,
		"status":   status,
	}
	return err
}

const invalidWeatherKey = "weather: upstream returned 401: Invalid API key. Please see https://openweathermap.org/faq#error401 for more info."

func TestQueries(t *testing.T) {
	s, err := gateway.NewSchema(fakeConfig(t))
	require.NoError(t, err)

	gqltest.RunTests(t, []*gqltest.Test{
		{
			Name:    "live matches",
			Schema:  s,
			Context: allKeys(),
			Query:   `
				{
					liveMatches {
						id
						name
						matchType
						status
						venue
						teams
						score { inning r w o }
						matchStarted
						matchEnded
					}
				}
			`,
			ExpectedResult: `
				{
					"liveMatches": [
						{
							"id": "m-1",
							"name": "India vs Australia, 1st ODI",
							"matchType": "odi",
							"status": "India won by 5 wkts",
							"venue": "Wankhede Stadium, Mumbai",
							"teams": ["India", "Australia"],
							"score": [
								{"inning": "Australia Inning 1", "r": 188, "w": 10, "o": 35.4},
								{"inning": "India Inning 1", "r": 191, "w": 5, "o": 39.5}
							],
							"matchStarted": true,
							"matchEnded": true
						},
						{
							"id": "m-2",
							"name": "England vs New Zealand, 2nd Test",
							"matchType": "test",
							"status": "Match not started",
							"venue": null,
							"teams": ["England", "New Zealand"],
							"score": [],
							"matchStarted": false,
							"matchEnded": false
						}
					]
				}
			`,
		},
		{
			Name:    "match with venue weather",
			Schema:  s,
			Context: allKeys(),
			Query:   `
				query Match($id: ID!) {
					match(matchId: $id) {
						name
						status
						score { inning r w o }
						weather { city temperature description }
					}
				}
			`,
			Variables:      map[string]interface{}{"id": "m-1"},
			ExpectedResult: `
				{
					"match": {
						"name": "India vs Australia, 1st ODI",
						"status": "India won by 5 wkts",
						"score": [
							{"inning": "Australia Inning 1", "r": 188, "w": 10, "o": 35.4},
							{"inning": "India Inning 1", "r": 191, "w": 5, "o": 39.5}
						],
						"weather": {"city": "Mumbai", "temperature": 31.5, "description": "haze"}
					}
				}
			`,
		},
		{
			Name:    "match without venue has no weather",
			Schema:  s,
			Context: allKeys(),
			Query:   `
				{
					match(matchId: "m-2") {
						id
						weather { city }
					}
				}
			`,
			ExpectedResult: `{"match": {"id": "m-2", "weather": null}}`,
		},
		{
			Name:           "unknown match",
			Schema:         s,
			Context:        allKeys(),
			Query:          `{ match(matchId: "nope") { id } }`,
			ExpectedResult: `{"match": null}`,
			ExpectedErrors: []*errors.QueryError{
				upstreamErr([]interface{}{"match"}, "cricket", 200, "cricket: upstream reported failure: Match not found"),
			},
		},
		{
			Name:           "weather",
			Schema:         s,
			Context:        allKeys(),
			Query:          `{ weather(city: "Mumbai") { city temperature feelsLike humidity description icon windSpeed } }`,
			ExpectedResult: `
				{
					"weather": {
						"city": "Mumbai",
						"temperature": 31.5,
						"feelsLike": 35.2,
						"humidity": 62,
						"description": "haze",
						"icon": "50d",
						"windSpeed": 4.1
					}
				}
			`,
		},
		{
			Name:           "news defaults to cricket",
			Schema:         s,
			Context:        allKeys(),
			Query:          `{ news { title url source author publishedAt } }`,
			ExpectedResult: `
				{
					"news": [
						{
							"title": "Latest on cricket",
							"url": "https://news.example/1",
							"source": "Cricket Daily",
							"author": "A. Writer",
							"publishedAt": "2023-03-17T12:00:00Z"
						},
						{
							"title": "More cricket",
							"url": "https://news.example/2",
							"source": "Wire",
							"author": null,
							"publishedAt": "2023-03-16T09:30:00Z"
						}
					]
				}
			`,
		},
		{
			Name:           "news with query",
			Schema:         s,
			Context:        allKeys(),
			Query:          `{ news(query: "ashes") { title } }`,
			ExpectedResult: `{"news": [{"title": "Latest on ashes"}, {"title": "More ashes"}]}`,
		},
	})
}

func TestMissingWeatherKeyIsAFieldError(t *testing.T) {
	s, err := gateway.NewSchema(fakeConfig(t))
	require.NoError(t, err)

	ctx := apikey.NewContext(context.Background(), config.Keys{
		Cricket: fakeupstream.CricketKey,
		News:    fakeupstream.NewsKey,
	})
	gqltest.RunTest(t, &gqltest.Test{
		Schema:  s,
		Context: ctx,
		Query: `
			{
				weather(city: "Mumbai") { city }
				liveMatches { id }
				news(query: "ipl") { title }
			}
		`,
		ExpectedResult: `
			{
				"weather": null,
				"liveMatches": [{"id": "m-1"}, {"id": "m-2"}],
				"news": [{"title": "Latest on ipl"}, {"title": "More ipl"}]
			}
		`,
		ExpectedErrors: []*errors.QueryError{
			upstreamErr([]interface{}{"weather"}, "weather", 401, invalidWeatherKey),
		},
	})
}

func TestMatchWeatherFailureKeepsMatch(t *testing.T) {
	s, err := gateway.NewSchema(fakeConfig(t))
	require.NoError(t, err)

	ctx := apikey.NewContext(context.Background(), config.Keys{Cricket: fakeupstream.CricketKey})
	gqltest.RunTest(t, &gqltest.Test{
		Schema:         s,
		Context:        ctx,
		Query:          `{ match(matchId: "m-1") { id weather { city } } }`,
		ExpectedResult: `{"match": {"id": "m-1", "weather": null}}`,
		ExpectedErrors: []*errors.QueryError{
			upstreamErr([]interface{}{"match", "weather"}, "weather", 401, invalidWeatherKey),
		},
	})
}

func TestMatchFieldsIgnoreWeatherOutage(t *testing.T) {
	cfg := fakeConfig(t)
	cfg.WeatherURL = "http://127.0.0.1:1"

	s, err := gateway.NewSchema(cfg)
	require.NoError(t, err)

	gqltest.RunTest(t, &gqltest.Test{
		Schema:         s,
		Context:        allKeys(),
		Query:          `{ liveMatches { id name } }`,
		ExpectedResult: `{"liveMatches": [{"id": "m-1", "name": "India vs Australia, 1st ODI"}, {"id": "m-2", "name": "England vs New Zealand, 2nd Test"}]}`,
	})
}

func TestSchemaQueryFieldsAreRegistered(t *testing.T) {
	cfg := fakeConfig(t)
	q := gateway.NewQuery(cfg)

	reg, err := gateway.Merge(q.Domains()...)
	require.NoError(t, err)
	assert.Equal(t, []string{"liveMatches", "match", "news", "weather"}, reg.Fields())

	owner, ok := reg.Owner("match")
	require.True(t, ok)
	assert.Equal(t, "cricket", owner)

	s, err := gateway.Parse(q, config.TracingNone)
	require.NoError(t, err)
	assert.ElementsMatch(t, reg.Fields(), gateway.QueryFields(s))
}

func TestParseWithEachTracer(t *testing.T) {
	cfg := fakeConfig(t)
	for _, name := range []string{config.TracingOTel, config.TracingOpenTracing, config.TracingNone} {
		_, err := gateway.Parse(gateway.NewQuery(cfg), name)
		require.NoError(t, err, name)
	}

	_, err := gateway.Parse(gateway.NewQuery(cfg), "zipkin")
	require.Error(t, err)
}
