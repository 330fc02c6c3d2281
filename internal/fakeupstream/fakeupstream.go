// Package fakeupstream serves canned CricAPI, OpenWeather and NewsAPI
// responses for tests. Each server only accepts its own key and answers a
// wrong or missing key the way the real API does.
package fakeupstream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// Keys accepted by the fake servers.
const (
	CricketKey = "cric-key"
	WeatherKey = "owm-key"
	NewsKey    = "news-key"
)

// Servers groups the three fakes.
type Servers struct {
	Cricket *httptest.Server
	Weather *httptest.Server
	News    *httptest.Server
}

// Start starts all three fakes; they are closed when the test ends.
func Start(t testing.TB) *Servers {
	return &Servers{
		Cricket: NewCricket(t),
		Weather: NewWeather(t),
		News:    NewNews(t),
	}
}

var matches = []map[string]interface{}{
	{
		"id":          "m-1",
		"name":        "India vs Australia, 1st ODI",
		"matchType":   "odi",
		"status":      "India won by 5 wkts",
		"venue":       "Wankhede Stadium, Mumbai",
		"date":        "2023-03-17",
		"dateTimeGMT": "2023-03-17T08:00:00",
		"teams":       []string{"India", "Australia"},
		"score": []map[string]interface{}{
			{"r": 188, "w": 10, "o": 35.4, "inning": "Australia Inning 1"},
			{"r": 191, "w": 5, "o": 39.5, "inning": "India Inning 1"},
		},
		"series_id":    "s-1",
		"matchStarted": true,
		"matchEnded":   true,
	},
	{
		"id":           "m-2",
		"name":         "England vs New Zealand, 2nd Test",
		"matchType":    "test",
		"status":       "Match not started",
		"date":         "2023-03-20",
		"dateTimeGMT":  "2023-03-20T10:00:00",
		"teams":        []string{"England", "New Zealand"},
		"score":        []map[string]interface{}{},
		"matchStarted": false,
		"matchEnded":   false,
	},
}

// NewCricket mimics api.cricapi.com/v1. Failures are reported with HTTP 200
// and a failure envelope, as CricAPI does.
func NewCricket(t testing.TB) *httptest.Server {
	mux := http.NewServeMux()
	fail := func(w http.ResponseWriter, reason string) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "failure", "reason": reason})
	}
	mux.HandleFunc("/currentMatches", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apikey") != CricketKey {
			fail(w, "Invalid API Key")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"apikey": CricketKey,
			"data":   matches,
			"status": "success",
			"info":   map[string]interface{}{"hitsToday": 1, "hitsLimit": 100},
		})
	})
	mux.HandleFunc("/match_info", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apikey") != CricketKey {
			fail(w, "Invalid API Key")
			return
		}
		id := r.URL.Query().Get("id")
		for _, m := range matches {
			if m["id"] == id {
				writeJSON(w, http.StatusOK, map[string]interface{}{"data": m, "status": "success"})
				return
			}
		}
		fail(w, "Match not found")
	})
	return start(t, mux)
}

// NewWeather mimics api.openweathermap.org/data/2.5. Only Mumbai is known.
func NewWeather(t testing.TB) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/weather", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("appid") != WeatherKey {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"cod":     401,
				"message": "Invalid API key. Please see https://openweathermap.org/faq#error401 for more info.",
			})
			return
		}
		if !strings.EqualFold(q.Get("q"), "Mumbai") {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"cod": "404", "message": "city not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"name":    "Mumbai",
			"main":    map[string]interface{}{"temp": 31.5, "feels_like": 35.2, "humidity": 62},
			"weather": []map[string]interface{}{{"main": "Haze", "description": "haze", "icon": "50d"}},
			"wind":    map[string]interface{}{"speed": 4.1},
		})
	})
	return start(t, mux)
}

// NewNews mimics newsapi.org/v2. Article titles echo the search term.
func NewNews(t testing.TB) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/everything", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("apiKey") != NewsKey {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"status":  "error",
				"code":    "apiKeyInvalid",
				"message": "Your API key is invalid or incorrect.",
			})
			return
		}
		term := q.Get("q")
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":       "ok",
			"totalResults": 2,
			"articles": []map[string]interface{}{
				{
					"source":      map[string]interface{}{"id": nil, "name": "Cricket Daily"},
					"author":      "A. Writer",
					"title":       "Latest on " + term,
					"description": "All the " + term + " news.",
					"url":         "https://news.example/1",
					"urlToImage":  "https://news.example/1.jpg",
					"publishedAt": "2023-03-17T12:00:00Z",
					"content":     "...",
				},
				{
					"source":      map[string]interface{}{"id": "wire", "name": "Wire"},
					"author":      nil,
					"title":       "More " + term,
					"description": nil,
					"url":         "https://news.example/2",
					"urlToImage":  nil,
					"publishedAt": "2023-03-16T09:30:00Z",
					"content":     nil,
				},
			},
		})
	})
	return start(t, mux)
}

func start(t testing.TB, h http.Handler) *httptest.Server {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
