package cricket

import (
	"context"
	"net/http"
	"net/url"

	"github.com/cricwidget/gateway/internal/upstream"
)

// Name identifies the cricket upstream in errors, logs and metrics.
const Name = "cricket"

// Match is a match as CricAPI reports it.
type Match struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	MatchType    string   `json:"matchType"`
	Status       string   `json:"status"`
	Venue        string   `json:"venue"`
	Date         string   `json:"date"`
	DateTimeGMT  string   `json:"dateTimeGMT"`
	Teams        []string `json:"teams"`
	Score        []*Score `json:"score"`
	MatchStarted bool     `json:"matchStarted"`
	MatchEnded   bool     `json:"matchEnded"`
}

// Score is one innings: runs, wickets and overs.
type Score struct {
	Inning string  `json:"inning"`
	R      int32   `json:"r"`
	W      int32   `json:"w"`
	O      float64 `json:"o"`
}

// envelope wraps every CricAPI answer. The API replies 200 even on failure
// and puts the cause in Reason.
type envelope struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (e envelope) err() error {
	if e.Status == "" || e.Status == "success" {
		return nil
	}
	reason := e.Reason
	if reason == "" {
		reason = e.Status
	}
	return &upstream.Error{Upstream: Name, StatusCode: http.StatusOK, Message: reason}
}

// Client talks to CricAPI v1.
type Client struct {
	api *upstream.Client
}

// NewClient wraps an upstream client rooted at the CricAPI v1 base URL.
func NewClient(api *upstream.Client) *Client {
	return &Client{api: api}
}

// CurrentMatches lists the matches CricAPI currently tracks.
func (c *Client) CurrentMatches(ctx context.Context, key string) ([]*Match, error) {
	q := url.Values{}
	q.Set("apikey", key)
	q.Set("offset", "0")

	var resp struct {
		envelope
		Data []*Match `json:"data"`
	}
	if err := c.api.GetJSON(ctx, "/currentMatches", q, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// MatchInfo returns one match. A successful answer without data yields nil.
func (c *Client) MatchInfo(ctx context.Context, key, id string) (*Match, error) {
	q := url.Values{}
	q.Set("apikey", key)
	q.Set("id", id)

	var resp struct {
		envelope
		Data *Match `json:"data"`
	}
	if err := c.api.GetJSON(ctx, "/match_info", q, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
