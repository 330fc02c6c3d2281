// Package news resolves articles from NewsAPI.
package news

import (
	"context"
	"net/http"
	"net/url"

	"github.com/cricwidget/gateway/internal/apikey"
	"github.com/cricwidget/gateway/internal/upstream"
)

// Name identifies the news upstream in errors, logs and metrics.
const Name = "news"

// DefaultQuery is searched when news is queried without a term.
const DefaultQuery = "cricket"

// Article is an article as NewsAPI reports it.
type Article struct {
	Source struct {
		ID   *string `json:"id"`
		Name string  `json:"name"`
	} `json:"source"`
	Author      *string `json:"author"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	URL         string  `json:"url"`
	URLToImage  *string `json:"urlToImage"`
	PublishedAt string  `json:"publishedAt"`
	Content     *string `json:"content"`
}

type everythingResponse struct {
	Status       string     `json:"status"`
	Code         string     `json:"code"`
	Message      string     `json:"message"`
	TotalResults int        `json:"totalResults"`
	Articles     []*Article `json:"articles"`
}

// Client talks to the NewsAPI v2 everything endpoint.
type Client struct {
	api *upstream.Client
}

// NewClient wraps an upstream client rooted at the NewsAPI v2 base URL.
func NewClient(api *upstream.Client) *Client {
	return &Client{api: api}
}

// Everything searches all articles for query, newest first.
func (c *Client) Everything(ctx context.Context, key, query string) ([]*Article, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("sortBy", "publishedAt")
	q.Set("apiKey", key)

	var resp everythingResponse
	if err := c.api.GetJSON(ctx, "/everything", q, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "error" {
		return nil, &upstream.Error{Upstream: Name, StatusCode: http.StatusOK, Message: resp.Message}
	}
	return resp.Articles, nil
}

// NewsResolver owns the news field of Query.
type NewsResolver struct {
	client *Client
}

// NewResolver returns the Query resolver for the news domain.
func NewResolver(c *Client) *NewsResolver {
	return &NewsResolver{client: c}
}

// Domain names the resolver in registration errors.
func (r *NewsResolver) Domain() string { return Name }

// QueryFields lists the Query fields this resolver answers.
func (r *NewsResolver) QueryFields() []string { return []string{"news"} }

// News resolves news(query: String).
func (r *NewsResolver) News(ctx context.Context, args struct{ Query *string }) (*[]*articleResolver, error) {
	query := DefaultQuery
	if args.Query != nil && *args.Query != "" {
		query = *args.Query
	}
	as, err := r.client.Everything(ctx, apikey.FromContext(ctx).News, query)
	if err != nil {
		return nil, err
	}
	out := make([]*articleResolver, 0, len(as))
	for _, a := range as {
		if a != nil {
			out = append(out, &articleResolver{a: a})
		}
	}
	return &out, nil
}

type articleResolver struct {
	a *Article
}

func (r *articleResolver) Title() string { return r.a.Title }
func (r *articleResolver) Description() *string { return r.a.Description }
func (r *articleResolver) URL() string { return r.a.URL }
func (r *articleResolver) URLToImage() *string { return r.a.URLToImage }
func (r *articleResolver) Author() *string { return r.a.Author }
func (r *articleResolver) PublishedAt() string { return r.a.PublishedAt }

func (r *articleResolver) Source() *string {
	if r.a.Source.Name == "" {
		return nil
	}
	return &r.a.Source.Name
}
