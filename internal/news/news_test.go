package news_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cricwidget/gateway/internal/apikey"
	"github.com/cricwidget/gateway/internal/config"
	"github.com/cricwidget/gateway/internal/fakeupstream"
	"github.com/cricwidget/gateway/internal/news"
	"github.com/cricwidget/gateway/internal/upstream"
)

func newClient(t *testing.T) *news.Client {
	srv := fakeupstream.NewNews(t)
	return news.NewClient(upstream.New(news.Name, srv.URL))
}

func TestEverything(t *testing.T) {
	as, err := newClient(t).Everything(context.Background(), fakeupstream.NewsKey, "ipl")
	require.NoError(t, err)
	require.Len(t, as, 2)
	assert.Equal(t, "Latest on ipl", as[0].Title)
	assert.Equal(t, "Cricket Daily", as[0].Source.Name)
	require.NotNil(t, as[0].Author)
	assert.Nil(t, as[1].Author)
}

func TestEverythingBadKey(t *testing.T) {
	_, err := newClient(t).Everything(context.Background(), "", "ipl")
	var uerr *upstream.Error
	require.True(t, errors.As(err, &uerr), "got %v", err)
	assert.Equal(t, http.StatusUnauthorized, uerr.StatusCode)
	assert.Equal(t, "Your API key is invalid or incorrect.", uerr.Message)
}

func TestResolverDefaultsQuery(t *testing.T) {
	r := news.NewResolver(newClient(t))
	ctx := apikey.NewContext(context.Background(), config.Keys{News: fakeupstream.NewsKey})

	as, err := r.News(ctx, struct{ Query *string }{})
	require.NoError(t, err)
	require.NotNil(t, as)
	require.Len(t, *as, 2)
	assert.Equal(t, "Latest on "+news.DefaultQuery, (*as)[0].Title())

	term := "ashes"
	as, err = r.News(ctx, struct{ Query *string }{Query: &term})
	require.NoError(t, err)
	assert.Equal(t, "Latest on ashes", (*as)[0].Title())
	assert.Equal(t, "Wire", *(*as)[1].Source())
}
