package cricket_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cricwidget/gateway/internal/cricket"
	"github.com/cricwidget/gateway/internal/fakeupstream"
	"github.com/cricwidget/gateway/internal/upstream"
)

func newClient(t *testing.T) *cricket.Client {
	srv := fakeupstream.NewCricket(t)
	return cricket.NewClient(upstream.New(cricket.Name, srv.URL))
}

func TestCurrentMatches(t *testing.T) {
	ms, err := newClient(t).CurrentMatches(context.Background(), fakeupstream.CricketKey)
	require.NoError(t, err)
	require.Len(t, ms, 2)

	m := ms[0]
	assert.Equal(t, "m-1", m.ID)
	assert.Equal(t, "Wankhede Stadium, Mumbai", m.Venue)
	assert.Equal(t, []string{"India", "Australia"}, m.Teams)
	require.Len(t, m.Score, 2)
	assert.Equal(t, &cricket.Score{Inning: "Australia Inning 1", R: 188, W: 10, O: 35.4}, m.Score[0])
	assert.True(t, m.MatchEnded)
}

func TestMatchInfo(t *testing.T) {
	m, err := newClient(t).MatchInfo(context.Background(), fakeupstream.CricketKey, "m-2")
	require.NoError(t, err)
	assert.Equal(t, "England vs New Zealand, 2nd Test", m.Name)
	assert.Empty(t, m.Score)
}

func TestFailureEnvelope(t *testing.T) {
	c := newClient(t)

	_, err := c.CurrentMatches(context.Background(), "")
	var uerr *upstream.Error
	require.True(t, errors.As(err, &uerr), "got %v", err)
	assert.Equal(t, "Invalid API Key", uerr.Message)
	assert.Equal(t, "cricket: upstream reported failure: Invalid API Key", uerr.Error())

	_, err = c.MatchInfo(context.Background(), fakeupstream.CricketKey, "missing")
	require.True(t, errors.As(err, &uerr), "got %v", err)
	assert.Equal(t, "Match not found", uerr.Message)
}

func TestVenueCity(t *testing.T) {
	tests := map[string]string{
		"Wankhede Stadium, Mumbai":                    "Mumbai",
		"Lord's, London":                              "London",
		"Sheikh Zayed Stadium, Abu Dhabi, UAE":        "UAE",
		"Ground, Melbourne, Australia":                "Australia",
		"Eden Gardens":                                "Eden Gardens",
		"  ":                                          "",
		"":                                            "",
		"Dubai International Cricket Stadium, Dubai ": "Dubai",
	}
	for venue, want := range tests {
		assert.Equal(t, want, cricket.VenueCity(venue), venue)
	}
}
