package apikey_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cricwidget/gateway/internal/apikey"
	"github.com/cricwidget/gateway/internal/config"
)

func TestRoundTrip(t *testing.T) {
	keys := config.Keys{Cricket: "c", Weather: "w", News: "n"}
	ctx := apikey.NewContext(context.Background(), keys)
	assert.Equal(t, keys, apikey.FromContext(ctx))
}

func TestMissing(t *testing.T) {
	assert.Equal(t, config.Keys{}, apikey.FromContext(context.Background()))
}
