package gateway_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cricwidget/gateway/internal/gateway"
)

// concurrencyRecorder answers every weather call slowly and remembers how
// many were in flight at once.
type concurrencyRecorder struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (c *concurrencyRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(30 * time.Millisecond)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"name":"Mumbai","main":{"temp":30},"weather":[{"description":"clear","icon":"01d"}]}`))
}

func TestMaxParallelism(t *testing.T) {
	rec := &concurrencyRecorder{}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	cfg := fakeConfig(t)
	cfg.WeatherURL = srv.URL
	s, err := gateway.NewSchema(cfg, gateway.WithMaxParallelism(1))
	require.NoError(t, err)

	res := s.Exec(allKeys(), `{
		a: weather(city: "Mumbai") { city }
		b: weather(city: "Mumbai") { city }
		c: weather(city: "Mumbai") { city }
	}`, "", nil)
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"a":{"city":"Mumbai"},"b":{"city":"Mumbai"},"c":{"city":"Mumbai"}}`, string(res.Data))
	assert.Equal(t, int32(1), rec.peak.Load())
}
