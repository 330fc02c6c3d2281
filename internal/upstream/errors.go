package upstream

import (
	"fmt"
	"net/http"
)

// Error is returned when an upstream answers with a failure, either through
// its HTTP status or, for APIs that always answer 200, through a failure
// envelope. The GraphQL engine copies Extensions into the field error it
// reports.
type Error struct {
	Upstream   string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode >= 200 && e.StatusCode <= 299 {
		return fmt.Sprintf("%s: upstream reported failure: %s", e.Upstream, e.Message)
	}
	if e.Message == "" {
		return fmt.Sprintf("%s: upstream returned %d %s", e.Upstream, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s: upstream returned %d: %s", e.Upstream, e.StatusCode, e.Message)
}

// Extensions provides additional error context according to the spec
// https://spec.graphql.org/October2021/#sel-GAPHRPZCAACCBx6b.
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{
		"code":     "UPSTREAM_ERROR",
		"upstream": e.Upstream,
		"status":   e.StatusCode,
	}
}

// errorBody covers the error envelopes of the supported APIs: OpenWeather
// and NewsAPI use "message", CricAPI uses "reason".
type errorBody struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

func (b errorBody) text() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Reason
}
