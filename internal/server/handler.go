package server

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/cricwidget/gateway/internal/metrics"
)

// Content types accepted in POST bodies.
const (
	ContentTypeJSON    = "application/json"
	ContentTypeGraphQL = "application/graphql"
)

// Handler executes GraphQL requests sent over HTTP, both as POST bodies and
// as GET query parameters.
type Handler struct {
	Schema *graphql.Schema
	// Playground, when set, answers browser GETs that carry no query.
	Playground http.Handler
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

type params struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// requestError is a malformed request, answered without executing anything.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

// allowedMethods is sent in the Allow header of OPTIONS and 405 answers.
const allowedMethods = "GET, POST, OPTIONS"

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Set("Allow", allowedMethods)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if h.Playground != nil && r.Method == http.MethodGet && r.URL.Query().Get("query") == "" && acceptsHTML(r) {
		h.Playground.ServeHTTP(w, r)
		return
	}

	p, err := parseRequest(r)
	if err != nil {
		h.Metrics.ObserveOperation(metrics.OperationRejected)
		status := http.StatusBadRequest
		var rerr *requestError
		if errors.As(err, &rerr) {
			status = rerr.status
		}
		if status == http.StatusMethodNotAllowed {
			w.Header().Set("Allow", allowedMethods)
		}
		h.logger().Debug("rejected graphql request", zap.Error(err), requestIDField(r.Context()))
		writeErrors(w, status, err.Error())
		return
	}

	response := h.Schema.Exec(r.Context(), p.Query, p.OperationName, p.Variables)
	if len(response.Errors) > 0 {
		h.Metrics.ObserveOperation(metrics.OperationFieldErrors)
	} else {
		h.Metrics.ObserveOperation(metrics.OperationOK)
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(responseJSON)
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func parseRequest(r *http.Request) (params, error) {
	var p params
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		p.Query = q.Get("query")
		p.OperationName = q.Get("operationName")
		if vars := q.Get("variables"); vars != "" {
			if err := json.Unmarshal([]byte(vars), &p.Variables); err != nil {
				return params{}, &requestError{http.StatusBadRequest, "invalid variables: " + err.Error()}
			}
		}

	case http.MethodPost:
		if r.Body == nil {
			return params{}, &requestError{http.StatusBadRequest, "request body is required"}
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return params{}, &requestError{http.StatusRequestEntityTooLarge, "request body too large"}
			}
			return params{}, &requestError{http.StatusBadRequest, "reading body: " + err.Error()}
		}

		switch contentType(r) {
		case ContentTypeGraphQL:
			p.Query = string(body)
		case ContentTypeJSON, "":
			if err := json.Unmarshal(body, &p); err != nil {
				return params{}, &requestError{http.StatusBadRequest, "invalid JSON body: " + err.Error()}
			}
		default:
			return params{}, &requestError{http.StatusUnsupportedMediaType, "unsupported content type: " + r.Header.Get("Content-Type")}
		}

	default:
		return params{}, &requestError{http.StatusMethodNotAllowed, "unsupported HTTP method: " + r.Method}
	}

	if strings.TrimSpace(p.Query) == "" {
		return params{}, &requestError{http.StatusBadRequest, "a non-empty 'query' is required"}
	}
	return p, nil
}

func contentType(r *http.Request) string {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ct
	}
	return mt
}

func acceptsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, ContentTypeJSON)
}

func writeErrors(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"errors": []map[string]string{{"message": msg}},
	})
}
