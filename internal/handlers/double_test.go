package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kubenetlabs/doubler/internal/cache"
	"github.com/kubenetlabs/doubler/internal/metrics"
	"github.com/kubenetlabs/doubler/pkg/types"
)

func postDouble(t *testing.T, h *DoubleHandler, body string, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/double", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.Double(w, req)
	return w
}

func TestDoubleHandler_Double(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		contentType    string
		expectedStatus int
		expectedResult int64
		expectedError  string
	}{
		{name: "positive", body: `{"value": 21}`, contentType: "application/json", expectedStatus: http.StatusOK, expectedResult: 42},
		{name: "negative", body: `{"value": -5}`, contentType: "application/json", expectedStatus: http.StatusOK, expectedResult: -10},
		{name: "zero", body: `{"value": 0}`, contentType: "application/json", expectedStatus: http.StatusOK, expectedResult: 0},
		{name: "no content type", body: `{"value": 7}`, expectedStatus: http.StatusUnsupportedMediaType, expectedError: "content type must be application/json"},
		{name: "json suffix content type", body: `{"value": 8}`, contentType: "application/merge-patch+json", expectedStatus: http.StatusOK, expectedResult: 16},
		{name: "json with charset", body: `{"value": 3}`, contentType: "application/json; charset=utf-8", expectedStatus: http.StatusOK, expectedResult: 6},
		{name: "unknown fields ignored", body: `{"value": 2, "extra": true}`, contentType: "application/json", expectedStatus: http.StatusOK, expectedResult: 4},
		{name: "empty body", body: "", contentType: "application/json", expectedStatus: http.StatusBadRequest, expectedError: "request body is required"},
		{name: "string value", body: `{"value": "abc"}`, contentType: "application/json", expectedStatus: http.StatusBadRequest, expectedError: "invalid request body: value must be an integer"},
		{name: "fractional value", body: `{"value": 1.5}`, contentType: "application/json", expectedStatus: http.StatusBadRequest},
		{name: "value beyond int64", body: `{"value": 9223372036854775808}`, contentType: "application/json", expectedStatus: http.StatusBadRequest},
		{name: "missing value", body: `{}`, contentType: "application/json", expectedStatus: http.StatusBadRequest, expectedError: "value is required"},
		{name: "capitalised key", body: `{"Value": 3}`, contentType: "application/json", expectedStatus: http.StatusBadRequest, expectedError: "value is required"},
		{name: "upper case key", body: `{"VALUE": 3}`, contentType: "application/json", expectedStatus: http.StatusBadRequest, expectedError: "value is required"},
		{name: "exact key next to other casing", body: `{"Value": 3, "value": 4}`, contentType: "application/json", expectedStatus: http.StatusOK, expectedResult: 8},
		{name: "duplicate key", body: `{"value": 1, "value": 2}`, contentType: "application/json", expectedStatus: http.StatusBadRequest, expectedError: "invalid request body: duplicate field value"},
		{name: "nested value", body: `{"value": {"n": 1}}`, contentType: "application/json", expectedStatus: http.StatusBadRequest, expectedError: "invalid request body: value must be an integer"},
		{name: "null body", body: `null`, contentType: "application/json", expectedStatus: http.StatusBadRequest, expectedError: "invalid request body: expected a JSON object"},
		{name: "truncated object", body: `{"value": 1`, contentType: "application/json", expectedStatus: http.StatusBadRequest, expectedError: "invalid request body: unexpected EOF"},
		{name: "trailing comma", body: `{"value": 1,}`, contentType: "application/json", expectedStatus: http.StatusBadRequest},
		{name: "null value", body: `{"value": null}`, contentType: "application/json", expectedStatus: http.StatusBadRequest, expectedError: "value is required"},
		{name: "array body", body: `[1]`, contentType: "application/json", expectedStatus: http.StatusBadRequest, expectedError: "invalid request body: expected a JSON object"},
		{name: "malformed json", body: `{"value": `, contentType: "application/json", expectedStatus: http.StatusBadRequest},
		{name: "trailing data", body: `{"value": 1}{"value": 2}`, contentType: "application/json", expectedStatus: http.StatusBadRequest},
		{name: "overflow", body: `{"value": 4611686018427387904}`, contentType: "application/json", expectedStatus: http.StatusUnprocessableEntity, expectedError: "value out of range"},
		{name: "wrong content type", body: `{"value": 1}`, contentType: "text/plain", expectedStatus: http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postDouble(t, &DoubleHandler{}, tt.body, tt.contentType)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (body %s)", tt.expectedStatus, w.Code, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", ct)
			}

			if tt.expectedStatus == http.StatusOK {
				var resp types.DoubleResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp.Result != tt.expectedResult {
					t.Errorf("expected result %d, got %d", tt.expectedResult, resp.Result)
				}
				return
			}

			var resp types.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if resp.Error == "" {
				t.Error("expected error message")
			}
			if tt.expectedError != "" && resp.Error != tt.expectedError {
				t.Errorf("expected error %q, got %q", tt.expectedError, resp.Error)
			}
		})
	}
}

func TestDoubleHandler_BodyLimit(t *testing.T) {
	h := &DoubleHandler{}
	body := `{"value": 1, "padding": "` + strings.Repeat("x", 128) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/double", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(w, req.Body, 32)

	h.Double(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected status 413, got %d", w.Code)
	}
}

func TestDoubleHandler_Cache(t *testing.T) {
	m := metrics.New()
	h := &DoubleHandler{Cache: cache.New(time.Minute), Metrics: m}

	first := postDouble(t, h, `{"value": 21}`, "application/json")
	if first.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", first.Code)
	}
	if got := first.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("expected X-Cache MISS, got %q", got)
	}

	second := postDouble(t, h, `{"value": 21}`, "application/json")
	if got := second.Header().Get("X-Cache"); got != "HIT" {
		t.Errorf("expected X-Cache HIT, got %q", got)
	}
	var resp types.DoubleResponse
	if err := json.NewDecoder(second.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Result != 42 {
		t.Errorf("expected cached result 42, got %d", resp.Result)
	}

	overflow := postDouble(t, h, `{"value": 9223372036854775807}`, "application/json")
	if overflow.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", overflow.Code)
	}
	if h.Cache.Len() != 1 {
		t.Errorf("expected overflow not to be cached, cache has %d entries", h.Cache.Len())
	}

	count, err := testutil.GatherAndCount(m.Registry(), "doubler_double_operations_total")
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	if count != 3 {
		t.Errorf("expected ok, cache_hit and overflow series, got %d series", count)
	}
}
