package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/kubenetlabs/doubler/internal/cache"
	"github.com/kubenetlabs/doubler/internal/doubler"
	"github.com/kubenetlabs/doubler/internal/metrics"
	"github.com/kubenetlabs/doubler/pkg/types"
)

// DoubleHandler serves POST /api/double. Cache and Metrics may be nil.
type DoubleHandler struct {
	Cache   *cache.Cache
	Metrics *metrics.Metrics
}

// Double decodes {"value": n} and answers {"result": 2n}.
func (h *DoubleHandler) Double(w http.ResponseWriter, r *http.Request) {
	if !isJSONContent(r.Header.Get("Content-Type")) {
		writeError(w, http.StatusUnsupportedMediaType, "content type must be application/json")
		return
	}

	value, status, err := decodeValue(r.Body)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	if result, ok := h.Cache.Get(value); ok {
		h.Metrics.ObserveDouble(metrics.OutcomeCacheHit)
		w.Header().Set("X-Cache", "HIT")
		writeJSON(w, http.StatusOK, types.DoubleResponse{Result: result})
		return
	}

	result, err := doubler.Double(value)
	if err != nil {
		h.Metrics.ObserveDouble(metrics.OutcomeOverflow)
		slog.Debug("double rejected", "value", value, "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.Metrics.ObserveDouble(metrics.OutcomeOK)

	if h.Cache != nil {
		h.Cache.Set(value, result)
		w.Header().Set("X-Cache", "MISS")
	}
	writeJSON(w, http.StatusOK, types.DoubleResponse{Result: result})
}

// decodeValue reads exactly one JSON object from body and returns its
// value field, or the status code and error to report. The key must be
// spelled exactly "value" and may appear only once.
func decodeValue(body io.Reader) (int64, int, error) {
	if body == nil {
		return 0, http.StatusBadRequest, errors.New("request body is required")
	}

	dec := json.NewDecoder(body)
	tok, err := dec.Token()
	if err != nil {
		return 0, decodeStatus(err), decodeError(err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return 0, http.StatusBadRequest, errors.New("invalid request body: expected a JSON object")
	}

	var raw json.RawMessage
	seen := false
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return 0, decodeStatus(err), decodeError(unexpectedEOF(err))
		}
		key, _ := tok.(string)

		var field json.RawMessage
		if err := dec.Decode(&field); err != nil {
			return 0, decodeStatus(err), decodeError(unexpectedEOF(err))
		}
		if key != "value" {
			continue
		}
		if seen {
			return 0, http.StatusBadRequest, errors.New("invalid request body: duplicate field value")
		}
		seen = true
		raw = field
	}
	if _, err := dec.Token(); err != nil {
		return 0, decodeStatus(err), decodeError(unexpectedEOF(err))
	}

	if _, err := dec.Token(); err != io.EOF {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return 0, http.StatusRequestEntityTooLarge, decodeError(err)
		}
		return 0, http.StatusBadRequest, errors.New("invalid request body: unexpected data after JSON object")
	}

	if !seen || string(raw) == "null" {
		return 0, http.StatusBadRequest, errors.New("value is required")
	}
	var req types.DoubleRequest
	if err := json.Unmarshal(raw, &req.Value); err != nil {
		return 0, http.StatusBadRequest, errors.New("invalid request body: value must be an integer")
	}
	return req.Value, http.StatusOK, nil
}

// unexpectedEOF turns a clean EOF inside an object into io.ErrUnexpectedEOF
// so a truncated body is not reported as a missing one.
func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func decodeStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func decodeError(err error) error {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return errors.New("request body is required")
	case errors.As(err, &maxErr):
		return errors.New("request body too large")
	default:
		return errors.New("invalid request body: " + err.Error())
	}
}

// isJSONContent accepts application/json and any +json media type.
func isJSONContent(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
