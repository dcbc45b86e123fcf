package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/cellscan-cli/internal/batch"
	"github.com/sells-group/cellscan-cli/internal/batterycode"
	"github.com/sells-group/cellscan-cli/internal/model"
	"github.com/sells-group/cellscan-cli/internal/store"
	"github.com/sells-group/cellscan-cli/internal/tracker"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type decodeRequest struct {
	Code string `json:"code"`
}

type decodeResponse struct {
	batterycode.Result
	Symbology string          `json:"symbology"`
	LookupURL string          `json:"lookup_url"`
	FirstSeen *bool           `json:"first_seen,omitempty"`
	Events    []tracker.Event `json:"events,omitempty"`
}

type batchRequest struct {
	Codes []string `json:"codes"`
}

type batchResponse struct {
	Results []batterycode.Result `json:"results"`
	Summary batch.Summary        `json:"summary"`
}

type validateResponse struct {
	Code    string `json:"code"`
	Valid   bool   `json:"valid"`
	Lengths []int  `json:"lengths"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// codeParam returns the unescaped {code} path segment.
func codeParam(r *http.Request) string {
	raw := chi.URLParam(r, "code")
	if code, err := url.PathUnescape(raw); err == nil {
		return code
	}
	return raw
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	code := codeParam(r)
	writeJSON(w, http.StatusOK, validateResponse{
		Code:    code,
		Valid:   s.decoder.Validate(code),
		Lengths: s.decoder.Validator().Lengths(),
	})
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	res := s.decoder.DecodeBatteryCode(req.Code)
	resp := decodeResponse{
		Result:    res,
		Symbology: res.Symbology(),
		LookupURL: batterycode.LookupURL(req.Code),
	}

	if s.tracker != nil {
		out, err := s.tracker.Track(r.Context(), res, Source)
		if err != nil {
			zap.L().Error("api: track scan", zap.String("code", req.Code), zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "scan could not be recorded")
			return
		}
		resp.FirstSeen = &out.FirstSeen
		resp.Events = out.Events
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDecodeBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Codes) == 0 {
		writeError(w, http.StatusBadRequest, "codes is required")
		return
	}
	if len(req.Codes) > s.cfg.MaxBatch {
		errorf(w, http.StatusRequestEntityTooLarge, "at most %d codes per request", s.cfg.MaxBatch)
		return
	}

	results, sum, err := s.runner.DecodeAll(r.Context(), req.Codes)
	if err != nil {
		zap.L().Error("api: batch decode", zap.Int("codes", len(req.Codes)), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "batch could not be recorded")
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: results, Summary: sum})
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	target := batterycode.LookupURL(codeParam(r))
	if r.URL.Query().Get("redirect") == "true" {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": target})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		writeError(w, http.StatusServiceUnavailable, "scan tracking is disabled")
		return
	}
	stats, err := s.tracker.Stats(r.Context())
	if err != nil {
		zap.L().Error("api: stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		writeError(w, http.StatusServiceUnavailable, "scan tracking is disabled")
		return
	}

	q := r.URL.Query()
	filter := store.ScanFilter{Code: q.Get("code")}
	switch status := strings.ToUpper(q.Get("status")); status {
	case "":
	case string(model.ScanStatusValid), string(model.ScanStatusInvalid):
		filter.Status = model.ScanStatus(status)
	default:
		errorf(w, http.StatusBadRequest, "unknown status %q", q.Get("status"))
		return
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				errorf(w, http.StatusBadRequest, "invalid %s %q", name, v)
				return
			}
			*dst = n
		}
	}

	scans, err := s.tracker.Store().ListScans(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list scans", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "scans unavailable")
		return
	}
	if scans == nil {
		scans = []model.ScanRecord{}
	}
	writeJSON(w, http.StatusOK, scans)
}
