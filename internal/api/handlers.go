package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pcchou102/cwa-weather/internal/service"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Service       *service.Service
	Logger        *slog.Logger
	StartTime     time.Time
	StorageDriver string
	Version       string
}

// apiError is a JSON error response.
type apiError struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg, Code: status})
}

// parseTTL reads the optional ttl query parameter. Absent means the
// service default; "0" bypasses the cache entirely.
func parseTTL(r *http.Request) (time.Duration, error) {
	s := r.URL.Query().Get("ttl")
	if s == "" {
		return service.DefaultTTL, nil
	}
	if s == "0" {
		return service.NoCache, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid ttl %q (expected a duration like 10m)", s)
	}
	return d, nil
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// ListLocations handles GET /api/v1/locations
func (h *Handlers) ListLocations(w http.ResponseWriter, r *http.Request) {
	names := h.Service.Locations(r.Context())

	type locationsResponse struct {
		Count     int      `json:"count"`
		Locations []string `json:"locations"`
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, locationsResponse{
		Count:     len(names),
		Locations: names,
	})
}

// GetWeather handles GET /api/v1/weather/{location}
func (h *Handlers) GetWeather(w http.ResponseWriter, r *http.Request) {
	location := r.PathValue("location")
	if location == "" {
		writeError(w, http.StatusBadRequest, "missing location")
		return
	}

	ttl, err := parseTTL(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec := h.Service.TemperatureInfo(r.Context(), location, ttl)
	if rec == nil {
		writeError(w, http.StatusNotFound, "no data for location")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListWeather handles GET /api/v1/weather
func (h *Handlers) ListWeather(w http.ResponseWriter, r *http.Request) {
	recs := h.Service.AllLatest(r.Context())

	type weatherResponse struct {
		Count   int `json:"count"`
		Records any `json:"records"`
	}
	if recs == nil {
		writeJSON(w, http.StatusOK, weatherResponse{Count: 0, Records: []any{}})
		return
	}
	writeJSON(w, http.StatusOK, weatherResponse{Count: len(recs), Records: recs})
}

// Refresh handles POST /api/v1/refresh
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	result := h.Service.CrawlAll(r.Context())
	status := http.StatusOK
	if result.Succeeded == 0 && result.Failed == 0 {
		// Nothing resolved at all: upstream fetch failed outright.
		status = http.StatusBadGateway
	}
	writeJSON(w, status, result)
}

// Health handles GET /api/v1/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	type dbHealth struct {
		Driver          string `json:"driver"`
		Status          string `json:"status"`
		SizeBytes       int64  `json:"size_bytes"`
		TotalRecords    int    `json:"total_records"`
		UniqueLocations int    `json:"unique_locations"`
	}
	type healthResponse struct {
		Status   string    `json:"status"`
		Version  string    `json:"version"`
		Uptime   string    `json:"uptime"`
		Database *dbHealth `json:"database,omitempty"`
	}

	resp := healthResponse{
		Status:  "healthy",
		Version: h.Version,
		Uptime:  formatUptime(time.Since(h.StartTime)),
	}

	if stats := h.Service.Statistics(r.Context()); stats != nil {
		resp.Database = &dbHealth{
			Driver:          h.StorageDriver,
			Status:          "ok",
			SizeBytes:       stats.SizeBytes,
			TotalRecords:    stats.TotalRecords,
			UniqueLocations: stats.UniqueLocations,
		}
	} else if h.StorageDriver != "" {
		resp.Database = &dbHealth{Driver: h.StorageDriver, Status: "unavailable"}
	}

	writeJSON(w, http.StatusOK, resp)
}
