package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"airwatch-platform/internal/models"
	"airwatch-platform/internal/repository"
	"airwatch-platform/internal/services"
	"airwatch-platform/pkg/logging"
	"airwatch-platform/pkg/metrics"
)

const (
	defaultHistoryHours = 24
	maxHistoryHours     = 720
	maxBodyBytes        = 1 << 20
)

// BuildInfo is reported by the index and health endpoints
type BuildInfo struct {
	Environment string
	Version     string
}

// AirQualityHandler handles the air quality API endpoints
type AirQualityHandler struct {
	airQuality *services.AirQualityService
	profiles   *services.ProfileService
	info       BuildInfo
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
	now        func() time.Time
}

// NewAirQualityHandler creates a new air quality handler
func NewAirQualityHandler(
	airQuality *services.AirQualityService,
	profiles *services.ProfileService,
	info BuildInfo,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *AirQualityHandler {
	return &AirQualityHandler{
		airQuality: airQuality,
		profiles:   profiles,
		info:       info,
		logger:     logger,
		metrics:    metricsCollector,
		now:        time.Now,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HistoryResponse is the body of GET /api/location/{location_id}/history
type HistoryResponse struct {
	Location string                    `json:"location"`
	Hours    int                       `json:"hours,omitempty"`
	Start    string                    `json:"start"`
	End      string                    `json:"end"`
	Data     []*models.LocationReading `json:"data"`
}

// profileRequest accepts both user_id and the older userId spelling
type profileRequest struct {
	models.UserProfile
	LegacyUserID string `json:"userId"`
}

// Index handles GET /
func (h *AirQualityHandler) Index(w http.ResponseWriter, r *http.Request) {
	defer h.observe("/").ObserveDuration()

	locations := make([]string, 0, len(models.Locations()))
	for _, loc := range models.Locations() {
		locations = append(locations, loc.String())
	}

	h.metrics.RecordAPIRequest("/", "GET", "200")
	h.sendJSON(w, map[string]interface{}{
		"message": "AirWatch Backend API",
		"version": h.info.Version,
		"endpoints": map[string]string{
			"health":                "/health",
			"currentNYC":            "/api/aqi/nyc/current",
			"stationsNYC":           "/api/aqi/nyc/stations",
			"stationNYC":            "/api/aqi/nyc/station/:stationId",
			"healthRecommendations": "/api/aqi/health-recommendations",
			"locationCurrent":       "/api/location/:locationId/current",
			"locationHistory":       "/api/location/:locationId/history",
			"locationReadings":      "/api/location/:locationId/readings",
			"locationInsights":      "/api/insights/:locationId",
			"userProfile":           "/api/users/profile",
			"healthRisk":            "/api/users/profile/:userId/health-risk",
			"databaseStats":         "/api/database/stats",
			"docs":                  "/api/docs",
			"metrics":               "/metrics",
		},
		"locations":     locations,
		"documentation": "/api/docs",
	}, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *AirQualityHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":      "OK",
		"timestamp":   h.now().UTC().Format(time.RFC3339),
		"environment": h.info.Environment,
		"version":     h.info.Version,
		"database":    "ok",
	}
	code := http.StatusOK

	if err := h.airQuality.HealthCheck(ctx); err != nil {
		h.logger.Warn(ctx, "[HEALTH_CHECK_DEGRADED] Database unreachable", logging.Fields{
			"error": err.Error(),
		})
		status["status"] = "DEGRADED"
		status["database"] = "unavailable"
		code = http.StatusServiceUnavailable
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, code)
}

// CurrentCity handles GET /api/aqi/nyc/current
func (h *AirQualityHandler) CurrentCity(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/aqi/nyc/current"
	defer h.observe(endpoint).ObserveDuration()

	overview := h.airQuality.CurrentCity(r.Context())

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, overview, http.StatusOK)
}

// Stations handles GET /api/aqi/nyc/stations
func (h *AirQualityHandler) Stations(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/aqi/nyc/stations"
	defer h.observe(endpoint).ObserveDuration()

	readings := h.airQuality.RefreshStations(r.Context())

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, map[string]interface{}{"stations": readings}, http.StatusOK)
}

// Station handles GET /api/aqi/nyc/station/{station_id}
func (h *AirQualityHandler) Station(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/aqi/nyc/station"
	defer h.observe(endpoint).ObserveDuration()

	reading, err := h.airQuality.StationReading(mux.Vars(r)["station_id"])
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, reading, http.StatusOK)
}

// HealthRecommendations handles GET /api/aqi/health-recommendations
func (h *AirQualityHandler) HealthRecommendations(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/aqi/health-recommendations"
	defer h.observe(endpoint).ObserveDuration()

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, h.airQuality.HealthRecommendations(), http.StatusOK)
}

// SaveProfile handles POST /api/users/profile
func (h *AirQualityHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/users/profile"
	defer h.observe(endpoint).ObserveDuration()

	var req profileRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.metrics.RecordAPIError("bad_request", endpoint)
		h.sendError(w, r, endpoint, "invalid JSON body", http.StatusBadRequest)
		return
	}

	profile := req.UserProfile
	if profile.UserID == "" {
		profile.UserID = req.LegacyUserID
	}

	saved, err := h.profiles.SaveProfile(r.Context(), &profile)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "POST", "200")
	h.sendJSON(w, map[string]interface{}{
		"message": "User profile saved successfully",
		"profile": saved,
	}, http.StatusOK)
}

// GetProfile handles GET /api/users/profile/{user_id}
func (h *AirQualityHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/users/profile/{user_id}"
	defer h.observe(endpoint).ObserveDuration()

	profile, err := h.profiles.GetProfile(r.Context(), mux.Vars(r)["user_id"])
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, profile, http.StatusOK)
}

// HealthRisk handles GET /api/users/profile/{user_id}/health-risk
func (h *AirQualityHandler) HealthRisk(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/users/profile/{user_id}/health-risk"
	defer h.observe(endpoint).ObserveDuration()

	risk, err := h.profiles.AssessHealthRisk(r.Context(), mux.Vars(r)["user_id"])
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, risk, http.StatusOK)
}

// LocationCurrent handles GET /api/location/{location_id}/current
func (h *AirQualityHandler) LocationCurrent(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/location/{location_id}/current"
	defer h.observe(endpoint).ObserveDuration()

	loc, err := models.ParseLocation(mux.Vars(r)["location_id"])
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	reading, err := h.airQuality.LatestForLocation(r.Context(), loc)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, reading, http.StatusOK)
}

// LocationHistory handles GET /api/location/{location_id}/history
func (h *AirQualityHandler) LocationHistory(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/location/{location_id}/history"
	defer h.observe(endpoint).ObserveDuration()

	loc, err := models.ParseLocation(mux.Vars(r)["location_id"])
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	window, hours, err := parseWindow(r.URL.Query(), h.now())
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	rows, err := h.airQuality.HistoryForLocation(r.Context(), loc, window)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	start, end := window.Bounds()

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, HistoryResponse{
		Location: loc.String(),
		Hours:    hours,
		Start:    start,
		End:      end,
		Data:     rows,
	}, http.StatusOK)
}

// RecordReading handles POST /api/location/{location_id}/readings
func (h *AirQualityHandler) RecordReading(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/location/{location_id}/readings"
	defer h.observe(endpoint).ObserveDuration()

	loc, err := models.ParseLocation(mux.Vars(r)["location_id"])
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	stored, err := h.airQuality.RecordLocationReading(r.Context(), loc)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "POST", "201")
	h.sendJSON(w, stored, http.StatusCreated)
}

// LocationInsight handles GET /api/insights/{location_id}
func (h *AirQualityHandler) LocationInsight(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/insights/{location_id}"
	defer h.observe(endpoint).ObserveDuration()

	loc, err := models.ParseLocation(mux.Vars(r)["location_id"])
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	out, err := h.airQuality.InsightForLocation(r.Context(), loc)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, out, http.StatusOK)
}

// DatabaseStats handles GET /api/database/stats
func (h *AirQualityHandler) DatabaseStats(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/database/stats"
	defer h.observe(endpoint).ObserveDuration()

	stats, err := h.airQuality.DatabaseStats(r.Context())
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, "GET", "200")
	h.sendJSON(w, map[string]interface{}{
		"message":          "Database statistics",
		"stats":            stats.Flatten(),
		"location_mapping": models.LocationMapping(),
	}, http.StatusOK)
}

// parseWindow reads ?start=&end= (RFC3339) or ?hours= (default 24)
func parseWindow(q url.Values, now time.Time) (models.TimeWindow, int, error) {
	startStr, endStr := q.Get("start"), q.Get("end")

	if startStr != "" || endStr != "" {
		if startStr == "" || endStr == "" {
			return models.TimeWindow{}, 0, &models.ValidationError{
				Field:   "start",
				Message: "start and end must be given together",
			}
		}
		start, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return models.TimeWindow{}, 0, &models.ValidationError{Field: "start", Value: startStr, Message: "invalid start, expected RFC3339"}
		}
		end, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return models.TimeWindow{}, 0, &models.ValidationError{Field: "end", Value: endStr, Message: "invalid end, expected RFC3339"}
		}
		if end.Before(start) {
			return models.TimeWindow{}, 0, &models.ValidationError{Field: "end", Value: endStr, Message: "end must not be before start"}
		}
		return models.TimeWindow{Start: start.UTC(), End: end.UTC()}, 0, nil
	}

	hours := defaultHistoryHours
	if s := q.Get("hours"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxHistoryHours {
			return models.TimeWindow{}, 0, &models.ValidationError{
				Field:   "hours",
				Value:   s,
				Message: fmt.Sprintf("invalid hours, expected integer between 1 and %d", maxHistoryHours),
			}
		}
		hours = n
	}

	return models.LastHours(now, hours), hours, nil
}

// handleError maps domain errors onto HTTP status codes
func (h *AirQualityHandler) handleError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	var (
		validationErr *models.ValidationError
		notFoundErr   *repository.NotFoundError
	)

	switch {
	case errors.Is(err, models.ErrInvalidLocation):
		h.metrics.RecordAPIError("invalid_location", endpoint)
		h.sendError(w, r, endpoint, "Invalid location", http.StatusBadRequest)
	case errors.As(err, &validationErr):
		h.metrics.RecordAPIError("validation_error", endpoint)
		h.sendError(w, r, endpoint, validationErr.Message, http.StatusBadRequest)
	case errors.As(err, &notFoundErr):
		h.metrics.RecordAPIError("not_found", endpoint)
		h.sendError(w, r, endpoint, notFoundErr.Error(), http.StatusNotFound)
	default:
		h.logger.Error(r.Context(), "[API_ERROR] Request failed", logging.Fields{
			"endpoint": endpoint,
			"method":   r.Method,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, endpoint, "internal server error", http.StatusInternalServerError)
	}
}

func (h *AirQualityHandler) observe(endpoint string) *metrics.Timer {
	return h.metrics.NewTimer(h.metrics.APIRequestDuration.WithLabelValues(endpoint))
}

// sendJSON sends a JSON response
func (h *AirQualityHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	if err := writeJSON(w, data, statusCode); err != nil {
		h.logger.Debug(context.Background(), "[API_WRITE_FAILED] Response body not written", logging.Fields{
			"status": statusCode,
			"error":  err.Error(),
		})
	}
}

// sendError sends an error response. endpoint is the route template, never
// the raw path, so caller-supplied ids do not mint new series.
func (h *AirQualityHandler) sendError(w http.ResponseWriter, r *http.Request, endpoint, message string, statusCode int) {
	h.metrics.RecordAPIRequest(endpoint, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// RegisterRoutes registers all air quality API routes
func (h *AirQualityHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Index).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	router.HandleFunc("/api/aqi/nyc/current", h.CurrentCity).Methods("GET")
	router.HandleFunc("/api/aqi/nyc/stations", h.Stations).Methods("GET")
	router.HandleFunc("/api/aqi/nyc/station/{station_id}", h.Station).Methods("GET")
	router.HandleFunc("/api/aqi/health-recommendations", h.HealthRecommendations).Methods("GET")

	router.HandleFunc("/api/users/profile", h.SaveProfile).Methods("POST")
	router.HandleFunc("/api/users/profile/{user_id}", h.GetProfile).Methods("GET")
	router.HandleFunc("/api/users/profile/{user_id}/health-risk", h.HealthRisk).Methods("GET")

	router.HandleFunc("/api/location/{location_id}/current", h.LocationCurrent).Methods("GET")
	router.HandleFunc("/api/location/{location_id}/history", h.LocationHistory).Methods("GET")
	router.HandleFunc("/api/location/{location_id}/readings", h.RecordReading).Methods("POST")
	router.HandleFunc("/api/insights/{location_id}", h.LocationInsight).Methods("GET")

	router.HandleFunc("/api/database/stats", h.DatabaseStats).Methods("GET")
}
