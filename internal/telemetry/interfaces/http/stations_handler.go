package stationhttp

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"swapstation-cloud/internal/telemetry/application"
	telemetry "swapstation-cloud/internal/telemetry/domain"
)

// StationsHandler serves the station query API:
//
//	GET /stations          list all stations
//	GET /stations/{id}     one station
//	OPTIONS *              CORS preflight
type StationsHandler struct {
	queries *application.QueryService
	logger  *log.Logger
}

// NewStationsHandler constructs a stations handler.
func NewStationsHandler(queries *application.QueryService, logger *log.Logger) (*StationsHandler, error) {
	if queries == nil {
		return nil, errors.New("stations handler: nil query service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &StationsHandler{queries: queries, logger: logger}, nil
}

// ServeHTTP routes station queries.
func (h *StationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusOK, map[string]string{"message": "CORS preflight response"})
		return
	}
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("Method not allowed", "Method "+r.Method+" not supported"))
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/stations")
	switch {
	case rest == "":
		h.handleList(w, r)
	case strings.HasPrefix(rest, "/"):
		stationID := strings.TrimPrefix(rest, "/")
		if strings.Contains(stationID, "/") {
			writeJSON(w, http.StatusNotFound, errorBody("Not found", "Path "+r.URL.Path+" not found"))
			return
		}
		h.handleGet(w, r, stationID)
	default:
		writeJSON(w, http.StatusNotFound, errorBody("Not found", "Path "+r.URL.Path+" not found"))
	}
}

func (h *StationsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	stations, err := h.queries.ListStations(r.Context())
	if err != nil {
		h.logger.Printf("list stations: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("Internal server error", "Failed to retrieve stations"))
		return
	}
	if stations == nil {
		stations = []telemetry.StationState{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(stations),
		"stations": stations,
	})
}

func (h *StationsHandler) handleGet(w http.ResponseWriter, r *http.Request, stationID string) {
	if strings.TrimSpace(stationID) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("Bad request", "station_id is required"))
		return
	}

	station, err := h.queries.GetStation(r.Context(), stationID)
	if err != nil {
		h.logger.Printf("get station %s: %v", stationID, err)
		writeJSON(w, http.StatusInternalServerError, errorBody("Internal server error", "Failed to retrieve station"))
		return
	}
	if station == nil {
		writeJSON(w, http.StatusNotFound, errorBody("Not found", "Station "+stationID+" not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"station": station})
}

// NotFoundHandler answers paths no other handler claims, with the same CORS
// and body conventions as the station routes.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		if r.Method == http.MethodOptions {
			writeJSON(w, http.StatusOK, map[string]string{"message": "CORS preflight response"})
			return
		}
		writeJSON(w, http.StatusNotFound, errorBody("Not found", "Path "+r.URL.Path+" not found"))
	})
}

func setCORSHeaders(w http.ResponseWriter) {
	header := w.Header()
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	header.Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func errorBody(kind, message string) map[string]string {
	return map[string]string{"error": kind, "message": message}
}
