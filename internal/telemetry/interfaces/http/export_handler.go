package stationhttp

import (
	"encoding/csv"
	"errors"
	"log"
	"net/http"
	"time"

	"swapstation-cloud/internal/telemetry/application"
	telemetry "swapstation-cloud/internal/telemetry/domain"
)

// FleetExportHandler serves fleet snapshots as downloadable files:
//
//	GET /exports/stations.csv
//	GET /exports/stations.xlsx
//	GET /exports/stations.pdf
type FleetExportHandler struct {
	queries *application.QueryService
	logger  *log.Logger
	now     func() time.Time
}

// NewFleetExportHandler constructs a fleet export handler.
func NewFleetExportHandler(queries *application.QueryService, logger *log.Logger) (*FleetExportHandler, error) {
	if queries == nil {
		return nil, errors.New("fleet export handler: nil query service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FleetExportHandler{queries: queries, logger: logger, now: time.Now}, nil
}

// ServeHTTP routes export requests by file extension.
func (h *FleetExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusOK, map[string]string{"message": "CORS preflight response"})
		return
	}
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("Method not allowed", "Method "+r.Method+" not supported"))
		return
	}

	stations, err := h.queries.ListStations(r.Context())
	if err != nil {
		h.logger.Printf("fleet export: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("Internal server error", "Failed to retrieve stations"))
		return
	}

	switch r.URL.Path {
	case "/exports/stations.csv":
		h.serveCSV(w, stations)
	case "/exports/stations.xlsx":
		h.serveXLSX(w, stations)
	case "/exports/stations.pdf":
		h.servePDF(w, stations)
	default:
		writeJSON(w, http.StatusNotFound, errorBody("Not found", "Path "+r.URL.Path+" not found"))
	}
}

func (h *FleetExportHandler) serveCSV(w http.ResponseWriter, stations []telemetry.StationState) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="stations.csv"`)
	writer := csv.NewWriter(w)
	_ = writer.Write(fleetExportColumns)
	for _, st := range stations {
		_ = writer.Write(fleetExportRow(st))
	}
	writer.Flush()
}

func (h *FleetExportHandler) serveXLSX(w http.ResponseWriter, stations []telemetry.StationState) {
	data, err := BuildFleetXLSX(stations, h.now())
	if err != nil {
		h.logger.Printf("fleet export xlsx: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("Internal server error", "Failed to build export"))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="stations.xlsx"`)
	_, _ = w.Write(data)
}

func (h *FleetExportHandler) servePDF(w http.ResponseWriter, stations []telemetry.StationState) {
	data, err := BuildFleetPDF(stations, h.now())
	if err != nil {
		h.logger.Printf("fleet export pdf: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("Internal server error", "Failed to build export"))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="stations.pdf"`)
	_, _ = w.Write(data)
}
