package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"swapstation-cloud/internal/observability/metrics"
	telemetry "swapstation-cloud/internal/telemetry/domain"
)

const defaultQueryPageSize = 100

// QueryService reads current station state from the fast store. It shares
// nothing with the ingestion path beyond the store itself.
type QueryService struct {
	states   telemetry.StateStore
	pageSize int
}

// QueryOption configures the query service.
type QueryOption func(*QueryService)

// WithPageSize overrides the scan page size.
func WithPageSize(size int) QueryOption {
	return func(s *QueryService) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// NewQueryService constructs a query service.
func NewQueryService(states telemetry.StateStore, opts ...QueryOption) (*QueryService, error) {
	if states == nil {
		return nil, errors.New("query service: nil state store")
	}
	s := &QueryService{states: states, pageSize: defaultQueryPageSize}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ListStations returns every row in the fast store, following pagination
// tokens until the store reports none remain. Order is store-native.
func (s *QueryService) ListStations(ctx context.Context) ([]telemetry.StationState, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveQuery("list_stations", result, time.Since(start))
	}()

	var all []telemetry.StationState
	token := ""
	for {
		page, next, err := s.states.List(ctx, token, s.pageSize)
		if err != nil {
			result = metrics.ResultError
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		token = next
	}
}

// GetStation returns the state for one station, or nil when the station is
// unknown. Absence is a valid result, not an error.
func (s *QueryService) GetStation(ctx context.Context, stationID string) (*telemetry.StationState, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveQuery("get_station", result, time.Since(start))
	}()

	// Lookup is by the verbatim key; only a blank id is rejected.
	if strings.TrimSpace(stationID) == "" {
		result = metrics.ResultError
		return nil, errors.New("query service: empty station id")
	}

	state, err := s.states.Get(ctx, stationID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return state, nil
}
