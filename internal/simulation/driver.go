package simulation

import (
	"context"
	"errors"
	"log"
	"time"

	"swapstation-cloud/internal/eventing"
	"swapstation-cloud/internal/observability/metrics"
)

const (
	defaultInterval    = 5 * time.Second
	defaultTopicPrefix = "ev/station"
)

// TelemetryPublisher hands a station record to the transport.
type TelemetryPublisher interface {
	Publish(ctx context.Context, meta eventing.Meta, event any) error
}

// Driver ticks a fleet of simulated stations and publishes one record per
// station per tick. A publish failure is logged and skipped; the tick
// continues with the remaining stations.
type Driver struct {
	stations    []*Station
	publisher   TelemetryPublisher
	interval    time.Duration
	topicPrefix string
	logger      *log.Logger
}

// DriverOption customizes a Driver.
type DriverOption func(*Driver)

// WithInterval overrides the tick interval.
func WithInterval(interval time.Duration) DriverOption {
	return func(d *Driver) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

// WithTopicPrefix overrides the publish topic prefix.
func WithTopicPrefix(prefix string) DriverOption {
	return func(d *Driver) {
		if prefix != "" {
			d.topicPrefix = prefix
		}
	}
}

// NewDriver constructs a simulation driver.
func NewDriver(stations []*Station, publisher TelemetryPublisher, logger *log.Logger, opts ...DriverOption) (*Driver, error) {
	if len(stations) == 0 {
		return nil, errors.New("simulation driver: no stations")
	}
	if publisher == nil {
		return nil, errors.New("simulation driver: nil publisher")
	}
	if logger == nil {
		logger = log.Default()
	}
	driver := &Driver{
		stations:    stations,
		publisher:   publisher,
		interval:    defaultInterval,
		topicPrefix: defaultTopicPrefix,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(driver)
	}
	return driver, nil
}

// Run ticks the fleet until ctx is cancelled. The first tick fires after
// one interval, matching a station that boots and then starts reporting.
func (d *Driver) Run(ctx context.Context) error {
	d.logger.Printf("simulation driver started stations=%d interval=%s", len(d.stations), d.interval)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Printf("simulation driver stopped")
			return ctx.Err()
		case now := <-ticker.C:
			d.Tick(ctx, now)
		}
	}
}

// Tick advances every station once and publishes its snapshot in fleet
// order. Publishes run on a detached context: cancellation stops the next
// tick, not the publishes already in flight within this one.
func (d *Driver) Tick(ctx context.Context, now time.Time) {
	pubCtx := context.WithoutCancel(ctx)
	for _, station := range d.stations {
		station.Update(now)
		record := station.Snapshot(now)
		meta := eventing.Meta{
			EventID:    eventing.NewEventID(),
			Topic:      station.Topic(d.topicPrefix),
			StationID:  station.ID(),
			OccurredAt: now.UTC(),
		}
		if err := d.publisher.Publish(pubCtx, meta, record); err != nil {
			d.logger.Printf("publish station=%s: %v", station.ID(), err)
			continue
		}
	}
	metrics.IncSimulatorTick()
}
