package simulation

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	telemetry "swapstation-cloud/internal/telemetry/domain"
)

const (
	probChargeComplete = 0.20
	probSwap           = 0.15
	probEnterMaint     = 0.01
	probExitMaint      = 0.10

	tempMin     = 15.0
	tempMax     = 35.0
	humidityMin = 20.0
	humidityMax = 80.0
)

// Station models one battery-swap station evolving under a random walk.
// All randomness flows through the injected source so runs are
// reproducible under a fixed seed.
type Station struct {
	id              string
	rng             *rand.Rand
	batteryAvail    int
	batteryCharging int
	temperature     float64
	humidity        float64
	status          string
	totalSwapsToday int
	lastSwapTime    string
}

// NewStation creates a station with randomized initial conditions.
func NewStation(id string, rng *rand.Rand) *Station {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Station{
		id:              id,
		rng:             rng,
		batteryAvail:    8 + rng.Intn(8),
		batteryCharging: 2 + rng.Intn(5),
		temperature:     20 + rng.Float64()*10,
		humidity:        30 + rng.Float64()*30,
		status:          telemetry.StatusOperational,
		totalSwapsToday: rng.Intn(51),
		lastSwapTime:    time.Now().UTC().Format(time.RFC3339),
	}
}

// ID returns the station identifier.
func (s *Station) ID() string { return s.id }

// Update advances the station by one tick. Transitions fire in a fixed
// order so a seeded run is reproducible tick for tick.
func (s *Station) Update(now time.Time) {
	if s.batteryCharging > 0 && s.rng.Float64() < probChargeComplete {
		s.batteryCharging--
		s.batteryAvail++
	}

	if s.batteryAvail > 0 && s.rng.Float64() < probSwap {
		s.batteryAvail--
		s.batteryCharging++
		s.totalSwapsToday++
		s.lastSwapTime = now.UTC().Format(time.RFC3339)
	}

	s.temperature = clamp(s.temperature+(s.rng.Float64()-0.5), tempMin, tempMax)
	s.humidity = clamp(s.humidity+(s.rng.Float64()-0.5)*4, humidityMin, humidityMax)

	switch s.status {
	case telemetry.StatusOperational:
		if s.rng.Float64() < probEnterMaint {
			s.status = telemetry.StatusMaintenance
		}
	case telemetry.StatusMaintenance:
		if s.rng.Float64() < probExitMaint {
			s.status = telemetry.StatusOperational
		}
	}
}

// Snapshot projects the current state into a wire-shape record. Sensor
// readings are reported at one decimal place.
func (s *Station) Snapshot(now time.Time) telemetry.RawRecord {
	record := telemetry.RawRecord{
		telemetry.FieldStationID:        s.id,
		telemetry.FieldBatteryAvailable: float64(s.batteryAvail),
		telemetry.FieldBatteryCharging:  float64(s.batteryCharging),
		telemetry.FieldTemperature:      roundTenth(s.temperature),
		telemetry.FieldHumidity:         roundTenth(s.humidity),
		telemetry.FieldStatus:           s.status,
		telemetry.FieldTotalSwapsToday:  float64(s.totalSwapsToday),
		telemetry.FieldTimestamp:        now.UTC().Format(time.RFC3339),
	}
	if s.lastSwapTime != "" {
		record[telemetry.FieldLastSwapTime] = s.lastSwapTime
	}
	return record
}

// Topic returns the station's publish topic under the given prefix.
func (s *Station) Topic(prefix string) string {
	return fmt.Sprintf("%s/%s/telemetry", prefix, s.id)
}

func clamp(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}

func roundTenth(value float64) float64 {
	return math.Round(value*10) / 10
}
