package simulation

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines the simulated fleet.
type Config struct {
	StationCount int
	StationIDs   []string
	Interval     time.Duration
	TopicPrefix  string
	Seed         int64
}

// yamlConfig is the file representation; the interval is a duration string.
type yamlConfig struct {
	StationCount int      `yaml:"station_count"`
	StationIDs   []string `yaml:"station_ids"`
	Interval     string   `yaml:"interval"`
	TopicPrefix  string   `yaml:"topic_prefix"`
	Seed         int64    `yaml:"seed"`
}

// LoadConfig loads the simulator configuration from yaml or env. A yaml
// file named by SIMULATOR_CONFIG overrides the env defaults.
func LoadConfig() (Config, error) {
	cfg := Config{
		StationCount: getenvIntDefault("SIMULATOR_STATIONS", 3),
		Interval:     getenvDurationDefault("SIMULATOR_INTERVAL", defaultInterval),
		TopicPrefix:  getenvDefault("SIMULATOR_TOPIC_PREFIX", defaultTopicPrefix),
		Seed:         getenvInt64Default("SIMULATOR_SEED", 0),
	}
	cfg.StationIDs = splitCSV(os.Getenv("SIMULATOR_STATION_IDS"))

	if path := os.Getenv("SIMULATOR_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		var file yamlConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return cfg, err
		}
		if file.StationCount > 0 {
			cfg.StationCount = file.StationCount
		}
		if len(file.StationIDs) > 0 {
			cfg.StationIDs = file.StationIDs
		}
		if file.Interval != "" {
			parsed, err := time.ParseDuration(file.Interval)
			if err != nil {
				return cfg, fmt.Errorf("simulator: bad interval %q: %w", file.Interval, err)
			}
			cfg.Interval = parsed
		}
		if file.TopicPrefix != "" {
			cfg.TopicPrefix = file.TopicPrefix
		}
		if file.Seed != 0 {
			cfg.Seed = file.Seed
		}
	}

	if len(cfg.StationIDs) == 0 {
		if cfg.StationCount <= 0 {
			return cfg, errors.New("simulator: station count must be positive")
		}
		for i := 1; i <= cfg.StationCount; i++ {
			cfg.StationIDs = append(cfg.StationIDs, fmt.Sprintf("station-%02d", i))
		}
	}
	cfg.StationCount = len(cfg.StationIDs)
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = defaultTopicPrefix
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvInt64Default(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDurationDefault(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
