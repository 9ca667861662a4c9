package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultAstuceURL is the next-departure endpoint of the Rouen network site.
const DefaultAstuceURL = "https://www.reseau-astuce.fr/fr/horaires-a-larret/28/StopTimeTable/NextDeparture"

const (
	DefaultPort             = 8080
	DefaultScheduleTimeout  = 10 * time.Second
	DefaultSyncInterval     = 3 * time.Minute
	DefaultMaxSnapshotBytes = 50_000_000
	DefaultSnapshotFilePath = "data/preferences.json"
	DefaultSnapshotSQLiteDB = "data/preferences.db"
)

// Config is the whole deployment configuration, read from a YAML document.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Topology    []TopologyRule    `yaml:"topology" validate:"dive"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	Persistence PersistenceConfig `yaml:"persistence"`
}

type ServerConfig struct {
	Port    int    `yaml:"port" validate:"gt=0,lt=65536"`
	Env     string `yaml:"env" validate:"omitempty,oneof=development staging production testing"`
	SkillID string `yaml:"skill_id"`
}

// CatalogConfig names where stop reference data comes from. Exactly one of
// NetworkCSV and GTFSURL is used; NetworkCSV wins when both are set.
type CatalogConfig struct {
	NetworkCSV string           `yaml:"network_csv" validate:"required_without=GTFSURL"`
	GTFSURL    string           `yaml:"gtfs_url" validate:"omitempty,url"`
	GTFS       GTFSImportConfig `yaml:"gtfs"`
}

// GTFSImportConfig shapes a catalog built from a GTFS static bundle.
// Keys of Sections and Aliases are GTFS stop codes.
type GTFSImportConfig struct {
	OriginStopCode string              `yaml:"origin_stop_code"`
	StopCodes      []string            `yaml:"stop_codes"`
	Sections       map[string]int      `yaml:"sections"`
	Aliases        map[string][]string `yaml:"aliases"`
}

// TopologyRule overrides the positional direction rule for one ordered pair of sections.
type TopologyRule struct {
	FromSection int `yaml:"from" validate:"gt=0"`
	ToSection   int `yaml:"to" validate:"gt=0"`
	Direction   int `yaml:"direction" validate:"oneof=1 2"`
}

type ScheduleConfig struct {
	Provider   string        `yaml:"provider" validate:"oneof=astuce gtfsrt oba"`
	LineID     int           `yaml:"line_id" validate:"gt=0"`
	Timeout    time.Duration `yaml:"timeout" validate:"gte=0"`
	MaxRetries int           `yaml:"max_retries" validate:"gte=0,lte=5"`
	Astuce     AstuceConfig  `yaml:"astuce"`
	GTFSRT     GTFSRTConfig  `yaml:"gtfsrt"`
	OBA        OBAConfig     `yaml:"oba"`
}

type AstuceConfig struct {
	URL string `yaml:"url" validate:"omitempty,url"`
}

type GTFSRTConfig struct {
	TripUpdatesURL string `yaml:"trip_updates_url" validate:"omitempty,url"`
	RouteID        string `yaml:"route_id"`
	APIHeader      string `yaml:"api_header"`
	APIKey         string `yaml:"api_key"`
}

// OBAConfig points at a OneBusAway server. Headsigns maps a direction (1 or 2)
// to the trip headsign served in that direction.
type OBAConfig struct {
	BaseURL    string         `yaml:"base_url" validate:"omitempty,url"`
	APIKey     string         `yaml:"api_key"`
	RouteID    string         `yaml:"route_id"`
	StopPrefix string         `yaml:"stop_prefix"`
	Headsigns  map[int]string `yaml:"headsigns"`
}

type PersistenceConfig struct {
	Backend  string        `yaml:"backend" validate:"oneof=file sqlite postgres"`
	Path     string        `yaml:"path"`
	DSN      string        `yaml:"dsn"`
	Interval time.Duration `yaml:"interval" validate:"gte=0"`
	MaxBytes int           `yaml:"max_bytes" validate:"gte=0"`
}

// DefaultTopology is the section table of the Rouen tram: section 1 is the
// shared trunk through the city, 2 and 3 are the two southern branches.
func DefaultTopology() []TopologyRule {
	return []TopologyRule{
		{FromSection: 1, ToSection: 2, Direction: 1},
		{FromSection: 1, ToSection: 3, Direction: 1},
		{FromSection: 2, ToSection: 1, Direction: 2},
		{FromSection: 3, ToSection: 1, Direction: 2},
		{FromSection: 2, ToSection: 3, Direction: 1},
		{FromSection: 3, ToSection: 2, Direction: 1},
	}
}

// Parse decodes a YAML document, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode YAML: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if len(cfg.Topology) == 0 {
		cfg.Topology = DefaultTopology()
	}
	if cfg.Schedule.Provider == "" {
		cfg.Schedule.Provider = "astuce"
	}
	if cfg.Schedule.Timeout == 0 {
		cfg.Schedule.Timeout = DefaultScheduleTimeout
	}
	if cfg.Schedule.Provider == "astuce" && cfg.Schedule.Astuce.URL == "" {
		cfg.Schedule.Astuce.URL = DefaultAstuceURL
	}
	if cfg.Persistence.Backend == "" {
		cfg.Persistence.Backend = "file"
	}
	if cfg.Persistence.Interval == 0 {
		cfg.Persistence.Interval = DefaultSyncInterval
	}
	if cfg.Persistence.MaxBytes == 0 {
		cfg.Persistence.MaxBytes = DefaultMaxSnapshotBytes
	}
	if cfg.Persistence.Path == "" {
		switch cfg.Persistence.Backend {
		case "file":
			cfg.Persistence.Path = DefaultSnapshotFilePath
		case "sqlite":
			cfg.Persistence.Path = DefaultSnapshotSQLiteDB
		}
	}
}

// Validate checks struct tags, then the rules that depend on the chosen provider or backend.
func (cfg *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch cfg.Schedule.Provider {
	case "gtfsrt":
		if cfg.Schedule.GTFSRT.TripUpdatesURL == "" || cfg.Schedule.GTFSRT.RouteID == "" {
			return fmt.Errorf("invalid configuration: gtfsrt provider needs trip_updates_url and route_id")
		}
	case "oba":
		oba := cfg.Schedule.OBA
		if oba.BaseURL == "" || oba.APIKey == "" || oba.RouteID == "" {
			return fmt.Errorf("invalid configuration: oba provider needs base_url, api_key and route_id")
		}
		if oba.Headsigns[1] == "" || oba.Headsigns[2] == "" {
			return fmt.Errorf("invalid configuration: oba provider needs a headsign for directions 1 and 2")
		}
	}

	if cfg.Persistence.Backend == "postgres" && cfg.Persistence.DSN == "" {
		return fmt.Errorf("invalid configuration: postgres backend needs a dsn")
	}
	return nil
}
