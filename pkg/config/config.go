// Package config holds the runtime configuration for every firefleet
// process, loaded from YAML with environment overrides.
package config

import (
	"fmt"
	"time"

	"github.com/emberops/firefleet/pkg/transport"
)

// Config is the complete configuration tree.
type Config struct {
	Coordinator CoordinatorConfig `yaml:"coordinator"`
	Unit        UnitConfig        `yaml:"unit"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// CoordinatorConfig drives the dispatch engine.
type CoordinatorConfig struct {
	SendPort    int    `yaml:"send_port"`
	ReceivePort int    `yaml:"receive_port"`
	ZoneFile    string `yaml:"zone_file"`

	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
	CleanupDelay      time.Duration `yaml:"cleanup_delay"`
	ProactiveInterval time.Duration `yaml:"proactive_interval"`
	ProactiveDelay    time.Duration `yaml:"proactive_delay"`
	SnapshotInterval  time.Duration `yaml:"snapshot_interval"`
	WorkerPoolSize    int           `yaml:"worker_pool_size"`

	DerivedZones DerivedZoneConfig `yaml:"derived_zones"`
}

// DerivedZoneConfig places zones created implicitly from a raw id.
type DerivedZoneConfig struct {
	StrideX int `yaml:"stride_x"`
	StrideY int `yaml:"stride_y"`
	OriginX int `yaml:"origin_x"`
	OriginY int `yaml:"origin_y"`
}

// UnitConfig drives the mission engine and the airframe spec.
type UnitConfig struct {
	MaxSpeed       float64       `yaml:"max_speed"`
	Acceleration   float64       `yaml:"acceleration"`
	Deceleration   float64       `yaml:"deceleration"`
	NozzleOpen     time.Duration `yaml:"nozzle_open"`
	FlowRate       float64       `yaml:"flow_rate"`
	FullCapacity   float64       `yaml:"full_capacity"`
	BatteryMinutes float64       `yaml:"battery_minutes"`
	RefillRate     float64       `yaml:"refill_rate"`

	FrameInterval    time.Duration `yaml:"frame_interval"`
	MaxMovementTime  time.Duration `yaml:"max_movement_time"`
	MaxDropAgentTime time.Duration `yaml:"max_drop_agent_time"`
}

// IngestConfig drives the event replay process.
type IngestConfig struct {
	SendPort        int           `yaml:"send_port"`
	ReceivePort     int           `yaml:"receive_port"`
	AckTimeout      time.Duration `yaml:"ack_timeout"`
	InterEventDelay time.Duration `yaml:"inter_event_delay"`
}

// LoggingConfig selects console log level and color.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	NoColor bool   `yaml:"no_color"`
}

// Validate checks the configuration for internally consistent values.
func (c *Config) Validate() error {
	if c.Coordinator.SendPort <= 0 || c.Coordinator.ReceivePort <= 0 {
		return fmt.Errorf("coordinator ports must be positive")
	}
	if c.Coordinator.SendPort == c.Coordinator.ReceivePort {
		return fmt.Errorf("coordinator send and receive ports must differ")
	}
	if c.Coordinator.CleanupInterval <= 0 || c.Coordinator.ProactiveInterval <= 0 {
		return fmt.Errorf("coordinator timer intervals must be positive")
	}
	if c.Coordinator.WorkerPoolSize <= 0 {
		return fmt.Errorf("worker pool size must be positive")
	}
	if c.Unit.MaxSpeed <= 0 {
		return fmt.Errorf("unit max speed must be positive")
	}
	if c.Unit.Acceleration <= 0 || c.Unit.Deceleration <= 0 {
		return fmt.Errorf("unit acceleration and deceleration must be positive")
	}
	if c.Unit.FlowRate <= 0 {
		return fmt.Errorf("unit flow rate must be positive")
	}
	if c.Unit.FullCapacity <= 0 {
		return fmt.Errorf("unit capacity must be positive")
	}
	if c.Unit.FrameInterval <= 0 {
		return fmt.Errorf("unit frame interval must be positive")
	}
	if c.Unit.MaxMovementTime <= 0 || c.Unit.MaxDropAgentTime <= 0 {
		return fmt.Errorf("unit watchdog timeouts must be positive")
	}
	if c.Ingest.AckTimeout <= 0 {
		return fmt.Errorf("ingest ack timeout must be positive")
	}
	return nil
}

// GetDefaultConfig returns the stock configuration.
func GetDefaultConfig() *Config {
	return &Config{
		Coordinator: CoordinatorConfig{
			SendPort:          transport.CoordinatorSendPort,
			ReceivePort:       transport.CoordinatorReceivePort,
			ZoneFile:          "zones.txt",
			CleanupInterval:   15 * time.Second,
			CleanupDelay:      5 * time.Second,
			ProactiveInterval: 3 * time.Second,
			ProactiveDelay:    3 * time.Second,
			SnapshotInterval:  time.Second,
			WorkerPoolSize:    4,
			DerivedZones: DerivedZoneConfig{
				StrideX: 40,
				StrideY: 40,
				OriginX: 200,
				OriginY: 200,
			},
		},
		Unit: UnitConfig{
			MaxSpeed:         10,
			Acceleration:     2,
			Deceleration:     2,
			NozzleOpen:       500 * time.Millisecond,
			FlowRate:         5,
			FullCapacity:     40,
			BatteryMinutes:   30,
			RefillRate:       4,
			FrameInterval:    50 * time.Millisecond,
			MaxMovementTime:  30 * time.Second,
			MaxDropAgentTime: 15 * time.Second,
		},
		Ingest: IngestConfig{
			SendPort:        transport.IngestSendPort,
			ReceivePort:     transport.IngestReceivePort,
			AckTimeout:      time.Second,
			InterEventDelay: 100 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
