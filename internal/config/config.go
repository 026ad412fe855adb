package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWebPort      = 9090
	DefaultWSPort       = 9087
	DefaultFPS          = 10
	DefaultDownsample   = 2
	DefaultActionDt     = 0.1
	DefaultCompression  = "zstd"
	DefaultRobotPrefix  = "robot_"
	DefaultDepthMarker  = "_depth"
	DefaultActionEntity = "action"
)

// Config holds visualizer settings that are stable across runs.
// CLI flags override individual fields when explicitly set.
type Config struct {
	WebPort      int     `yaml:"web_port"`
	WSPort       int     `yaml:"ws_port"`
	FPS          int     `yaml:"fps"`
	Downsample   int     `yaml:"downsample"`
	ActionDt     float64 `yaml:"action_dt"`
	Compression  string  `yaml:"compression"`
	RobotPrefix  string  `yaml:"robot_prefix"`
	DepthMarker  string  `yaml:"depth_marker"`
	ActionEntity string  `yaml:"action_entity"`
}

func DefaultConfig() *Config {
	return &Config{
		WebPort:      DefaultWebPort,
		WSPort:       DefaultWSPort,
		FPS:          DefaultFPS,
		Downsample:   DefaultDownsample,
		ActionDt:     DefaultActionDt,
		Compression:  DefaultCompression,
		RobotPrefix:  DefaultRobotPrefix,
		DepthMarker:  DefaultDepthMarker,
		ActionEntity: DefaultActionEntity,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects values no mode could run with. Empty naming rules fall
// back to their defaults so a sparse config file stays usable.
func (c *Config) Validate() error {
	if c.WebPort <= 0 || c.WebPort > 65535 {
		return fmt.Errorf("config: web_port %d out of range", c.WebPort)
	}
	if c.WSPort <= 0 || c.WSPort > 65535 {
		return fmt.Errorf("config: ws_port %d out of range", c.WSPort)
	}
	if c.FPS <= 0 {
		c.FPS = DefaultFPS
	}
	if c.Downsample < 1 {
		return fmt.Errorf("config: downsample %d must be >= 1", c.Downsample)
	}
	if c.ActionDt <= 0 {
		return fmt.Errorf("config: action_dt %v must be positive", c.ActionDt)
	}
	switch c.Compression {
	case "none", "lz4", "zstd":
	default:
		return fmt.Errorf("config: unknown compression %q", c.Compression)
	}
	if c.RobotPrefix == "" {
		c.RobotPrefix = DefaultRobotPrefix
	}
	if c.DepthMarker == "" {
		c.DepthMarker = DefaultDepthMarker
	}
	if c.ActionEntity == "" {
		c.ActionEntity = DefaultActionEntity
	}
	return nil
}
