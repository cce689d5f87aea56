package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Rooms  *RoomSettings  `hcl:"rooms,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// RoomSettings tunes room retention. Durations use Go syntax ("30m", "24h").
type RoomSettings struct {
	TTL          string `hcl:"ttl,optional"`
	ReapInterval string `hcl:"reap_interval,optional"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Rooms: &RoomSettings{
			TTL:          "24h",
			ReapInterval: "1h",
		},
	}
}

// LoadServerConfig loads server configuration from an HCL file. A missing
// file is not an error; defaults apply.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	if config.Rooms == nil {
		config.Rooms = &RoomSettings{}
	}
	if config.Rooms.TTL == "" {
		config.Rooms.TTL = "24h"
	}
	if config.Rooms.ReapInterval == "" {
		config.Rooms.ReapInterval = "1h"
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := c.RoomTTL(); err != nil {
		return fmt.Errorf("invalid rooms ttl: %w", err)
	}
	if _, err := c.ReapInterval(); err != nil {
		return fmt.Errorf("invalid rooms reap_interval: %w", err)
	}
	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// RoomTTL returns how long an empty room is retained
func (c *ServerConfig) RoomTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Rooms.TTL)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive: %s", c.Rooms.TTL)
	}
	return d, nil
}

// ReapInterval returns how often idle rooms are swept
func (c *ServerConfig) ReapInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Rooms.ReapInterval)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive: %s", c.Rooms.ReapInterval)
	}
	return d, nil
}
