// Package config loads and validates vending machine configuration.
package config

import (
	"fmt"
	"strings"
)

var (
	_ Validator = (*Config)(nil)
	_ Validator = (*ClientConfig)(nil)
)

// Config configures the vending machine server.
type Config struct {
	HTTPServer HTTPConfig       `koanf:"server"`
	GRPC       GrpcServerConfig `koanf:"grpc"`
	Log        LogConfig        `koanf:"log"`
	PProf      PProfConfig      `koanf:"pprof"`
	Shutdown   ShutdownConfig   `koanf:"shutdown"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Machine    MachineConfig    `koanf:"machine"`
}

// MachineConfig lists the lanes registered and stocked at startup.
type MachineConfig struct {
	Lanes []LaneSeed `koanf:"lanes"`
}

type LaneSeed struct {
	Code        string `koanf:"code"`
	Description string `koanf:"description"`
	Stock       int    `koanf:"stock"`
}

func (c *MachineConfig) Validate() error {
	seen := make(map[string]struct{}, len(c.Lanes))
	for i, lane := range c.Lanes {
		if lane.Code == "" {
			return fmt.Errorf("machine.lanes[%d]: code is not configured", i)
		}
		if strings.TrimSpace(lane.Description) == "" {
			return fmt.Errorf("machine.lanes[%d]: description is not configured", i)
		}
		if lane.Stock < 0 {
			return fmt.Errorf("machine.lanes[%d]: stock must not be negative: %d", i, lane.Stock)
		}
		key := strings.ToUpper(lane.Code)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("machine.lanes[%d]: duplicate lane code %s", i, lane.Code)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.GRPC.String())

	b.WriteString("\n--- Observability & Logging ---\n")
	b.WriteString(fmt.Sprintf("  log.level: %s\n", c.Log.Level))
	b.WriteString(fmt.Sprintf("  pprof.enabled: %t\n", c.PProf.Enabled))
	b.WriteString(fmt.Sprintf("  pprof.address: %s\n", c.PProf.Addr))
	b.WriteString(c.Telemetry.String())

	b.WriteString("\n--- Application Behavior ---\n")
	b.WriteString(fmt.Sprintf("  shutdown.timeout: %s\n", c.Shutdown.Timeout))
	b.WriteString(fmt.Sprintf("  machine.lanes: %d\n", len(c.Machine.Lanes)))
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.GRPC.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	return c.Machine.Validate()
}

// ClientConfig configures vendingctl.
type ClientConfig struct {
	Client     GrpcClientConfig `koanf:"client"`
	Resilience ResilienceConfig `koanf:"resilience"`
	Log        LogConfig        `koanf:"log"`
}

func (c *ClientConfig) String() string {
	return c.Client.String() + c.Resilience.String()
}

func (c *ClientConfig) Validate() error {
	if err := c.Client.Validate(); err != nil {
		return err
	}
	if err := c.Resilience.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}
