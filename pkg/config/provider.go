// Package config provides configuration loading for weathervane.
package config

import "time"

// Provider defines the interface for configuration data sources
type Provider interface {
	// Load complete configuration
	LoadConfig() (*Data, error)

	// Get specific configuration sections
	GetSources() ([]SourceData, error)
	GetState() (*StateData, error)
	GetServer() (*ServerData, error)

	Close() error
}

// Data represents the complete configuration structure
type Data struct {
	Sources []SourceData `yaml:"sources"`
	State   StateData    `yaml:"state,omitempty"`
	Server  ServerData   `yaml:"server,omitempty"`
}

// SourceData holds configuration specific to one weather data provider
type SourceData struct {
	Name         string  `yaml:"name"`
	Type         string  `yaml:"type"`
	APIKey       string  `yaml:"api_key,omitempty"`
	StationID    string  `yaml:"station_id,omitempty"`
	SerialNumber string  `yaml:"serial_number,omitempty"`
	Latitude     float64 `yaml:"latitude,omitempty"`
	Longitude    float64 `yaml:"longitude,omitempty"`
	APIEndpoint  string  `yaml:"api_endpoint,omitempty"`
	ListenPort   int     `yaml:"listen_port,omitempty"`
	BrokerURL    string  `yaml:"broker_url,omitempty"`
	Topic        string  `yaml:"topic,omitempty"`
	Username     string  `yaml:"username,omitempty"`
	Password     string  `yaml:"password,omitempty"`
	Timezone     string  `yaml:"timezone,omitempty"`
	ForecastDays int     `yaml:"forecast_days,omitempty"`
	PollInterval string  `yaml:"poll_interval,omitempty"`
}

// Location resolves the source's configured timezone.  Day-scoped
// metrics reset at midnight in this zone.  An empty timezone means UTC.
func (s SourceData) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

// StateData holds configuration for the push-adapter state store
type StateData struct {
	Path string `yaml:"path,omitempty"`
}

// ServerData holds configuration for the REST introspection server
type ServerData struct {
	ListenAddr string `yaml:"listen_addr,omitempty"`
	Port       int    `yaml:"port,omitempty"`
}

// Enabled reports whether the REST server was configured.
func (s ServerData) Enabled() bool {
	return s.Port != 0
}
