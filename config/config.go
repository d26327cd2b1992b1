package config

import (
	"io"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config represents configuration for the monitor
type Config struct {
	Endpoint EndpointConfig `yaml:"endpoint"`

	Check struct {
		Interval        duration `yaml:"interval"`
		Timeout         duration `yaml:"timeout"`
		AllowedFailures int      `yaml:"allowed-failures"`
		History         int      `yaml:"history-size"`
	} `yaml:"check"`

	Thresholds struct {
		Disconnected int64 `yaml:"disconnected"`
		Slow         int64 `yaml:"slow"`
		Moderate     int64 `yaml:"moderate"`
		Fast         int64 `yaml:"fast"`
	} `yaml:"thresholds"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

type duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler interface.
func (d *duration) UnmarshalYAML(unmashal func(interface{}) error) error {
	var s string
	if err := unmashal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = duration(dur)
	return nil
}

// Duration is a convenience getter.
func (d duration) Duration() time.Duration {
	return time.Duration(d)
}

// Set updates the underlying duration.
func (d *duration) Set(dur time.Duration) {
	*d = duration(dur)
}

// FromYAML reads YAML from reader and unmarshals it to Config
func FromYAML(r io.Reader) (*Config, error) {
	c := &Config{}
	err := yaml.NewDecoder(r).Decode(c)
	if err != nil {
		return nil, err
	}
	return c, nil
}
