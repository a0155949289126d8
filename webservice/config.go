package webservice

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"mirrorctl/session"
)

// Config is the service configuration, loaded from YAML. Zero values fall
// back to defaults that match a local emulator setup.
type Config struct {
	HTTPAddr string `yaml:"http_addr"`

	// Server binary source. A URL wins over a local path when both are set.
	ServerPath string `yaml:"server_path"`
	ServerURL  string `yaml:"server_url"`

	Session SessionConfig `yaml:"session"`
}

type SessionConfig struct {
	Serial        string `yaml:"serial"`
	RemotePath    string `yaml:"remote_path"`
	Version       string `yaml:"version"`
	LogLevel      string `yaml:"log_level"`
	MaxSize       int    `yaml:"max_size"`
	BitRate       int    `yaml:"bit_rate"`
	Encoder       string `yaml:"encoder"`
	ForwardTunnel bool   `yaml:"forward_tunnel"`
	LocalPort     int    `yaml:"local_port"`
}

func DefaultConfig() Config {
	return Config{
		HTTPAddr:   ":8081",
		ServerPath: "./scrcpy-server-v3.3.3",
		Session: SessionConfig{
			RemotePath: "/data/local/tmp/scrcpy-server-dev",
			Version:    "3.3.3",
			LogLevel:   "info",
			BitRate:    8_000_000,
			LocalPort:  6000,
		},
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing file is
// not an error; the defaults are returned unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) sessionConfig() session.Config {
	return session.Config{
		DeviceSerial:     c.Session.Serial,
		ServerRemotePath: c.Session.RemotePath,
		ServerVersion:    c.Session.Version,
		LogLevel:         c.Session.LogLevel,
		ResolutionLimit:  c.Session.MaxSize,
		BitRate:          c.Session.BitRate,
		Encoder:          c.Session.Encoder,
		UseForwardTunnel: c.Session.ForwardTunnel,
		LocalPort:        c.Session.LocalPort,
	}
}

func (c Config) fetcher() session.Fetcher {
	if c.ServerURL != "" {
		return &session.HTTPFetcher{URL: c.ServerURL}
	}
	return &session.FileFetcher{Path: c.ServerPath}
}
