package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Grafana GrafanaConfig `yaml:"grafana"`
	Panel   PanelConfig   `yaml:"panel"`
	Trmnl   TrmnlConfig   `yaml:"trmnl"`
	Agent   AgentConfig   `yaml:"agent"`
}

// ServerConfig enables the polling endpoint instead of the push worker.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

type GrafanaConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// PanelConfig selects the panel the push worker renders.
type PanelConfig struct {
	DashboardUID string         `yaml:"dashboardUID"`
	PanelID      int            `yaml:"panelID"`
	TimeFrom     string         `yaml:"timeFrom"`
	TimeTo       string         `yaml:"timeTo"`
	Label        string         `yaml:"label"`
	Timezone     string         `yaml:"timezone"`
	Variables    map[string]any `yaml:"variables"`
}

type TrmnlConfig struct {
	WebhookURL string `yaml:"webhookURL"`
}

type AgentConfig struct {
	RunInterval string `yaml:"runInterval"`
	LogLevel    string `yaml:"logLevel"`
}

// LoadConfig reads the YAML config file, applies environment variable
// overrides, fills defaults and validates. A missing file is fine as long
// as the environment supplies the required values.
func LoadConfig(path string) (*Config, error) {
	var config Config

	fileData, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	applyEnvOverrides(&config)
	setDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyEnvOverrides(config *Config) {
	if v := os.Getenv("GRAFANA_URL"); v != "" {
		config.Grafana.URL = v
	}
	if v := os.Getenv("GRAFANA_API_KEY"); v != "" {
		config.Grafana.Token = v
	}
	if v := os.Getenv("DASHBOARD_UID"); v != "" {
		config.Panel.DashboardUID = v
	}
	if v := os.Getenv("PANEL_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			config.Panel.PanelID = id
		}
	}
	if v := os.Getenv("TIME_FROM"); v != "" {
		config.Panel.TimeFrom = v
	}
	if v := os.Getenv("TIME_TO"); v != "" {
		config.Panel.TimeTo = v
	}
	if v := os.Getenv("LABEL"); v != "" {
		config.Panel.Label = v
	}
	if v := os.Getenv("TIMEZONE"); v != "" {
		config.Panel.Timezone = v
	}
	if v := os.Getenv("TRMNL_WEBHOOK_URL"); v != "" {
		config.Trmnl.WebhookURL = v
	}
	if v := os.Getenv("INTERVAL"); v != "" {
		config.Agent.RunInterval = v
	}
}

func setDefaults(config *Config) {
	if config.Server.Listen == "" {
		config.Server.Listen = ":8080"
	}
	if config.Panel.TimeFrom == "" {
		config.Panel.TimeFrom = "now-1h"
	}
	if config.Panel.TimeTo == "" {
		config.Panel.TimeTo = "now"
	}
	if config.Panel.Label == "" {
		config.Panel.Label = "name"
	}
	if config.Panel.Timezone == "" {
		config.Panel.Timezone = "UTC"
	}
	if config.Agent.RunInterval == "" {
		config.Agent.RunInterval = "300s"
	}
	if config.Agent.LogLevel == "" {
		config.Agent.LogLevel = "INFO"
	}
	config.Grafana.URL = strings.TrimRight(config.Grafana.URL, "/")
}

// validateConfig collects every missing required field at once. Server mode
// takes its Grafana settings per request, so only push mode is strict.
func validateConfig(config *Config) error {
	if config.Server.Enabled {
		return nil
	}

	var errors []string
	if config.Grafana.URL == "" {
		errors = append(errors, "grafana.url is required")
	}
	if config.Grafana.Token == "" {
		errors = append(errors, "grafana.token is required")
	}
	if config.Panel.DashboardUID == "" {
		errors = append(errors, "panel.dashboardUID is required")
	}
	if config.Panel.PanelID == 0 {
		errors = append(errors, "panel.panelID is required")
	}
	if config.Trmnl.WebhookURL == "" {
		errors = append(errors, "trmnl.webhookURL is required")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}
