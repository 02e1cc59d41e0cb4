// Package config handles configuration loading and shared data structures.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the root configuration file structure.
// It is loaded once at startup and treated as read-only afterwards.
type Config struct {
	GIS        GIS        `yaml:"gis" json:"gis"`
	Fields     Fields     `yaml:"fields" json:"fields"`
	Display    Display    `yaml:"display" json:"display"`
	Projection Projection `yaml:"projection" json:"projection"`
}

// GIS describes the remote ArcGIS MapServer holding the cadastral layers.
type GIS struct {
	// MapServer root, e.g. https://host/server/rest/services/Name/MapServer
	BaseURL     string `yaml:"base_url" json:"base_url"`
	FilterField string `yaml:"filter_field" json:"filter_field"`
	UserAgent   string `yaml:"user_agent,omitempty" json:"-"`

	Timeout   time.Duration `yaml:"timeout,omitempty" json:"timeout"`
	RateLimit float64       `yaml:"rate_limit,omitempty" json:"rate_limit"` // requests per second, 0 disables
	Burst     int           `yaml:"burst,omitempty" json:"burst"`

	PrimaryLayer      int `yaml:"primary_layer" json:"primary_layer"`
	SupplementalLayer int `yaml:"supplemental_layer" json:"supplemental_layer"`
}

// Fields maps parcel attributes of the primary layer to their meaning.
type Fields struct {
	X       string `yaml:"x" json:"x"`
	Y       string `yaml:"y" json:"y"`
	Zoning  string `yaml:"zoning" json:"zoning"`
	LotArea string `yaml:"lot_area" json:"lot_area"`
}

// Projection is the UTM zone the parcel coordinates are expressed in.
type Projection struct {
	Zone     int  `yaml:"zone" json:"zone"`
	Southern bool `yaml:"southern" json:"southern"`
}

// Display controls presentation of the report page.
type Display struct {
	Locale string `yaml:"locale" json:"locale"` // BCP 47 tag used for number formatting
	Minify bool   `yaml:"minify" json:"minify"`
}

// Default returns the configuration for the GeoCuritiba cadastral map.
func Default() *Config {
	return &Config{
		GIS: GIS{
			BaseURL:           "https://geocuritiba.ippuc.org.br/server/rest/services/GeoCuritiba/Publico_GeoCuritiba_MapaCadastral/MapServer",
			FilterField:       "gtm_ind_fiscal",
			UserAgent:         "lotinfo/1.0",
			Timeout:           30 * time.Second,
			RateLimit:         5,
			Burst:             2,
			PrimaryLayer:      15,
			SupplementalLayer: 20,
		},
		Fields: Fields{
			X:       "x_coord",
			Y:       "y_coord",
			Zoning:  "gtm_sigla_zoneamento",
			LotArea: "gtm_mtr_area_terreno",
		},
		Display: Display{
			Locale: "pt-BR",
			Minify: true,
		},
		Projection: Projection{
			Zone:     22,
			Southern: true,
		},
	}
}

// Load reads and parses the YAML configuration file from the specified path.
// Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if u, err := url.Parse(c.GIS.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("gis.base_url must be an absolute URL, got %q", c.GIS.BaseURL))
	}
	if c.GIS.FilterField == "" {
		errs = append(errs, "gis.filter_field is required")
	}
	if c.GIS.PrimaryLayer < 0 || c.GIS.SupplementalLayer < 0 {
		errs = append(errs, "gis layers must not be negative")
	}
	if c.GIS.Timeout < 0 {
		errs = append(errs, "gis.timeout must not be negative")
	}
	if c.GIS.RateLimit < 0 {
		errs = append(errs, "gis.rate_limit must not be negative")
	}
	if c.Projection.Zone < 1 || c.Projection.Zone > 60 {
		errs = append(errs, fmt.Sprintf("projection.zone must be 1-60, got %d", c.Projection.Zone))
	}
	if c.Fields.X == "" || c.Fields.Y == "" || c.Fields.Zoning == "" || c.Fields.LotArea == "" {
		errs = append(errs, "fields.x, fields.y, fields.zoning and fields.lot_area are required")
	}

	if c.Display.Locale == "" {
		errs = append(errs, "display.locale is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
