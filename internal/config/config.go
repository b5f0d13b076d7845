// Package config provides configuration management for NutriPlan.
// Configurations are loaded from TOML files with XDG-compliant paths.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds the complete application configuration.
type Config struct {
	API      APIConfig      `toml:"api"`
	Program  ProgramConfig  `toml:"program"`
	Display  DisplayConfig  `toml:"display"`
	Reports  ReportsConfig  `toml:"reports"`
	Logging  LoggingConfig  `toml:"logging"`
	Database DatabaseConfig `toml:"database"`
}

// APIConfig describes how to reach the planning backend.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// BranchHeader carries the selected branch id on every scoped request.
	BranchHeader string `toml:"branch_header"`
	// BranchParam is the query parameter used by list and report endpoints.
	BranchParam string `toml:"branch_param"`
}

// Timeout returns the request timeout as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// ProgramConfig identifies the feeding program printed on reports.
type ProgramConfig struct {
	Name             string `toml:"name"`
	DefaultHeadcount int    `toml:"default_headcount"`
}

// DisplayConfig controls TUI appearance.
type DisplayConfig struct {
	ColorScheme ColorScheme `toml:"color_scheme"`
	DateFormat  string      `toml:"date_format"`
	PageSize    int         `toml:"page_size"`
}

// ColorScheme defines the terminal color palette.
type ColorScheme string

const (
	ColorSchemeFresh ColorScheme = "fresh"
	ColorSchemeWarm  ColorScheme = "warm"
	ColorSchemeMono  ColorScheme = "mono"
)

// ReportsConfig controls where exported documents are written.
type ReportsConfig struct {
	OutputDir string `toml:"output_dir"`
	Author    string `toml:"author"`
}

// LoggingConfig controls application logging.
type LoggingConfig struct {
	Level LogLevel `toml:"level"`
	File  string   `toml:"file"`
}

// LogLevel defines logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// DatabaseConfig controls the local SQLite state store.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if err := c.API.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("api: %w", err))
	}

	if err := c.Program.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("program: %w", err))
	}

	if err := c.Display.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("display: %w", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the API configuration is valid.
func (a *APIConfig) Validate() error {
	var errs []error

	if a.BaseURL == "" {
		errs = append(errs, errors.New("base_url is required"))
	} else if u, err := url.Parse(a.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid base_url: %s", a.BaseURL))
	}

	if a.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("timeout_seconds must be non-negative"))
	}

	if a.BranchHeader == "" {
		errs = append(errs, errors.New("branch_header is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the program configuration is valid.
func (p *ProgramConfig) Validate() error {
	if p.DefaultHeadcount < 0 {
		return errors.New("default_headcount must be non-negative")
	}
	return nil
}

// Validate checks that the display configuration is valid.
func (d *DisplayConfig) Validate() error {
	var errs []error

	validSchemes := map[ColorScheme]bool{
		ColorSchemeFresh: true,
		ColorSchemeWarm:  true,
		ColorSchemeMono:  true,
	}

	if !validSchemes[d.ColorScheme] && d.ColorScheme != "" {
		errs = append(errs, fmt.Errorf("invalid color_scheme: %s", d.ColorScheme))
	}

	if d.PageSize < 0 || d.PageSize > 100 {
		errs = append(errs, errors.New("page_size must be between 0 and 100"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	validLevels := map[LogLevel]bool{
		LogLevelDebug: true,
		LogLevelInfo:  true,
		LogLevelWarn:  true,
		LogLevelError: true,
	}

	if !validLevels[l.Level] && l.Level != "" {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	return nil
}

// Validate checks that the database configuration is valid.
func (d *DatabaseConfig) Validate() error {
	if d.Path == "" {
		return errors.New("path is required")
	}
	return nil
}

// Default returns a configuration with sensible default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8080/api",
			TimeoutSeconds: 30,
			BranchHeader:   "X-Sucursal-Id",
			BranchParam:    "sucursalId",
		},
		Program: ProgramConfig{
			Name:             "Programa de Alimentación",
			DefaultHeadcount: 0,
		},
		Display: DisplayConfig{
			ColorScheme: ColorSchemeFresh,
			DateFormat:  "2006-01-02",
			PageSize:    20,
		},
		Reports: ReportsConfig{
			OutputDir: "reportes",
		},
		Logging: LoggingConfig{
			Level: LogLevelInfo,
			File:  "logs/nutriplan.log",
		},
		Database: DatabaseConfig{
			Path: "nutriplan.db",
		},
	}
}
