// Package config loads setting.json and converts it into the validated
// AppConfig the rest of the application consumes.
package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/x0georgiev/gushter/internal/app/config"
)

// RawSettings represents the structure of the setting.json file.
// All fields are pointers so that absent keys fall back to defaults.
type RawSettings struct {
	// Core settings
	Home            *string `json:"home"`
	AgentBin        *string `json:"agent_bin"`
	AgentTimeoutSec *int    `json:"agent_timeout_sec"`

	// Loop limits
	MaxIterations      *int `json:"max_iterations"`
	MaxRetriesPerStory *int `json:"max_retries_per_story"`

	// Backoff policy
	RetryInitialDelayMs *int     `json:"retry_initial_delay_ms"`
	RetryMultiplier     *float64 `json:"retry_multiplier"`
	RetryCeilingMs      *int     `json:"retry_ceiling_ms"`
	IterationPauseMs    *int     `json:"iteration_pause_ms"`

	// Run shaping
	Simulate      *bool   `json:"simulate"`
	TargetStoryID *string `json:"target_story_id"`

	// Logging and persistence
	StderrLevel *string `json:"stderr_level"`
	Archive     *bool   `json:"archive"`
}

// LoadSettings loads configuration from setting.json only.
// Priority: setting.json > defaults. A missing file is not an error.
func LoadSettings(fs afero.Fs, baseDir string) (*config.AppConfig, error) {
	settings := &RawSettings{}
	configSource := "default"
	settingPath := ""

	jsonPath := filepath.Join(baseDir, "setting.json")
	if data, err := afero.ReadFile(fs, jsonPath); err == nil {
		if err := json.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", jsonPath, err)
		}
		configSource = "json"
		settingPath = jsonPath
	}

	applyDefaults(settings)

	if err := validate(settings); err != nil {
		return nil, err
	}

	return buildAppConfig(settings, configSource, settingPath), nil
}

// applyDefaults fills in default values for any nil fields.
func applyDefaults(settings *RawSettings) {
	// Core defaults
	if settings.Home == nil {
		v := ".gushter"
		settings.Home = &v
	}
	if settings.AgentBin == nil {
		v := "claude"
		settings.AgentBin = &v
	}
	if settings.AgentTimeoutSec == nil {
		v := 900 // 15 minutes for complex tasks
		settings.AgentTimeoutSec = &v
	}

	// Loop limits
	if settings.MaxIterations == nil {
		v := 10
		settings.MaxIterations = &v
	}
	if settings.MaxRetriesPerStory == nil {
		v := 3
		settings.MaxRetriesPerStory = &v
	}

	// Backoff policy
	if settings.RetryInitialDelayMs == nil {
		v := 5000
		settings.RetryInitialDelayMs = &v
	}
	if settings.RetryMultiplier == nil {
		v := 2.0
		settings.RetryMultiplier = &v
	}
	if settings.RetryCeilingMs == nil {
		v := 300000 // 5 minutes
		settings.RetryCeilingMs = &v
	}
	if settings.IterationPauseMs == nil {
		v := 2000
		settings.IterationPauseMs = &v
	}

	// Run shaping
	if settings.Simulate == nil {
		v := false
		settings.Simulate = &v
	}
	if settings.TargetStoryID == nil {
		v := ""
		settings.TargetStoryID = &v
	}

	// Logging and persistence
	if settings.StderrLevel == nil {
		v := "info"
		settings.StderrLevel = &v
	}
	if settings.Archive == nil {
		v := true
		settings.Archive = &v
	}
}

// validate rejects settings the loop cannot run with.
func validate(settings *RawSettings) error {
	if *settings.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", *settings.MaxIterations)
	}
	if *settings.MaxRetriesPerStory <= 0 {
		return fmt.Errorf("max_retries_per_story must be positive, got %d", *settings.MaxRetriesPerStory)
	}
	if *settings.RetryInitialDelayMs < 0 {
		return fmt.Errorf("retry_initial_delay_ms must not be negative, got %d", *settings.RetryInitialDelayMs)
	}
	if *settings.RetryMultiplier < 1 {
		return fmt.Errorf("retry_multiplier must be at least 1, got %g", *settings.RetryMultiplier)
	}
	if *settings.RetryCeilingMs < 0 {
		return fmt.Errorf("retry_ceiling_ms must not be negative, got %d", *settings.RetryCeilingMs)
	}
	if *settings.IterationPauseMs < 0 {
		return fmt.Errorf("iteration_pause_ms must not be negative, got %d", *settings.IterationPauseMs)
	}
	if *settings.AgentTimeoutSec < 0 {
		return fmt.Errorf("agent_timeout_sec must not be negative, got %d", *settings.AgentTimeoutSec)
	}
	return nil
}

// buildAppConfig converts RawSettings to AppConfig.
func buildAppConfig(settings *RawSettings, configSource, settingPath string) *config.AppConfig {
	return config.NewAppConfig(
		*settings.Home,
		*settings.AgentBin,
		*settings.AgentTimeoutSec,
		*settings.MaxIterations,
		*settings.MaxRetriesPerStory,
		*settings.RetryInitialDelayMs,
		*settings.RetryMultiplier,
		*settings.RetryCeilingMs,
		*settings.IterationPauseMs,
		*settings.Simulate,
		*settings.TargetStoryID,
		*settings.StderrLevel,
		*settings.Archive,
		configSource,
		settingPath,
	)
}

// CreateDefaultSettings returns the default setting.json content.
func CreateDefaultSettings() []byte {
	settings := &RawSettings{}
	applyDefaults(settings)

	data, _ := json.MarshalIndent(settings, "", "  ")
	return data
}
