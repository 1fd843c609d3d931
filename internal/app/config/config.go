// Package config provides read-only access to validated application
// configuration. The app layer depends on this package, never on the
// loader that fills it in.
package config

import "time"

// Config abstracts the configuration source (setting.json or defaults).
type Config interface {
	// Core settings
	Home() string
	AgentBin() string
	AgentTimeoutSec() int
	AgentTimeout() time.Duration

	// Loop limits
	MaxIterations() int
	MaxRetriesPerStory() int

	// Backoff policy
	RetryInitialDelay() time.Duration
	RetryMultiplier() float64
	RetryCeiling() time.Duration
	IterationPause() time.Duration

	// Run shaping
	Simulate() bool
	TargetStoryID() string

	// Logging and persistence
	StderrLevel() string
	Archive() bool

	// Metadata
	ConfigSource() string
	SettingPath() string
}

// AppConfig is the concrete implementation of Config.
type AppConfig struct {
	home            string
	agentBin        string
	agentTimeoutSec int

	maxIterations      int
	maxRetriesPerStory int

	retryInitialDelayMs int
	retryMultiplier     float64
	retryCeilingMs      int
	iterationPauseMs    int

	simulate      bool
	targetStoryID string

	stderrLevel string
	archive     bool

	configSource string
	settingPath  string
}

// NewAppConfig creates an AppConfig with all values explicitly set.
func NewAppConfig(
	home string,
	agentBin string,
	agentTimeoutSec int,
	maxIterations int,
	maxRetriesPerStory int,
	retryInitialDelayMs int,
	retryMultiplier float64,
	retryCeilingMs int,
	iterationPauseMs int,
	simulate bool,
	targetStoryID string,
	stderrLevel string,
	archive bool,
	configSource string,
	settingPath string,
) *AppConfig {
	return &AppConfig{
		home:                home,
		agentBin:            agentBin,
		agentTimeoutSec:     agentTimeoutSec,
		maxIterations:       maxIterations,
		maxRetriesPerStory:  maxRetriesPerStory,
		retryInitialDelayMs: retryInitialDelayMs,
		retryMultiplier:     retryMultiplier,
		retryCeilingMs:      retryCeilingMs,
		iterationPauseMs:    iterationPauseMs,
		simulate:            simulate,
		targetStoryID:       targetStoryID,
		stderrLevel:         stderrLevel,
		archive:             archive,
		configSource:        configSource,
		settingPath:         settingPath,
	}
}

// Home returns the base directory for gushter state.
func (c *AppConfig) Home() string {
	return c.home
}

// AgentBin returns the agent binary path.
func (c *AppConfig) AgentBin() string {
	return c.agentBin
}

// AgentTimeoutSec returns the agent timeout in seconds.
func (c *AppConfig) AgentTimeoutSec() int {
	return c.agentTimeoutSec
}

// AgentTimeout returns the agent timeout as a Duration.
func (c *AppConfig) AgentTimeout() time.Duration {
	return time.Duration(c.agentTimeoutSec) * time.Second
}

// MaxIterations returns the ceiling on iterations per run.
func (c *AppConfig) MaxIterations() int {
	return c.maxIterations
}

// MaxRetriesPerStory returns the attempt limit before a story is blocked.
func (c *AppConfig) MaxRetriesPerStory() int {
	return c.maxRetriesPerStory
}

// RetryInitialDelay returns the delay before the first retry.
func (c *AppConfig) RetryInitialDelay() time.Duration {
	return time.Duration(c.retryInitialDelayMs) * time.Millisecond
}

// RetryMultiplier returns the exponential growth factor between retries.
func (c *AppConfig) RetryMultiplier() float64 {
	return c.retryMultiplier
}

// RetryCeiling returns the maximum retry delay.
func (c *AppConfig) RetryCeiling() time.Duration {
	return time.Duration(c.retryCeilingMs) * time.Millisecond
}

// IterationPause returns the pause between successful iterations.
func (c *AppConfig) IterationPause() time.Duration {
	return time.Duration(c.iterationPauseMs) * time.Millisecond
}

// Simulate reports whether the run should avoid the real agent and git.
func (c *AppConfig) Simulate() bool {
	return c.simulate
}

// TargetStoryID returns the pinned story ID, or "" when unpinned.
func (c *AppConfig) TargetStoryID() string {
	return c.targetStoryID
}

// StderrLevel returns the stderr log level name.
func (c *AppConfig) StderrLevel() string {
	return c.stderrLevel
}

// Archive reports whether superseded iterations are archived to SQLite.
func (c *AppConfig) Archive() bool {
	return c.archive
}

// ConfigSource returns the source of configuration: "json" or "default".
func (c *AppConfig) ConfigSource() string {
	return c.configSource
}

// SettingPath returns the path of setting.json when one was loaded.
func (c *AppConfig) SettingPath() string {
	return c.settingPath
}
