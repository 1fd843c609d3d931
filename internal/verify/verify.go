// Package verify runs the configured check commands after the agent reports
// success and aggregates their pass/fail outcome.
package verify

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/x0georgiev/gushter/internal/app"
)

// Check is one named verification command. Optional checks may fail without
// failing the aggregate.
type Check struct {
	Name       string `yaml:"name"`
	Command    string `yaml:"command"`
	Optional   bool   `yaml:"optional"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// checksFile is the YAML document shape.
type checksFile struct {
	Checks []Check `yaml:"checks"`
}

// defaultCheckTimeout bounds a check that configures no explicit ceiling.
const defaultCheckTimeout = 10 * time.Minute

// CheckResult is the outcome of one check.
type CheckResult struct {
	Name     string
	Passed   bool
	Optional bool
	Output   string
	Duration time.Duration
}

// Result aggregates all check outcomes. OK is false iff any non-optional
// check failed.
type Result struct {
	Checks []CheckResult
	OK     bool
}

// Executor is the process-execution capability the runner depends on.
type Executor interface {
	Exec(ctx context.Context, command string, timeout time.Duration) (string, error)
}

// ShellExecutor runs commands through the shell with a hard timeout.
type ShellExecutor struct{}

// Exec runs one command and returns its combined output.
func (ShellExecutor) Exec(ctx context.Context, command string, timeout time.Duration) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, "sh", "-c", command)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// Runner executes checks in order and aggregates the result.
type Runner struct {
	exec Executor
	log  app.Logger
}

// NewRunner creates a verification runner.
func NewRunner(exec Executor, log app.Logger) *Runner {
	if log == nil {
		log = app.NopLogger()
	}
	return &Runner{exec: exec, log: log}
}

// Run executes every check. An empty check list passes.
func (r *Runner) Run(ctx context.Context, checks []Check) Result {
	result := Result{OK: true}

	for _, check := range checks {
		timeout := defaultCheckTimeout
		if check.TimeoutSec > 0 {
			timeout = time.Duration(check.TimeoutSec) * time.Second
		}

		start := time.Now()
		out, err := r.exec.Exec(ctx, check.Command, timeout)
		elapsed := time.Since(start)

		cr := CheckResult{
			Name:     check.Name,
			Passed:   err == nil,
			Optional: check.Optional,
			Output:   out,
			Duration: elapsed,
		}
		result.Checks = append(result.Checks, cr)

		if cr.Passed {
			r.log.Info("check %s passed (%.1fs)", check.Name, elapsed.Seconds())
			continue
		}
		if check.Optional {
			r.log.Warn("optional check %s failed (%.1fs): %v", check.Name, elapsed.Seconds(), err)
			continue
		}
		r.log.Warn("check %s failed (%.1fs): %v", check.Name, elapsed.Seconds(), err)
		result.OK = false
	}

	return result
}

// LoadChecks reads the check list document. A missing file yields an empty
// list; a malformed file is an error.
func LoadChecks(fsys afero.Fs, path string) ([]Check, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checks file: %w", err)
	}

	var doc checksFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse checks file %s: %w", path, err)
	}
	for i, c := range doc.Checks {
		if c.Name == "" || c.Command == "" {
			return nil, fmt.Errorf("check at index %d is missing a name or command", i)
		}
	}
	return doc.Checks, nil
}
