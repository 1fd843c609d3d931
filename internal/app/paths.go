package app

import (
	"os"
	"path/filepath"
)

// Paths holds all resolved paths for the .gushter directory layout
type Paths struct {
	Home string // .gushter directory
	Etc  string // .gushter/etc
	Var  string // .gushter/var

	// Key files
	Setting   string // .gushter/setting.json
	Backlog   string // .gushter/etc/backlog.yaml
	Checks    string // .gushter/etc/checks.yaml
	RunState  string // .gushter/var/run_state.json
	Journal   string // .gushter/var/journal.ndjson
	Health    string // .gushter/var/health.json
	Archive   string // .gushter/var/archive.db
	Learnings string // .gushter/var/learnings.md
	Lock      string // .gushter/var/run.lock
}

// ResolvePaths returns all paths based on the GUSHTER_HOME environment variable
func ResolvePaths() Paths {
	home := os.Getenv("GUSHTER_HOME")
	if home == "" {
		home = ".gushter"
	}
	return ResolvePathsIn(home)
}

// ResolvePathsIn returns all paths rooted at an explicit home directory
func ResolvePathsIn(home string) Paths {
	p := Paths{
		Home: home,
		Etc:  filepath.Join(home, "etc"),
		Var:  filepath.Join(home, "var"),
	}

	p.Setting = filepath.Join(home, "setting.json")
	p.Backlog = filepath.Join(p.Etc, "backlog.yaml")
	p.Checks = filepath.Join(p.Etc, "checks.yaml")
	p.RunState = filepath.Join(p.Var, "run_state.json")
	p.Journal = filepath.Join(p.Var, "journal.ndjson")
	p.Health = filepath.Join(p.Var, "health.json")
	p.Archive = filepath.Join(p.Var, "archive.db")
	p.Learnings = filepath.Join(p.Var, "learnings.md")
	p.Lock = filepath.Join(p.Var, "run.lock")

	return p
}
