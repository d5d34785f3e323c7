package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultGlob      = "**/*.alt"
	DefaultOutputExt = ".html"
)

// Config stores runtime options for one batch build run.
type Config struct {
	In   string
	Out  string
	Glob string
	Ext  string

	ReportJSON string
	ReportCSV  string

	Check  bool
	Strict bool
}

// Default returns baseline configuration values used by CLI flags.
func Default() Config {
	return Config{
		Glob: DefaultGlob,
		Ext:  DefaultOutputExt,
	}
}

// Validate normalizes and checks the configuration before execution.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.In) == "" {
		return fmt.Errorf("--in is required")
	}
	if strings.TrimSpace(c.Out) == "" {
		return fmt.Errorf("--out is required")
	}

	if strings.TrimSpace(c.Glob) == "" {
		c.Glob = DefaultGlob
	}
	if strings.TrimSpace(c.Ext) == "" {
		c.Ext = DefaultOutputExt
	}
	if !strings.HasPrefix(c.Ext, ".") {
		return fmt.Errorf("--ext must start with '.', got %q", c.Ext)
	}

	c.In = filepath.Clean(c.In)
	c.Out = filepath.Clean(c.Out)

	info, err := os.Stat(c.In)
	if err != nil {
		return fmt.Errorf("input path %q is not accessible: %w", c.In, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input path %q must be a directory", c.In)
	}

	return nil
}

// WritePair maps one watched source template to its output path.
type WritePair struct {
	Src string `yaml:"src"`
	Dst string `yaml:"dst"`
}

// Project is the watch-mode configuration file. Header templates are
// compiled only to register their set and macro bindings; write pairs are
// recompiled to their destinations on every change.
type Project struct {
	Headers []string    `yaml:"headers"`
	Write   []WritePair `yaml:"write"`
}

// LoadProject reads and validates a YAML project file.
func LoadProject(path string) (Project, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Project{}, fmt.Errorf("read project config %q: %w", path, err)
	}

	var p Project
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Project{}, fmt.Errorf("parse project config %q: %w", path, err)
	}

	if len(p.Write) == 0 {
		return Project{}, fmt.Errorf("project config %q declares no write pairs", path)
	}
	for i, pair := range p.Write {
		if strings.TrimSpace(pair.Src) == "" || strings.TrimSpace(pair.Dst) == "" {
			return Project{}, fmt.Errorf("project config %q: write pair %d needs both src and dst", path, i)
		}
	}
	return p, nil
}
