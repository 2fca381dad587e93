// Package config handles bake configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// Output formats understood by the mesh store.
const (
	FormatOMSH = "omsh"
	FormatOBJ  = "obj"
)

// Configuration errors.
var (
	ErrNegativeBias   = errors.New("surface_bias must be >= 0")
	ErrUnknownFormat  = errors.New("unknown output format")
	ErrInvalidWorkers = errors.New("workers must be >= 0")
	ErrInvalidEvery   = errors.New("progress_every must be > 0")
)

// Config holds all tool settings.
type Config struct {
	Kernel  KernelConfig  `yaml:"kernel"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// KernelConfig holds the visibility kernel parameters.
type KernelConfig struct {
	SurfaceBias   float32 `yaml:"surface_bias"`   // pull-back distance toward the observer
	MultiSample   bool    `yaml:"multi_sample"`   // test the 3 vertices as well as the centroid
	Dilate        bool    `yaml:"dilate"`         // grow the kept set by one triangle ring
	Workers       int     `yaml:"workers"`        // 0 = one per CPU
	ProgressEvery int     `yaml:"progress_every"` // triangles between progress reports
}

// OutputConfig controls where and how reduced meshes are written.
type OutputConfig struct {
	Dir          string `yaml:"dir"`           // empty = next to the scene file
	FolderPrefix string `yaml:"folder_prefix"` // run folder is <prefix>_YYYYMMDD_HHMMSS
	Format       string `yaml:"format"`        // omsh or obj
	DebugPoints  string `yaml:"debug_points"`  // optional OBJ dump of visible samples
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Kernel: KernelConfig{
			SurfaceBias:   0.02,
			MultiSample:   true,
			Dilate:        true,
			Workers:       0,
			ProgressEvery: 200,
		},
		Output: OutputConfig{
			Dir:          "",
			FolderPrefix: "OptimizedMeshes",
			Format:       FormatOMSH,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Kernel.SurfaceBias < 0 {
		return fmt.Errorf("%w, got %v", ErrNegativeBias, c.Kernel.SurfaceBias)
	}
	if c.Kernel.Workers < 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidWorkers, c.Kernel.Workers)
	}
	if c.Kernel.ProgressEvery <= 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidEvery, c.Kernel.ProgressEvery)
	}
	switch c.Output.Format {
	case FormatOMSH, FormatOBJ:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, c.Output.Format)
	}
	return nil
}
