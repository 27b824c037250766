// Package config handles shadow compiler configuration loading and management.
package config

import (
	"runtime"

	"github.com/Faultbox/shadowvol/pkg/shadow/optimize"
	"github.com/Faultbox/shadowvol/pkg/shadow/volume"
)

// Config holds all compiler settings.
type Config struct {
	Shadow  ShadowConfig  `yaml:"shadow"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// ShadowConfig holds volume generation settings.
type ShadowConfig struct {
	Level           optimize.Level `yaml:"level"`
	MaxVerts        int            `yaml:"max_verts"`
	MaxIndexes      int            `yaml:"max_indexes"`
	MaxClipSilEdges int            `yaml:"max_clip_sil_edges"`
	MaxUniqueVerts  int            `yaml:"max_unique_verts"`
	Workers         int            `yaml:"workers"` // 0 means one per CPU
}

// OutputConfig holds where and what the compiler writes.
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	Preview     bool   `yaml:"preview"`
	PreviewSize int    `yaml:"preview_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Shadow: ShadowConfig{
			Level:           optimize.DefaultLevel,
			MaxVerts:        volume.DefaultMaxVerts,
			MaxIndexes:      volume.DefaultMaxIndexes,
			MaxClipSilEdges: volume.DefaultMaxClipSilEdges,
			MaxUniqueVerts:  0,
			Workers:         0,
		},
		Output: OutputConfig{
			Dir:         ".",
			Preview:     false,
			PreviewSize: 512,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// NumWorkers resolves Workers to a positive worker count.
func (s ShadowConfig) NumWorkers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.NumCPU()
}

// VolumeOptions converts the shadow settings to volume.Create options.
func (s ShadowConfig) VolumeOptions() volume.Options {
	return volume.Options{
		Level:           s.Level,
		MaxVerts:        s.MaxVerts,
		MaxIndexes:      s.MaxIndexes,
		MaxClipSilEdges: s.MaxClipSilEdges,
		MaxUniqueVerts:  s.MaxUniqueVerts,
	}
}
