package config

import (
	"flag"

	"github.com/Faultbox/shadowvol/pkg/shadow/optimize"
)

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagLevel   = flag.String("level", "", "Optimization level (none, merge_surfaces, cull_occluded, clip_occluders, clip_sils, sil_optimize)")
	flagWorkers = flag.Int("workers", 0, "Number of parallel jobs")
	flagOut     = flag.String("o", "", "Output directory")
	flagPreview = flag.Bool("preview", false, "Also render a PNG preview per light")
	flagSize    = flag.Int("size", 0, "Preview image size in pixels")
	flagSave    = flag.Bool("save", false, "Write the effective config to the user config dir (config command)")
)

// ParseFlags parses command-line flags from args. Call this early in a
// command, with the arguments that follow the command name.
func ParseFlags(args []string) error {
	return flag.CommandLine.Parse(args)
}

// Args returns the non-flag arguments left after ParseFlags.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// SaveRequested reports whether -save was given.
func SaveRequested() bool {
	return *flagSave
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) error {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLevel != "" {
		level, err := optimize.ParseLevel(*flagLevel)
		if err != nil {
			return err
		}
		cfg.Shadow.Level = level
	}
	if *flagWorkers > 0 {
		cfg.Shadow.Workers = *flagWorkers
	}
	if *flagOut != "" {
		cfg.Output.Dir = *flagOut
	}
	if *flagPreview {
		cfg.Output.Preview = true
	}
	if *flagSize > 0 {
		cfg.Output.PreviewSize = *flagSize
	}
	return nil
}
