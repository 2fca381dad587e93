package config

import (
	"flag"
	"io"
)

var flags = flag.NewFlagSet("bake", flag.ContinueOnError)

var (
	flagConfig        = flags.String("config", "", "Path to config file")
	flagDebug         = flags.Bool("debug", false, "Enable debug logging")
	flagBias          = flags.Float64("bias", -1, "Surface bias distance (default from config)")
	flagNoMultiSample = flags.Bool("no-multisample", false, "Test triangle centroids only")
	flagNoDilate      = flags.Bool("no-dilate", false, "Skip seam dilation")
	flagWorkers       = flags.Int("workers", 0, "Visibility workers (0 = config/CPU count)")
	flagOut           = flags.String("out", "", "Output directory")
	flagFormat        = flags.String("format", "", "Output format: omsh or obj")
	flagLogFile       = flags.String("log-file", "", "Write a rotating JSON log to this file")
	flagDebugPoints   = flags.String("debug-points", "", "Dump visible sample points as OBJ")
)

// ParseFlags parses bake flags from args and returns the positional
// arguments left over.
func ParseFlags(args []string) ([]string, error) {
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	return flags.Args(), nil
}

// SetOutput redirects flag usage and error output.
func SetOutput(w io.Writer) {
	flags.SetOutput(w)
}

// PrintDefaults writes flag help to the flag output.
func PrintDefaults() {
	flags.PrintDefaults()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagBias >= 0 {
		cfg.Kernel.SurfaceBias = float32(*flagBias)
	}
	if *flagNoMultiSample {
		cfg.Kernel.MultiSample = false
	}
	if *flagNoDilate {
		cfg.Kernel.Dilate = false
	}
	if *flagWorkers > 0 {
		cfg.Kernel.Workers = *flagWorkers
	}
	if *flagOut != "" {
		cfg.Output.Dir = *flagOut
	}
	if *flagFormat != "" {
		cfg.Output.Format = *flagFormat
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagDebugPoints != "" {
		cfg.Output.DebugPoints = *flagDebugPoints
	}
}
