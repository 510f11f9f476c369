package config

import "flag"

var (
	flagConfig = flag.String("config", "", "Path to config file")
	flagDebug  = flag.Bool("debug", false, "Enable debug logging")
	flagPack   = flag.String("pack", "", "JPK archive to search before the filesystem")
	flagScale  = flag.Float64("scale", 0, "Override model vertex scale")
	flagLog    = flag.String("log", "", "Write logs to this file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
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
	if *flagPack != "" {
		cfg.Data.PackPaths = append(cfg.Data.PackPaths, *flagPack)
	}
	if *flagScale > 0 {
		cfg.Model.Scale = float32(*flagScale)
	}
	if *flagLog != "" {
		cfg.Logging.LogFile = *flagLog
	}
}
