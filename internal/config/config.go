// Package config handles toolkit configuration loading and management.
package config

// Config holds all joekit settings.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Model   ModelConfig   `yaml:"model"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig holds asset source locations.
type DataConfig struct {
	PackPaths []string `yaml:"pack_paths"` // JPK archives, searched before the filesystem
}

// ModelConfig holds model loader limits.
type ModelConfig struct {
	Scale    float32 `yaml:"scale"`     // Uniform vertex scale applied at load
	MaxFaces int32   `yaml:"max_faces"` // Hard cap on faces per model
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with standard values.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			PackPaths: nil,
		},
		Model: ModelConfig{
			Scale:    1.0,
			MaxFaces: 32000,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
