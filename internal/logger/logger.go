package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the logger settings. It is embedded into the application
// configuration under the "log" key.
type Config struct {
	// Level is the minimum level to emit: debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level" default:"info"`

	// Format selects the encoder: "console" for human-readable colored
	// output, anything else for JSON.
	Format string `mapstructure:"format" yaml:"format" default:"console"`
}

// New creates a zap logger from the configuration.
//
// All log output goes to stderr. Stdout is reserved for the instruction
// text and the launched server's own output, so the printed-lines-first
// ordering contract is never interleaved with diagnostics.
func New(cfg *Config) (*zap.Logger, error) {
	var config zap.Config

	if cfg.Level == "debug" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		if lvl, err := zapcore.ParseLevel(cfg.Level); err == nil {
			config.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	if cfg.Format == "console" {
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.DisableStacktrace = true
	} else {
		config.Encoding = "json"
	}

	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.MessageKey = "message"

	return config.Build()
}
