package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultService = "crappybird"

// Config mirrors the logging section of config.yml.
type Config struct {
	Level    string // debug, info, warn, error
	Encoding string // json for collectors, console for a terminal
	// Output is a file path. Empty means stdout.
	Output string
	// Service is stamped on every entry. Defaults to crappybird.
	Service string
}

// New builds the process logger. Unknown levels fall back to info and unknown
// encodings to json. Console output gets colored levels and short times; at
// debug level entries also carry their caller.
func New(cfg Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	logLevel := strings.ToLower(strings.TrimSpace(cfg.Level))
	if logLevel == "" {
		logLevel = "info"
	}
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q, using info: %v\n", cfg.Level, err)
		level.SetLevel(zap.InfoLevel)
	}

	encoding := strings.ToLower(strings.TrimSpace(cfg.Encoding))
	if encoding != "console" {
		encoding = "json"
	}

	output := strings.TrimSpace(cfg.Output)
	if output == "" {
		output = "stdout"
	}

	service := cfg.Service
	if service == "" {
		service = defaultService
	}

	zapConfig := zap.Config{
		Level:             level,
		DisableCaller:     level.Level() > zap.DebugLevel,
		DisableStacktrace: true,
		Encoding:          encoding,
		EncoderConfig:     encoderConfig(encoding, output == "stdout"),
		OutputPaths:       []string{output},
		ErrorOutputPaths:  []string{"stderr"},
		InitialFields:     map[string]interface{}{"service": service},
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

func encoderConfig(encoding string, terminal bool) zapcore.EncoderConfig {
	if encoding == "console" {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		if terminal {
			cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		return cfg
	}

	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeDuration = zapcore.MillisDurationEncoder
	return cfg
}
