// Package zaplogger builds the engine's zap.Logger from a Viper-bound
// config block.
package zaplogger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config mapstructure is for Viper to unmarshal.
type Config struct {
	Development       bool     `mapstructure:"development"`
	Level             string   `mapstructure:"level"`
	Encoding          string   `mapstructure:"encoding"`
	DisableCaller     bool     `mapstructure:"disable_caller"`
	DisableStacktrace bool     `mapstructure:"disable_stacktrace"`
	DisableColor      bool     `mapstructure:"disable_color"`
	OutputPaths       []string `mapstructure:"output_paths"`
	ErrorOutputPaths  []string `mapstructure:"error_output_paths"`
}

// New returns an initialised logger, exiting the process on an unusable
// config since nothing can be reported without a logger.
func New(logCfg *Config) *zap.Logger {
	level := logCfg.Level
	if level == "" {
		level = "info"
	}
	var zapLvl zapcore.Level
	if err := zapLvl.UnmarshalText([]byte(level)); err != nil {
		fmt.Println("Incorrect logging.level value,", logCfg.Level)
		os.Exit(1)
	}

	encoding := logCfg.Encoding
	if encoding == "" {
		encoding = "console"
	}
	outputs := logCfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}
	errOutputs := logCfg.ErrorOutputPaths
	if len(errOutputs) == 0 {
		errOutputs = []string{"stderr"}
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		MessageKey:     "message",
		LevelKey:       "severity",
		CallerKey:      "caller",
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}
	if logCfg.DisableColor || encoding == "json" {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(zapLvl),
		Development:       logCfg.Development,
		DisableCaller:     logCfg.DisableCaller,
		DisableStacktrace: logCfg.DisableStacktrace,
		Encoding:          encoding,
		EncoderConfig:     encoderCfg,
		OutputPaths:       outputs,
		ErrorOutputPaths:  errOutputs,
	}
	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Println("Failure initialising logger:", err)
		os.Exit(1)
	}
	return logger
}
