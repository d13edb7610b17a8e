// Package logging provides the shared zap logger, with rotating file
// output matching the backend's operational defaults (100MB per file,
// 10 backups).
package logging

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"autobahn/internal/config"
)

var L *zap.SugaredLogger

func init() {
	L = NewConsole()
}

func encoderConfig() zapcore.EncoderConfig {
	c := zap.NewProductionEncoderConfig()
	c.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	return c
}

// NewConsole returns a stderr-only logger, used before config is loaded
// and by the supervisor binary.
func NewConsole() *zap.SugaredLogger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.Lock(os.Stderr),
		zap.InfoLevel,
	)
	return zap.New(core).Sugar()
}

// Setup builds the process-wide logger from config and installs it as L.
// File output rotates by size; debug mode adds a console sink.
func Setup(cfg config.LogConfig, debug bool) (*zap.SugaredLogger, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	// Date-stamped file name, e.g. 20260115_1917_app.log.
	name := time.Now().Format("20060102_1504") + "_" + cfg.FileName
	fileSink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, name),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.BackupCount,
	})

	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), fileSink, level),
	}
	if debug {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig()),
			zapcore.Lock(os.Stderr),
			level,
		))
	}

	logger := zap.New(zapcore.NewTee(cores...)).Sugar()
	L = logger
	return logger, nil
}
