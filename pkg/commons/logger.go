// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package commons

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// SEPARATOR is the delimiter used for multi-valued option strings
// (language lists, keyword lists).
const SEPARATOR = ","

// Logger is the application-wide logging contract. All components take a
// Logger rather than a concrete zap instance so tests can substitute a
// no-op implementation.
type Logger interface {
	Level() zapcore.Level
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	DPanic(args ...interface{})
	DPanicf(template string, args ...interface{})
	Panic(args ...interface{})
	Panicf(template string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(template string, args ...interface{})
	Benchmark(functionName string, duration time.Duration)
	Tracef(ctx context.Context, format string, args ...interface{})
	Sync() error
}

type applicationLogger struct {
	*zap.SugaredLogger
	level zapcore.Level
}

// LoggerOption configures the application logger.
type LoggerOption func(*loggerConfig)

type loggerConfig struct {
	level    zapcore.Level
	filePath string
}

// WithLevel sets the minimum level emitted by the logger.
func WithLevel(level zapcore.Level) LoggerOption {
	return func(c *loggerConfig) { c.level = level }
}

// WithRotatingFile mirrors log output into a size-rotated file.
func WithRotatingFile(path string) LoggerOption {
	return func(c *loggerConfig) { c.filePath = path }
}

// NewApplicationLogger builds the standard zap-backed logger. Output always
// goes to stdout; WithRotatingFile adds a lumberjack-rotated file sink.
func NewApplicationLogger(opts ...LoggerOption) (Logger, error) {
	cfg := loggerConfig{level: zapcore.DebugLevel}
	for _, opt := range opts {
		opt(&cfg)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), cfg.level),
	}
	if cfg.filePath != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.filePath,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotated), cfg.level))
	}

	zl := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	return &applicationLogger{
		SugaredLogger: zl.Sugar(),
		level:         cfg.level,
	}, nil
}

func (al *applicationLogger) Level() zapcore.Level {
	return al.level
}

// Benchmark logs the wall-clock duration of a named operation.
func (al *applicationLogger) Benchmark(functionName string, duration time.Duration) {
	al.Debugf("benchmark: %s took %s", functionName, duration)
}

// Tracef logs with request-scoped context. The context is accepted so call
// sites keep their shape if trace propagation is added later.
func (al *applicationLogger) Tracef(ctx context.Context, format string, args ...interface{}) {
	al.Debugf(format, args...)
}
