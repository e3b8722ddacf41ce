// Package ui 提供命令行基础 UI 组件
package ui

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger 日志接口（适配器，解耦 UI 组件与具体日志实现）
//
// 不需要日志时可传入 NoopLogger()
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})

	Info(msg string)
	Infof(format string, args ...interface{})

	Warn(msg string)
	Warnf(format string, args ...interface{})

	Error(msg string)
	Errorf(format string, args ...interface{})
}

// noopLogger 空日志实现
type noopLogger struct{}

func (l *noopLogger) Debug(_ string)                          {}
func (l *noopLogger) Debugf(_ string, _ ...interface{})       {}
func (l *noopLogger) Info(_ string)                           {}
func (l *noopLogger) Infof(_ string, _ ...interface{})        {}
func (l *noopLogger) Warn(_ string)                           {}
func (l *noopLogger) Warnf(_ string, _ ...interface{})        {}
func (l *noopLogger) Error(_ string)                          {}
func (l *noopLogger) Errorf(_ string, _ ...interface{})       {}

// NoopLogger 返回空日志实例
func NoopLogger() Logger {
	return &noopLogger{}
}

// consoleLogger 基于zerolog的控制台日志实现，用于verbose模式
type consoleLogger struct {
	log zerolog.Logger
}

// NewConsoleLogger 创建控制台日志实例
func NewConsoleLogger(verbose bool) Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
	return &consoleLogger{log: log}
}

func (l *consoleLogger) Debug(msg string) { l.log.Debug().Msg(msg) }
func (l *consoleLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}
func (l *consoleLogger) Info(msg string) { l.log.Info().Msg(msg) }
func (l *consoleLogger) Infof(format string, args ...interface{}) {
	l.log.Info().Msgf(format, args...)
}
func (l *consoleLogger) Warn(msg string) { l.log.Warn().Msg(msg) }
func (l *consoleLogger) Warnf(format string, args ...interface{}) {
	l.log.Warn().Msgf(format, args...)
}
func (l *consoleLogger) Error(msg string) { l.log.Error().Msg(msg) }
func (l *consoleLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}
