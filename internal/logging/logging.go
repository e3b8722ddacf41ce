// Package logging 提供结构化日志构建与fx模块
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/antigravity/bountyboard/internal/config"
)

// 轮转默认参数
const (
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 10
	defaultMaxAgeDays = 30
)

// levelMap 配置级别到zap级别的映射
var levelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"fatal": zapcore.FatalLevel,
}

// Build 根据配置构建日志器
//
// 控制台与文件输出可同时启用；文件输出带轮转
func Build(opts config.LogOptions) (*zap.Logger, error) {
	level, ok := levelMap[opts.Level]
	if !ok {
		level = zapcore.InfoLevel
	}

	var cores []zapcore.Core

	if opts.ToConsole {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleEncoder := zapcore.NewConsoleEncoder(encoderConfig)
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), zap.NewAtomicLevelAt(level)))
	}

	if opts.FilePath != "" {
		writer, err := createFileWriter(opts)
		if err != nil {
			return nil, err
		}
		fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEncoder, writer, zap.NewAtomicLevelAt(level)))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	logger := zap.New(zapcore.NewTee(cores...))
	if opts.EnableCaller {
		logger = logger.WithOptions(zap.AddCaller())
	}
	return logger, nil
}

// createFileWriter 创建带轮转的日志文件写入器
func createFileWriter(opts config.LogOptions) (zapcore.WriteSyncer, error) {
	logDir := filepath.Dir(opts.FilePath)
	if err := os.MkdirAll(logDir, 0o700); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", logDir, err)
	}

	maxSize, maxBackups, maxAge := opts.MaxSizeMB, opts.MaxBackups, opts.MaxAgeDays
	if maxSize <= 0 {
		maxSize = defaultMaxSizeMB
	}
	if maxBackups <= 0 {
		maxBackups = defaultMaxBackups
	}
	if maxAge <= 0 {
		maxAge = defaultMaxAgeDays
	}

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   opts.FilePath,
		MaxSize:    maxSize, // MB
		MaxBackups: maxBackups,
		MaxAge:     maxAge, // 天
		Compress:   opts.Compress,
	}), nil
}

// Module 返回日志模块
func Module() fx.Option {
	return fx.Module("logging",
		fx.Provide(func(cfg *config.AppConfig) (*zap.Logger, error) {
			return Build(cfg.Log)
		}),
		fx.Invoke(func(lc fx.Lifecycle, logger *zap.Logger) {
			lc.Append(fx.StopHook(func() {
				_ = logger.Sync()
			}))
		}),
	)
}
