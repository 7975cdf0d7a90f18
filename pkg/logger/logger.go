// Package logger 基于zap的结构化日志
//
// 配置项与config.LogConfig一一对应：
//   - level: debug | info | warn | error
//   - format: console（开发环境，彩色输出） | json（生产环境，便于ELK采集）
//   - output: stdout | stderr | 文件路径
//   - enable_caller: 是否输出调用位置
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options 日志选项
type Options struct {
	Level        string
	Format       string
	Output       string
	EnableCaller bool
}

// New 根据配置创建zap.Logger
func New(opts Options) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		return nil, fmt.Errorf("无效的日志级别 %q: %w", opts.Level, err)
	}

	var cfg zap.Config
	switch opts.Format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("无效的日志格式: %s", opts.Format)
	}

	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableCaller = !opts.EnableCaller
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")

	output := opts.Output
	if output == "" {
		output = "stdout"
	}
	cfg.OutputPaths = []string{output}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}

// Must 创建Logger，失败则panic（仅用于main）
func Must(opts Options) *zap.Logger {
	l, err := New(opts)
	if err != nil {
		panic(err)
	}
	return l
}
