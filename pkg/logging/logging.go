// Package logging 构建进程统一的 zerolog 日志器。
// 开发环境输出人类可读的控制台格式，其余环境输出 JSON 便于采集。
// 不持有全局状态：调用方拿到 Logger 后通过构造函数逐层下发。
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// 运行环境取值
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// New 按运行环境与级别构建日志器。
// level 为空时默认 info；writers 非空时输出重定向到 MultiWriter（测试用）。
func New(env, level string, writers ...io.Writer) (zerolog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}

	var output io.Writer
	switch {
	case len(writers) > 0:
		output = io.MultiWriter(writers...)
	case strings.EqualFold(env, EnvDevelopment) || strings.EqualFold(env, "dev"):
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	default:
		output = os.Stdout
	}

	return zerolog.New(output).With().Timestamp().Logger().Level(lvl), nil
}

// Component 派生带组件名的子日志器，各模块用它标记自己的日志来源。
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

func parseLevel(level string) (zerolog.Level, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(strings.ToLower(level))
}
