// Package logger 统一的日志入口
//
// 每个系统通过 For("RaceController") 取得带 system 字段的子日志器，
// 输出形如：
//
//	12:00:01 INF state changed from=tapToPlay system=RaceController to=countDown
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
	With().Timestamp().Logger().
	Level(zerolog.InfoLevel)

// Setup 设置输出与级别
// level 取值 debug/info/warn/error/disabled，无法识别时使用 info
func Setup(out io.Writer, level string) {
	if out == nil {
		out = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	base = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly, NoColor: out != os.Stderr}).
		With().Timestamp().Logger().
		Level(lvl)
}

// Discard 关闭所有日志输出（对应非 verbose 模式）
func Discard() {
	base = zerolog.Nop()
}

// For 返回指定系统的子日志器
func For(system string) zerolog.Logger {
	return base.With().Str("system", system).Logger()
}
