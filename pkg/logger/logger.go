// Package logger 基于zerolog构建应用日志
//
// 用法：
//
//	log, closer, err := logger.New(logger.Options{Level: "info", Format: "json", Output: "stdout"})
//	defer closer.Close()
//	log.Info().Uint("order_id", id).Msg("订单已创建")
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options 日志选项（与config.LogConfig字段一一对应）
type Options struct {
	Level        string // debug | info | warn | error
	Format       string // console | json
	Output       string // stdout | stderr | /path/to/file
	EnableCaller bool
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New 创建Logger
// 返回的io.Closer在输出为文件时负责关闭文件句柄
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	var (
		w      io.Writer
		closer io.Closer = nopCloser{}
	)
	switch opts.Output {
	case "", "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(opts.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("打开日志文件失败: %w", err)
		}
		w, closer = f, f
	}

	if opts.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}
	}

	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if opts.EnableCaller {
		ctx = ctx.Caller()
	}
	return ctx.Logger(), closer, nil
}

func parseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("无效的日志级别: %s", s)
	}
	return level, nil
}
