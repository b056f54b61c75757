package clog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// clogHandler 包装 slog.Handler，持有可动态调整的级别
type clogHandler struct {
	slog.Handler
	levelVar *slog.LevelVar
	closer   io.Closer
}

var levelColors = map[string]string{
	"DEBUG": "\033[36m",
	"INFO":  "\033[32m",
	"WARN":  "\033[33m",
	"ERROR": "\033[31m",
	"FATAL": "\033[35m",
}

const colorReset = "\033[0m"

// newHandler 构造顺序：writer -> handler options -> json/text handler -> 包装
func newHandler(config *Config, opts *options) (*clogHandler, error) {
	w, closer, err := resolveWriter(config, opts)
	if err != nil {
		return nil, err
	}

	level, _ := ParseLevel(config.Level)
	levelVar := new(slog.LevelVar)
	levelVar.Set(level.slogLevel())

	hopts := &slog.HandlerOptions{
		AddSource:   config.AddSource,
		Level:       levelVar,
		ReplaceAttr: newReplaceAttr(config),
	}

	var h slog.Handler
	if strings.ToLower(config.Format) == "json" {
		h = slog.NewJSONHandler(w, hopts)
	} else {
		h = slog.NewTextHandler(w, hopts)
	}

	return &clogHandler{Handler: h, levelVar: levelVar, closer: closer}, nil
}

func resolveWriter(config *Config, opts *options) (io.Writer, io.Closer, error) {
	switch strings.ToLower(config.Output) {
	case "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	case "buffer":
		if opts.writer == nil {
			return nil, nil, fmt.Errorf("buffer output requires WithWriter")
		}
		return opts.writer, nil, nil
	default:
		if dir := filepath.Dir(config.Output); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, err
			}
		}
		f, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		return f, f, nil
	}
}

// newReplaceAttr 统一处理 level、time、source 字段
func newReplaceAttr(config *Config) func(groups []string, a slog.Attr) slog.Attr {
	colored := config.EnableColor && strings.ToLower(config.Format) == "console"

	return func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) > 0 {
			return a
		}
		switch a.Key {
		case slog.LevelKey:
			name := levelName(a.Value.Any().(slog.Level))
			if colored {
				name = levelColors[name] + name + colorReset
			}
			a.Value = slog.StringValue(name)
		case slog.TimeKey:
			if a.Value.Kind() == slog.KindTime {
				a.Value = slog.StringValue(a.Value.Time().Format(timeFormat))
			}
		case slog.SourceKey:
			if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
				file := src.File
				if config.SourceRoot != "" {
					if idx := strings.Index(file, config.SourceRoot); idx >= 0 {
						file = file[idx:]
					}
				} else {
					file = filepath.Base(file)
				}
				a.Value = slog.StringValue(fmt.Sprintf("%s:%d", file, src.Line))
			}
		}
		return a
	}
}

func levelName(l slog.Level) string {
	switch {
	case l <= slog.LevelDebug:
		return "DEBUG"
	case l <= slog.LevelInfo:
		return "INFO"
	case l <= slog.LevelWarn:
		return "WARN"
	case l <= slog.LevelError:
		return "ERROR"
	default:
		return "FATAL"
	}
}

func (h *clogHandler) setLevel(level Level) {
	h.levelVar.Set(level.slogLevel())
}

func (h *clogHandler) flush() {
	if s, ok := h.closer.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}

// extractContextFields 从 Context 中提取配置的字段
func extractContextFields(ctx context.Context, opts *options, attrs []slog.Attr) []slog.Attr {
	if ctx == nil {
		return attrs
	}
	for _, cf := range opts.contextFields {
		if v := ctx.Value(cf.Key); v != nil {
			attrs = append(attrs, slog.Any(cf.FieldName, v))
		}
	}
	return attrs
}
