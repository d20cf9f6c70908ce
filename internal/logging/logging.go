package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"ble-link.klederson.com/internal/config"
	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the application logger. The TUI owns the terminal, so output
// goes to a rotating file unless cfg.File is "stderr". Close the returned
// closer on shutdown.
func New(cfg config.LogConfig, version string) (*slog.Logger, io.Closer, error) {
	level, err := config.ParseLogLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		w       io.Writer
		closer  io.Closer = nopCloser{}
		noColor          = true
	)
	switch strings.ToLower(cfg.File) {
	case "stderr":
		w = os.Stderr
		noColor = false
	default:
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		w, closer = lj, lj
	}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		h = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    noColor,
		})
	}

	return slog.New(h).With("app", config.AppName, "version", version), closer, nil
}
