package utilities

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LoggerConfig struct {
	Level string
	Dev   bool
	// File, when set, receives a copy of the log stream rotated daily.
	File       string
	MaxAgeDays int
}

func levelFromString(l string) zapcore.Level {
	switch l {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// InitLogger initializes and returns a *zap.Logger
func InitLogger(cfg LoggerConfig) (*zap.Logger, error) {
	lvl := levelFromString(cfg.Level)
	if cfg.Dev && cfg.File == "" {
		c := zap.NewDevelopmentConfig()
		c.Level = zap.NewAtomicLevelAt(lvl)
		return c.Build()
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cores := []zapcore.Core{zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(os.Stdout), lvl)}

	if cfg.File != "" {
		w, err := rotatingWriter(cfg.File, cfg.MaxAgeDays)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(w), lvl))
	}

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Dev {
		opts = append(opts, zap.Development())
	}
	return zap.New(zapcore.NewTee(cores...), opts...), nil
}

// rotatingWriter writes to path.YYYYMMDD and keeps path as a symlink to the
// current file.
func rotatingWriter(path string, maxAgeDays int) (*rotatelogs.RotateLogs, error) {
	if maxAgeDays <= 0 {
		maxAgeDays = 7
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	w, err := rotatelogs.New(
		path+".%Y%m%d",
		rotatelogs.WithLinkName(path),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(time.Duration(maxAgeDays)*24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("open rotating log: %w", err)
	}
	return w, nil
}
