// Package logging provides zap logger helpers.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a console zap.Logger on stdout and, when logFile is non-empty,
// tees the same output into the crawl log file at debug level. The file
// keeps the plain console format so a later audit run can recover the
// mirror root from it. The returned func closes the file sink.
func New(development bool, logFile string) (*zap.Logger, func(), error) {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = "ts"

	consoleLevel := zapcore.InfoLevel
	if development {
		consoleLevel = zapcore.DebugLevel
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), consoleLevel),
	}

	cleanup := func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file %s: %w", logFile, err)
		}
		cores = append(cores,
			zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(zapcore.AddSync(f)), zapcore.DebugLevel))
		cleanup = func() { _ = f.Close() }
	}

	return zap.New(zapcore.NewTee(cores...)), cleanup, nil
}
