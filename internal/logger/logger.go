package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ducminhle1904/trend-rsi-backtest/pkg/types"
)

// LogLevel represents different types of log entries
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARN"
	LogLevelError   LogLevel = "ERROR"
	LogLevelTrade   LogLevel = "TRADE"
	LogLevelStatus  LogLevel = "STATUS"
)

// Options configures a Logger.
type Options struct {
	// Dir receives a daily log file. Empty disables file output.
	Dir string
	// Session names the run in the file name and the session header.
	Session string
	// Level is a zap level name, "info" when empty.
	Level string
	// Console receives human readable output. Nil disables it.
	Console io.Writer
}

// Logger writes levelled run logs to the console and an optional file.
type Logger struct {
	zl      *zap.Logger
	file    *os.File
	path    string
	session string
	started time.Time
}

// New builds a logger from opts and writes the session header.
func New(opts Options) (*Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	session := opts.Session
	if session == "" {
		session = "backtest"
	}

	var cores []zapcore.Core
	l := &Logger{session: session, started: time.Now()}

	if opts.Console != nil {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(opts.Console), level))
	}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		filename := fmt.Sprintf("%s_%s.log", session, l.started.Format("2006-01-02"))
		l.path = filepath.Join(opts.Dir, filename)

		file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = file

		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), level))
	}

	if len(cores) == 0 {
		l.zl = zap.NewNop()
	} else {
		l.zl = zap.New(zapcore.NewTee(cores...)).With(zap.String("session", session))
	}

	l.writeSessionHeader()
	return l, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zap.NewNop(), session: "nop", started: time.Now()}
}

// Zap exposes the underlying logger for libraries that take one.
func (l *Logger) Zap() *zap.Logger {
	return l.zl
}

// Path is the log file path, empty when file output is off.
func (l *Logger) Path() string {
	return l.path
}

// Named returns a child logger tagged with a component name.
func (l *Logger) Named(component string) *Logger {
	child := *l
	child.zl = l.zl.Named(component)
	return &child
}

// With returns a child logger carrying extra key/value fields.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	child := *l
	child.zl = l.zl.Sugar().With(keysAndValues...).Desugar()
	return &child
}

func (l *Logger) writeSessionHeader() {
	l.zl.Info("session started",
		zap.String("kind", strings.ToLower(string(LogLevelStatus))),
		zap.Time("started", l.started),
		zap.String("log_file", l.path),
	)
}

// Log writes a formatted entry at the given level.
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	switch level {
	case LogLevelWarning:
		l.zl.Warn(msg)
	case LogLevelError:
		l.zl.Error(msg)
	case LogLevelTrade, LogLevelStatus:
		l.zl.Info(msg, zap.String("kind", strings.ToLower(string(level))))
	default:
		l.zl.Info(msg)
	}
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// Trade logs a trading action
func (l *Logger) Trade(format string, args ...interface{}) {
	l.Log(LogLevelTrade, format, args...)
}

// Status logs run status information
func (l *Logger) Status(format string, args ...interface{}) {
	l.Log(LogLevelStatus, format, args...)
}

// LogTradeExecution records one ledger event with structured fields.
func (l *Logger) LogTradeExecution(symbol string, ev types.TradeEvent) {
	l.zl.Debug("trade executed",
		zap.String("kind", "trade"),
		zap.String("symbol", symbol),
		zap.String("action", string(ev.Action)),
		zap.String("date", ev.Date.Format("2006-01-02")),
		zap.Float64("amount", ev.Amount),
		zap.Float64("price", ev.Price),
		zap.String("reason", ev.Reason),
	)
}

// Close writes the session footer and releases the log file.
func (l *Logger) Close() error {
	l.zl.Info("session ended",
		zap.String("kind", strings.ToLower(string(LogLevelStatus))),
		zap.Duration("duration", time.Since(l.started).Round(time.Millisecond)),
	)
	_ = l.zl.Sync()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}
