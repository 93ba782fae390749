// Package logging provides the process-wide logger used by jvmget.
//
// Messages emitted before InitLogger (while the configuration is still being
// read) go through PreLog and are buffered, then replayed once the real
// logger exists. Everything else uses the LogX helpers, which are backed by a
// zap SugaredLogger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFileName is the file created inside log_path when file logging is enabled
const LogFileName = "jvmget.log"

type preLogEntry struct {
	level   zapcore.Level
	message string
}

var (
	mu          sync.RWMutex
	sugar       = newConsoleLogger(os.Stderr, zapcore.InfoLevel, false)
	output      io.Writer = os.Stdout
	logFile     *os.File
	preLogs     []preLogEntry
	preLogLevel = zapcore.DebugLevel

	consoleLevel = zapcore.InfoLevel
	consoleJSON  bool
)

// ParseLevel converts a config log level to a zap level. Unknown values map to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339TimeEncoder,
		EncodeLevel: zapcore.CapitalLevelEncoder,
	}
}

func newEncoder(jsonFormat bool) zapcore.Encoder {
	if jsonFormat {
		return zapcore.NewJSONEncoder(encoderConfig())
	}
	cfg := encoderConfig()
	cfg.TimeKey = ""
	return zapcore.NewConsoleEncoder(cfg)
}

func newConsoleLogger(w io.Writer, level zapcore.Level, jsonFormat bool) *zap.SugaredLogger {
	core := zapcore.NewCore(newEncoder(jsonFormat), zapcore.AddSync(w), level)
	return zap.New(core).Sugar()
}

// InitLogger builds the process logger. When logPath is set, entries are also
// written as JSON to logPath/jvmget.log regardless of the console format.
func InitLogger(logPath, level string, jsonFormat bool) error {
	lvl := ParseLevel(level)
	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(jsonFormat), zapcore.AddSync(os.Stderr), lvl),
	}

	var file *os.File
	if logPath != "" {
		if err := os.MkdirAll(logPath, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(logPath, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		cores = append(cores, zapcore.NewCore(newEncoder(true), zapcore.AddSync(f), lvl))
	}

	mu.Lock()
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = file
	consoleLevel, consoleJSON = lvl, jsonFormat
	sugar = zap.New(zapcore.NewTee(cores...)).Sugar()
	pending := preLogs
	preLogs = nil
	current := sugar
	mu.Unlock()

	for _, entry := range pending {
		current.Logf(entry.level, "%s", entry.message)
	}
	return nil
}

// SetLogger replaces the process logger. Mostly useful in tests.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	sugar = l.Sugar()
	mu.Unlock()
}

// SetOutput redirects LogOutput, used for user-facing command output.
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
}

// Logger returns the current sugared logger, for callers that want fields.
func Logger() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Sync flushes buffered entries and closes the log file. Later entries only
// go to the console.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	_ = sugar.Sync()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
		sugar = newConsoleLogger(os.Stderr, consoleLevel, consoleJSON)
	}
}

// SetPreLogLevel filters buffered PreLog entries below level
func SetPreLogLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	preLogLevel = ParseLevel(level)
	kept := preLogs[:0]
	for _, entry := range preLogs {
		if entry.level >= preLogLevel {
			kept = append(kept, entry)
		}
	}
	preLogs = kept
}

// PreLog buffers a message until InitLogger is called
func PreLog(level, format string, args ...interface{}) {
	lvl := ParseLevel(level)
	mu.Lock()
	defer mu.Unlock()
	if lvl < preLogLevel {
		return
	}
	preLogs = append(preLogs, preLogEntry{level: lvl, message: fmt.Sprintf(format, args...)})
}

func LogDebug(format string, args ...interface{}) {
	Logger().Debugf(format, args...)
}

func LogInfo(format string, args ...interface{}) {
	Logger().Infof(format, args...)
}

func LogWarn(format string, args ...interface{}) {
	Logger().Warnf(format, args...)
}

func LogError(format string, args ...interface{}) {
	Logger().Errorf(format, args...)
}

// LogOutput prints user-facing output, never filtered by level
func LogOutput(format string, args ...interface{}) {
	mu.RLock()
	w := output
	mu.RUnlock()
	if len(args) == 0 {
		fmt.Fprintln(w, format)
		return
	}
	fmt.Fprintf(w, format+"\n", args...)
}
