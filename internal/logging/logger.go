package logging

// Structured logging for blecal, built on logrus with lumberjack rotation.

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelSilent LogLevel = iota
	LogLevelError
	LogLevelInfo
	LogLevelVerbose
	LogLevelDebug
)

const timestampFormat = "2006-01-02 15:04:05"

var levelNames = map[string]LogLevel{
	"silent":  LogLevelSilent,
	"error":   LogLevelError,
	"info":    LogLevelInfo,
	"verbose": LogLevelVerbose,
	"debug":   LogLevelDebug,
}

// ParseLevel converts a configured level name.
func ParseLevel(name string) (LogLevel, error) {
	if lvl, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return lvl, nil
	}
	return LogLevelInfo, fmt.Errorf("unknown log level %q (want silent, error, info, verbose or debug)", name)
}

func (l LogLevel) String() string {
	for name, v := range levelNames {
		if v == l {
			return name
		}
	}
	return "unknown"
}

// logrusLevel maps our levels onto logrus. Verbose is logrus debug and
// Debug is logrus trace.
func (l LogLevel) logrusLevel() logrus.Level {
	switch l {
	case LogLevelError:
		return logrus.ErrorLevel
	case LogLevelInfo:
		return logrus.InfoLevel
	case LogLevelVerbose:
		return logrus.DebugLevel
	case LogLevelDebug:
		return logrus.TraceLevel
	default:
		return logrus.PanicLevel
	}
}

// Options configures a Logger.
type Options struct {
	Level      LogLevel
	File       string // empty disables file output
	Format     string // "text" (default) or "json"
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	HexDump    bool // multi-line dumps instead of one-line hex

	// Console destinations; nil means os.Stdout / os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// Logger provides structured logging
type Logger struct {
	mu    sync.Mutex
	level   LogLevel
	hexDump bool
	log     *logrus.Logger
	file  *lumberjack.Logger
}

// NewLogger creates a logger writing text to logFile (if given) and the console.
func NewLogger(level LogLevel, logFile string) (*Logger, error) {
	return NewLoggerWithOptions(Options{Level: level, File: logFile})
}

// NewLoggerWithOptions creates a logger from opts.
func NewLoggerWithOptions(opts Options) (*Logger, error) {
	l := &Logger{level: opts.Level, hexDump: opts.HexDump, log: logrus.New()}
	l.log.SetLevel(opts.Level.logrusLevel())
	l.log.SetOutput(io.Discard)

	switch strings.ToLower(opts.Format) {
	case "", "text":
		l.log.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: timestampFormat,
			FullTimestamp:   true,
			DisableColors:   true,
		})
	case "json":
		l.log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timestampFormat})
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", opts.Format)
	}

	if opts.File != "" {
		dir := filepath.Dir(opts.File)
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("log directory: %w", err)
		}
		l.file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		l.log.SetOutput(l.file)
	}

	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	l.log.AddHook(&consoleHook{logger: l, stdout: stdout, stderr: stderr})
	return l, nil
}

// Close closes the logger and flushes all data
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.log.Errorf(format, v...)
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.log.Infof(format, v...)
}

// Verbose logs a verbose message
func (l *Logger) Verbose(format string, v ...interface{}) {
	l.log.Debugf(format, v...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.log.Tracef(format, v...)
}

// WithFields returns an entry carrying structured fields.
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.log.WithFields(logrus.Fields(fields))
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.log.SetLevel(level.logrusLevel())
}

// GetLevel returns the current logging level
func (l *Logger) GetLevel() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// LogFrame logs a frame at verbose level, with a hex dump at debug level.
func (l *Logger) LogFrame(direction string, oad byte, frame []byte) {
	l.WithFields(map[string]interface{}{
		"dir":   direction,
		"oad":   fmt.Sprintf("0x%02X", oad),
		"bytes": len(frame),
	}).Debug("frame")
	l.LogHex(direction, frame)
}

// LogHex logs hex data (for debug level)
func (l *Logger) LogHex(label string, data []byte) {
	if l.GetLevel() < LogLevelDebug {
		return
	}
	if l.hexDump {
		l.Debug("%s:\n%s", label, strings.TrimRight(HexDump(data, 16), "\n"))
		return
	}
	l.Debug("%s: % X", label, data)
}

// consoleHook mirrors entries to the terminal: errors always go to stderr,
// other levels to stdout only at verbose or debug.
type consoleHook struct {
	logger *Logger
	stdout io.Writer
	stderr io.Writer
}

func (h *consoleHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *consoleHook) Fire(entry *logrus.Entry) error {
	var w io.Writer
	switch {
	case entry.Level <= logrus.ErrorLevel:
		w = h.stderr
	case h.logger.GetLevel() >= LogLevelVerbose:
		w = h.stdout
	default:
		return nil
	}

	var b strings.Builder
	b.WriteString(consoleLabel(entry.Level))
	b.WriteString(": ")
	b.WriteString(entry.Message)
	for k, v := range entry.Data {
		fmt.Fprintf(&b, " %s=%v", k, v)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

func consoleLabel(level logrus.Level) string {
	switch level {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		return "ERROR"
	case logrus.WarnLevel:
		return "WARN"
	case logrus.InfoLevel:
		return "INFO"
	case logrus.DebugLevel:
		return "VERBOSE"
	default:
		return "DEBUG"
	}
}
