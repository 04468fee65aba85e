package logger

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//nolint:gochecknoglobals // One process-wide logger and level, reached through contexts.
var (
	// global is returned by FromContext when the context carries no logger.
	global *zap.SugaredLogger
	// sharedLevel is the threshold of every logger built without an explicit level.
	sharedLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
)

func init() { //nolint:gochecknoinits // Logging works before the settings are read.
	SetLogger(New(nil))
}

// consoleEncoder renders "time, LEVEL, name, caller, message, {fields}" lines.
func consoleEncoder() zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.MessageKey = "message"
	cfg.NameKey = "logger"
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	cfg.ConsoleSeparator = ", "

	return zapcore.NewConsoleEncoder(cfg)
}

// New builds a console logger on stdout. A nil level follows SetLevel.
func New(level zapcore.LevelEnabler, options ...zap.Option) *zap.SugaredLogger {
	return NewWithWriter(os.Stdout, level, options...)
}

// NewWithWriter is New with an explicit destination. The CLI logs to stderr so
// that its output stays parsable.
func NewWithWriter(w io.Writer, level zapcore.LevelEnabler, options ...zap.Option) *zap.SugaredLogger {
	if level == nil {
		level = sharedLevel
	}

	core := zapcore.NewCore(consoleEncoder(), zapcore.AddSync(w), level)

	return zap.New(core, options...).Sugar()
}

// ParseLogLevel converts a level name such as "debug" or "WARN". Empty and
// unknown names report false.
func ParseLogLevel(s string) (zapcore.Level, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zapcore.InfoLevel, false
	}

	level, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel, false
	}

	return level, true
}

// Logger returns the global logger.
func Logger() *zap.SugaredLogger {
	return global
}

// SetLogger replaces the global logger. Call it before goroutines start logging.
func SetLogger(l *zap.SugaredLogger) {
	global = l
}

// SetLevel changes the threshold of the loggers that follow the shared level.
func SetLevel(level zapcore.Level) {
	sharedLevel.SetLevel(level)
}
