package logger

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"ambulancewatch/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// Logger provides leveled logging (debug/info/warning/error) to rotated files and stdout/stderr.
type Logger struct {
	sugar  *zap.SugaredLogger
	logDir string
	files  []*lumberjack.Logger
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(cfg *config.Config) *Logger {
	if err := os.MkdirAll(cfg.LogDirectory, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	l := &Logger{logDir: cfg.LogDirectory}
	l.sugar = l.setupCore(parseLevel(cfg.LogLevel))
	return l
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// setupCore tees a console encoder over stdout/stderr and one rotated file per level.
func (l *Logger) setupCore(min zapcore.Level) *zap.SugaredLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	enc := zapcore.NewConsoleEncoder(encCfg)

	infoLevels := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl >= min && lvl < zapcore.WarnLevel })
	warnLevels := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl >= min && lvl == zapcore.WarnLevel })
	errorLevels := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl >= min && lvl >= zapcore.ErrorLevel })
	stdoutLevels := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl >= min && lvl < zapcore.ErrorLevel })

	core := zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.Lock(os.Stdout), stdoutLevels),
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), errorLevels),
		zapcore.NewCore(enc, zapcore.AddSync(l.openLogFile(InfoFile)), infoLevels),
		zapcore.NewCore(enc, zapcore.AddSync(l.openLogFile(WarningFile)), warnLevels),
		zapcore.NewCore(enc, zapcore.AddSync(l.openLogFile(ErrorFile)), errorLevels),
	)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// openLogFile returns a size-rotated writer for a file in the log directory.
func (l *Logger) openLogFile(filename string) *lumberjack.Logger {
	w := &lumberjack.Logger{
		Filename:   filepath.Join(l.logDir, filename),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
	}
	l.files = append(l.files, w)
	return w
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
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

// Debug writes a formatted debug-level log entry.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.sugar.Debugf(format, v...)
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// Dir returns the directory the log files live in.
func (l *Logger) Dir() string {
	return l.logDir
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	path := filepath.Join(l.logDir, filepath.Base(fileName))

	// Writer must let go of its offset, otherwise the next entry lands past a hole of NULs.
	// It reopens the file in append mode on the next write.
	for _, f := range l.files {
		if f.Filename == path {
			if err := f.Close(); err != nil {
				l.Error("Error closing log file %s: %v", fileName, err)
				return err
			}
		}
	}

	if err := os.Truncate(path, 0); err != nil {
		l.Error("Error truncating log file %s: %v", fileName, err)
		return err
	}
	l.Info("Log file %s has been cleared", fileName)
	return nil
}

// Close flushes buffered entries and closes the rotated files.
func (l *Logger) Close() error {
	_ = l.sugar.Sync()
	for _, f := range l.files {
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
