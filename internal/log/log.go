package log

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Field = zap.Field

type Config struct {
	Name string `conf:"name" yaml:"name" json:"name"`

	// Level is one of debug, info, warn, error.
	Level string `conf:"level" yaml:"level" json:"level"`

	// Encoding is json or console.
	Encoding string `conf:"encoding" yaml:"encoding" json:"encoding"`

	Debug bool `conf:"debug" yaml:"debug" json:"debug"`
}

// Hook can add fields derived from the context to every log entry.
type Hook interface {
	Apply(ctx context.Context, msg string, fields ...Field) []Field
}

type HookFunc func(ctx context.Context, msg string, fields ...Field) []Field

func (f HookFunc) Apply(ctx context.Context, msg string, fields ...Field) []Field {
	return f(ctx, msg, fields...)
}

type Logger struct {
	logger *zap.Logger
	level  zap.AtomicLevel

	mu    sync.RWMutex
	hooks []Hook
}

func New(cfg Config) *Logger {
	level := zap.NewAtomicLevelAt(parseLevel(cfg))

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Encoding == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)

	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))
	if cfg.Name != "" {
		logger = logger.Named(cfg.Name)
	}

	return &Logger{logger: logger, level: level}
}

// NewWithZap wraps an existing zap logger, mostly for tests with zaptest/observer.
func NewWithZap(logger *zap.Logger) *Logger {
	return &Logger{logger: logger, level: zap.NewAtomicLevelAt(zapcore.DebugLevel)}
}

func parseLevel(cfg Config) zapcore.Level {
	if cfg.Debug {
		return zapcore.DebugLevel
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return zapcore.InfoLevel
	}

	return level
}

func (l *Logger) AddHook(hook Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.hooks = append(l.hooks, hook)
}

func (l *Logger) applyHooks(ctx context.Context, msg string, fields []Field) []Field {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, hook := range l.hooks {
		fields = hook.Apply(ctx, msg, fields...)
	}

	return fields
}

func (l *Logger) DebugEnabled() bool {
	return l.logger.Core().Enabled(zapcore.DebugLevel)
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.DebugLevel, msg, fields)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.InfoLevel, msg, fields)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.WarnLevel, msg, fields)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.ErrorLevel, msg, fields)
}

func (l *Logger) log(ctx context.Context, level zapcore.Level, msg string, fields []Field) {
	if ce := l.logger.Check(level, msg); ce != nil {
		ce.Write(l.applyHooks(ctx, msg, fields)...)
	}
}

func (l *Logger) Sync() error {
	return l.logger.Sync()
}

var globalLogger atomic.Pointer[Logger]

func init() {
	globalLogger.Store(New(Config{Level: "info"}))
}

// SetGlobalConfig replaces the global logger with one built from cfg.
func SetGlobalConfig(cfg Config) *Logger {
	logger := New(cfg)
	globalLogger.Store(logger)

	return logger
}

func SetDefault(logger *Logger) {
	globalLogger.Store(logger)
}

func GetGlobalLogger() *Logger {
	return globalLogger.Load()
}

func DebugEnabled(ctx context.Context) bool {
	return GetGlobalLogger().DebugEnabled()
}

func Debug(ctx context.Context, msg string, fields ...Field) {
	GetGlobalLogger().Debug(ctx, msg, fields...)
}

func Info(ctx context.Context, msg string, fields ...Field) {
	GetGlobalLogger().Info(ctx, msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...Field) {
	GetGlobalLogger().Warn(ctx, msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...Field) {
	GetGlobalLogger().Error(ctx, msg, fields...)
}
