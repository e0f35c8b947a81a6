// Package logging provides structured logging channels for checkout page
// operations with performance correlation.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Channel represents a logical logging channel for a system component
type Channel string

const (
	// System channels
	ChannelSystem   Channel = "system"
	ChannelStartup  Channel = "startup"
	ChannelShutdown Channel = "shutdown"

	// Business logic channels
	ChannelContent Channel = "content" // pages and the element editor
	ChannelRender  Channel = "render"  // checkout and preview rendering
	ChannelPayment Channel = "payment"
	ChannelAI      Channel = "ai"
	ChannelCache   Channel = "cache"

	// Infrastructure channels
	ChannelDatabase Channel = "database"
	ChannelGateway  Channel = "gateway" // payment gateway HTTP traffic
	ChannelMedia    Channel = "media"
	ChannelEmail    Channel = "email"
	ChannelRealtime Channel = "realtime" // websocket status push

	// Performance and monitoring channels
	ChannelPerf      Channel = "performance"
	ChannelSlowQuery Channel = "slow-query"
	ChannelAlert     Channel = "alert"

	ChannelDebug Channel = "debug"
)

// AllChannels lists every channel the logger creates.
var AllChannels = []Channel{
	ChannelSystem, ChannelStartup, ChannelShutdown,
	ChannelContent, ChannelRender, ChannelPayment, ChannelAI, ChannelCache,
	ChannelDatabase, ChannelGateway, ChannelMedia, ChannelEmail, ChannelRealtime,
	ChannelPerf, ChannelSlowQuery, ChannelAlert,
	ChannelDebug,
}

// ChanneledLogger provides structured logging with multiple channels
type ChanneledLogger struct {
	mu       sync.RWMutex
	channels map[Channel]*slog.Logger
	files    map[Channel]*os.File
	config   *LoggerConfig
}

// LoggerConfig contains configuration options for the channeled logger
type LoggerConfig struct {
	OutputToFile    bool
	OutputToConsole bool
	LogDirectory    string

	JSONFormat    bool
	IncludeSource bool

	DefaultLevel  slog.Level
	ChannelLevels map[Channel]slog.Level

	// Writer replaces console output when set.
	Writer io.Writer
}

// DefaultLoggerConfig returns the default configuration
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		OutputToFile:    false,
		OutputToConsole: true,
		LogDirectory:    "logs",
		JSONFormat:      true,
		IncludeSource:   false,
		DefaultLevel:    slog.LevelInfo,
		ChannelLevels:   make(map[Channel]slog.Level),
	}
}

// NewChanneledLogger creates a new channeled logger with the given configuration
func NewChanneledLogger(config *LoggerConfig) (*ChanneledLogger, error) {
	if config == nil {
		config = DefaultLoggerConfig()
	}
	if config.ChannelLevels == nil {
		config.ChannelLevels = make(map[Channel]slog.Level)
	}

	logger := &ChanneledLogger{
		channels: make(map[Channel]*slog.Logger),
		files:    make(map[Channel]*os.File),
		config:   config,
	}

	if config.OutputToFile {
		if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	for _, channel := range AllChannels {
		channelLogger, err := logger.createChannelLogger(channel)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger for channel %s: %w", channel, err)
		}
		logger.channels[channel] = channelLogger
	}

	return logger, nil
}

// NewDiscardLogger returns a logger that drops every record. Used by tests and
// by components constructed without a logger.
func NewDiscardLogger() *ChanneledLogger {
	logger, _ := NewChanneledLogger(&LoggerConfig{
		Writer:       io.Discard,
		DefaultLevel: slog.LevelError + 4,
	})
	return logger
}

// ParseLevel converts a level name (debug, info, warn, error) to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(name)))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

// createChannelLogger must be called with mu held or before the logger is shared.
func (cl *ChanneledLogger) createChannelLogger(channel Channel) (*slog.Logger, error) {
	level := cl.config.DefaultLevel
	if channelLevel, exists := cl.config.ChannelLevels[channel]; exists {
		level = channelLevel
	}

	var writers []io.Writer
	switch {
	case cl.config.Writer != nil:
		writers = append(writers, cl.config.Writer)
	case cl.config.OutputToConsole:
		writers = append(writers, os.Stdout)
	}

	if cl.config.OutputToFile {
		file, ok := cl.files[channel]
		if !ok {
			path := filepath.Join(cl.config.LogDirectory, fmt.Sprintf("%s.log", channel))
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
			}
			cl.files[channel] = f
			file = f
		}
		writers = append(writers, file)
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = os.Stdout
	case 1:
		writer = writers[0]
	default:
		writer = io.MultiWriter(writers...)
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cl.config.IncludeSource,
	}

	var handler slog.Handler
	if cl.config.JSONFormat {
		handler = slog.NewJSONHandler(writer, handlerOpts)
	} else {
		handler = slog.NewTextHandler(writer, handlerOpts)
	}

	return slog.New(handler).With(slog.String("channel", string(channel))), nil
}

func (cl *ChanneledLogger) System() *slog.Logger    { return cl.GetChannel(ChannelSystem) }
func (cl *ChanneledLogger) Startup() *slog.Logger   { return cl.GetChannel(ChannelStartup) }
func (cl *ChanneledLogger) Shutdown() *slog.Logger  { return cl.GetChannel(ChannelShutdown) }
func (cl *ChanneledLogger) Content() *slog.Logger   { return cl.GetChannel(ChannelContent) }
func (cl *ChanneledLogger) Render() *slog.Logger    { return cl.GetChannel(ChannelRender) }
func (cl *ChanneledLogger) Payment() *slog.Logger   { return cl.GetChannel(ChannelPayment) }
func (cl *ChanneledLogger) AI() *slog.Logger        { return cl.GetChannel(ChannelAI) }
func (cl *ChanneledLogger) Cache() *slog.Logger     { return cl.GetChannel(ChannelCache) }
func (cl *ChanneledLogger) Database() *slog.Logger  { return cl.GetChannel(ChannelDatabase) }
func (cl *ChanneledLogger) Gateway() *slog.Logger   { return cl.GetChannel(ChannelGateway) }
func (cl *ChanneledLogger) Media() *slog.Logger     { return cl.GetChannel(ChannelMedia) }
func (cl *ChanneledLogger) Email() *slog.Logger     { return cl.GetChannel(ChannelEmail) }
func (cl *ChanneledLogger) Realtime() *slog.Logger  { return cl.GetChannel(ChannelRealtime) }
func (cl *ChanneledLogger) Perf() *slog.Logger      { return cl.GetChannel(ChannelPerf) }
func (cl *ChanneledLogger) SlowQuery() *slog.Logger { return cl.GetChannel(ChannelSlowQuery) }
func (cl *ChanneledLogger) Alert() *slog.Logger     { return cl.GetChannel(ChannelAlert) }
func (cl *ChanneledLogger) Debug() *slog.Logger     { return cl.GetChannel(ChannelDebug) }

// GetChannel returns the logger for a channel, falling back to system
func (cl *ChanneledLogger) GetChannel(channel Channel) *slog.Logger {
	cl.mu.RLock()
	defer cl.mu.RUnlock()

	if logger, exists := cl.channels[channel]; exists {
		return logger
	}
	return cl.channels[ChannelSystem]
}

// LogSlowQuery logs a slow database query
func (cl *ChanneledLogger) LogSlowQuery(query string, duration time.Duration, operation string) {
	cl.SlowQuery().Warn("Slow query detected",
		slog.String("query", sanitizeQuery(query)),
		slog.Duration("duration", duration),
		slog.String("operation", operation),
	)
}

// LogCacheOperation logs a cache lookup
func (cl *ChanneledLogger) LogCacheOperation(operation, key string, hit bool, duration time.Duration) {
	logger := cl.Cache().With(
		slog.String("operation", operation),
		slog.String("key", key),
		slog.Bool("hit", hit),
		slog.Duration("duration", duration),
	)

	if hit {
		logger.Debug("Cache hit")
	} else {
		logger.Debug("Cache miss")
	}
}

// LogError logs an error with operation context on the given channel
func (cl *ChanneledLogger) LogError(channel Channel, operation string, err error, metadata map[string]any) {
	logger := cl.GetChannel(channel).With(
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)

	for key, value := range metadata {
		logger = logger.With(slog.Any(key, value))
	}

	logger.Error("Operation failed")
}

// LogStartupPhase logs an application startup phase
func (cl *ChanneledLogger) LogStartupPhase(phase string, duration time.Duration, success bool) {
	logger := cl.Startup().With(
		slog.String("phase", phase),
		slog.Duration("duration", duration),
		slog.Bool("success", success),
	)

	if success {
		logger.Info("Startup phase completed")
	} else {
		logger.Error("Startup phase failed")
	}
}

// MaskTaxID keeps only the last two digits of a taxpayer id.
func MaskTaxID(taxID string) string {
	if len(taxID) <= 2 {
		return "***"
	}
	return strings.Repeat("*", len(taxID)-2) + taxID[len(taxID)-2:]
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

func sanitizeQuery(query string) string {
	query = strings.ReplaceAll(query, "\n", " ")
	query = strings.ReplaceAll(query, "\t", " ")
	query = strings.Join(strings.Fields(query), " ")

	if len(query) > 500 {
		query = query[:500] + "..."
	}
	return query
}

// Close closes the channel log files
func (cl *ChanneledLogger) Close() error {
	cl.System().Info("Channeled logger shutting down")

	cl.mu.Lock()
	defer cl.mu.Unlock()

	var firstErr error
	for channel, f := range cl.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close log file for %s: %w", channel, err)
		}
		delete(cl.files, channel)
	}
	return firstErr
}

// SetChannelLevel dynamically sets the log level for a specific channel
func (cl *ChanneledLogger) SetChannelLevel(channel Channel, level slog.Level) error {
	cl.mu.Lock()

	if _, exists := cl.channels[channel]; !exists {
		cl.mu.Unlock()
		return fmt.Errorf("channel %s does not exist", channel)
	}

	cl.config.ChannelLevels[channel] = level

	newLogger, err := cl.createChannelLogger(channel)
	if err != nil {
		cl.mu.Unlock()
		return fmt.Errorf("failed to recreate logger for channel %s: %w", channel, err)
	}
	cl.channels[channel] = newLogger
	cl.mu.Unlock()

	cl.System().Info("Channel log level updated dynamically",
		slog.String("channel", string(channel)),
		slog.String("level", level.String()),
	)
	return nil
}

// GetChannelLevels returns the current log level of every channel.
func (cl *ChanneledLogger) GetChannelLevels() map[string]string {
	cl.mu.RLock()
	defer cl.mu.RUnlock()

	levels := make(map[string]string, len(cl.channels))
	for channel := range cl.channels {
		if level, ok := cl.config.ChannelLevels[channel]; ok {
			levels[string(channel)] = level.String()
		} else {
			levels[string(channel)] = cl.config.DefaultLevel.String()
		}
	}
	return levels
}

// ChannelNames returns the sorted channel names.
func (cl *ChanneledLogger) ChannelNames() []string {
	cl.mu.RLock()
	defer cl.mu.RUnlock()

	names := make([]string, 0, len(cl.channels))
	for channel := range cl.channels {
		names = append(names, string(channel))
	}
	sort.Strings(names)
	return names
}
