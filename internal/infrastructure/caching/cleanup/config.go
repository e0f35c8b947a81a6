package cleanup

import (
	"time"

	"github.com/pixpage/pixpage/pkg/config"
)

// Config holds cleanup worker configuration, sourced from the central config package.
type Config struct {
	CleanupInterval  time.Duration
	PageCacheTTL     time.Duration
	FragmentCacheTTL time.Duration
	VerboseReporting bool
}

// NewConfig reads the values already initialized in pkg/config.
func NewConfig() *Config {
	return &Config{
		CleanupInterval:  config.CleanupInterval,
		PageCacheTTL:     config.PageCacheTTL,
		FragmentCacheTTL: config.HTMLChunkTTL,
		VerboseReporting: config.CleanupVerbose,
	}
}
