package location

import (
	"roster-search/internal/common/config"
	"roster-search/internal/common/logger"
	"roster-search/internal/models"
)

// NewFromConfig builds the configured resolver. A static provider with both
// coordinates left at zero counts as unconfigured.
func NewFromConfig(cfg config.LocationConfig, log logger.Logger) Resolver {
	if cfg.Provider == config.LocationProviderStatic {
		if cfg.Latitude == 0 && cfg.Longitude == 0 {
			return NewStaticResolver(nil)
		}
		return NewStaticResolver(&models.Coordinates{Latitude: cfg.Latitude, Longitude: cfg.Longitude})
	}
	return NewHTTPResolverWithBreaker(cfg.URL, config.GetDuration(cfg.Timeout), BreakerSettings{
		Failures: uint32(cfg.BreakerFailures),
		Reset:    config.GetDuration(cfg.BreakerResetMs),
	}, log)
}
