package config

import "time"

// CompanyCacheConfig controls the company reference-list cache.  The
// in-process copy always exists; Enabled turns on the shared Redis copy.
// TTL bounds how long either copy is trusted and Prefix namespaces the key.
type CompanyCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadCompanyCacheConfig reads COMPANY_CACHE_* with defaults.
func LoadCompanyCacheConfig() CompanyCacheConfig {
	return CompanyCacheConfig{
		Enabled: envBool("COMPANY_CACHE_ENABLED", true),
		TTL:     envDur("COMPANY_CACHE_TTL", 5*time.Minute),
		Prefix:  envStr("COMPANY_CACHE_PREFIX", "console:companies"),
	}
}
