package booking

import "github.com/arjunpatel/facilitybook/internal/constants"

// Re-exported for callers of the public API.
const (
	DefaultPort            = constants.DefaultPort
	DefaultCacheTTLSeconds = constants.DefaultCacheTTLSeconds
	DefaultTimeout         = constants.DefaultTimeout
	DefaultMaxRetries      = constants.DefaultMaxRetries
	MinutesPerWeek         = constants.MinutesPerWeek
)

// BootstrapFacilities lists the facility names seeded at server startup.
var BootstrapFacilities = constants.BootstrapFacilities
