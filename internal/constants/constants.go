// Package constants centralizes tunables shared across packages.
package constants

// Version is reported by the health endpoint and the version command.
const Version = "0.3.1"

// Hashing constants
const (
	// DefaultHashBufferSize is the read buffer used when digesting files
	DefaultHashBufferSize = 4 * 1024 * 1024

	// LargeFileThreshold is the size past which the page cache is
	// released after hashing
	LargeFileThreshold = 1 << 30
)

// API constants
const (
	// MaxAutocompleteBuckets caps the count buckets returned per
	// autocomplete request
	MaxAutocompleteBuckets = 50

	// MultipartMemoryLimit is how much of an upload is held in memory
	// before spilling to disk
	MultipartMemoryLimit = 32 << 20
)

// Rate limiting constants
const (
	// DefaultRequestsPerSecond is the default rate limit for API endpoints
	DefaultRequestsPerSecond = 50

	// DefaultBurstSize is the default burst size for rate limiting
	DefaultBurstSize = 100
)
