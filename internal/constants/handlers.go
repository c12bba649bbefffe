package constants

// Handler request constants
const (
	// MaxRequestBodySize is the maximum accepted JSON request body in bytes (1MB).
	// A 128-d descriptor encoded as JSON is a few kilobytes.
	MaxRequestBodySize = 1 << 20
)

// Import constants
const (
	// MaxImportFileSize is the maximum size of a bulk import file in bytes (64MB)
	MaxImportFileSize = 64 << 20
)
