// microboard/config/config.go
package config

const (
	AppVersion = "0.4.1"

	// Form & Post Limits
	MaxNameLen     = 75
	MaxEmailLen    = 75
	MaxSubjectLen  = 100
	MaxMessageLen  = 8000
	MaxPasswordLen = 64

	// Paging
	MaxPage                      = 1000
	ThreadReplyLimit             = 1000
	DefaultThreadsPerPage        = 10
	DefaultPostsPerPreview       = 4
	DefaultThreadsPerCatalogPage = 50

	// File Upload Limits
	MaxFileSizeKB   = 4096
	MaxWidth        = 8000
	MaxHeight       = 8000
	ThumbnailWidth  = 250
	ThumbnailHeight = 250

	// Rate Limiting Defaults
	DefaultRateLimitEvery  = "30s"
	DefaultRateLimitBurst  = 3
	DefaultRateLimitPrune  = "1h"
	DefaultRateLimitExpire = "24h"

	// Manage session lifetime
	DefaultSessionTTL = "12h"
)

// ReportTypes enumerates the accepted values for a report's type field.
var ReportTypes = []string{"illegal", "spam", "off-topic", "other"}
