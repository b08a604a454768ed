package config

import "time"

const (
	// Attachments above this size are refused.
	MaxAttachmentSize = 20 * 1024 * 1024

	// Session key prefix in Redis.
	SessionKeyPrefix = "intake:fsm:"

	// Idle rate-limit entries are evicted after this long.
	RateLimitIdleTTL = 10 * time.Minute
)
