package redisx

import "time"

const (
	// Fixed-window rate limit counter: ratelimit:{scope}:{client_key}
	KeyRateLimit = "ratelimit:%s:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLDedup = 48 * time.Hour
)
