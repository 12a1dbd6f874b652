package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "fleetbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 20
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// How often the sweeper promotes elapsed approved reservations.
	DefaultSweepSchedule = "@every 5m"

	// Zero disables automatic expiry of never-approved reservations.
	DefaultPendingReservationTTL = time.Duration(0)

	// Fleet-wide fallback for vehicles without an explicit cleaning buffer.
	DefaultCleaningBufferHours = 0

	DefaultNotifyTopic = "fleetbook.reservation-events"

	DefaultPaginationLimit = 100
)
