package metadata

// --- SQL Keys ---
// These keys are used for the 'key' column in the 'metadata' table.
const (
	// LastRebuildEventIDKey stores the ID of the last entry event that was
	// covered by the last successful leaderboard cache rebuild.
	LastRebuildEventIDKey = "last_rebuild_event_id"
)

// --- Redis Keys ---
// These keys are used for storing metadata in Redis.
const (
	// RedisLastProcessedEventIDKey is a Redis String that stores the ID of the
	// last entry event successfully applied to the leaderboards by the
	// EntryProcessor. It's the live checkpoint.
	RedisLastProcessedEventIDKey = "meta:last_processed_event_id"
)
