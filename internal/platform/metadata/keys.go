package metadata

// --- Database Keys ---
// These keys are used for the 'key' column in the 'metadata' table.
const (
	// DeckPageKeyPrefix prefixes the persisted cursor of each paginated deck walk,
	// e.g. "deck_page:STATS" stores the next page the statistics job will read.
	DeckPageKeyPrefix = "deck_page:"

	// RatingLeaseKeyPrefix prefixes one row per running deck import, e.g.
	// "rating-lease:<uuid>". The value is the RFC3339 time the lease expires.
	// The statistics version job does not start a new version while any lease is live.
	RatingLeaseKeyPrefix = "rating-lease:"
)
