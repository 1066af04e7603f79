package topics

const (
	// Wagers
	WagerTracked       = "wager_tracked"
	WagerStatusChanged = "wager_status_changed"
	WagerArchived      = "wager_archived"

	// DLQs
	WagerEventsDLQ = "wager_events_dlq"
)
