package model

import "time"

// Shared defaults used by both the service and TUI binaries.
const (
	DefaultShareLimit     = 100
	DefaultUpdateInterval = 5 * time.Second
	DefaultSampleInterval = time.Minute

	// NotAvailable is reported for last_share_time when no User record was found.
	NotAvailable = "N/A"
)
