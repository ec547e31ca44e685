package domain

import "time"

// FetchState is one of the fetch coordinator's terminal/transient states.
type FetchState string

const (
	FetchIdle    FetchState = "idle"
	FetchRunning FetchState = "running"
	FetchFailed  FetchState = "failed"
)

// FetchProgress is the ephemeral, in-memory status of the fetch
// coordinator. One instance exists per process.
type FetchProgress struct {
	State         FetchState `json:"state"`
	Reason        string     `json:"reason,omitempty"`
	FetchedCount  int        `json:"fetched_count"`
	OldestSeen    *time.Time `json:"oldest_seen_time,omitempty"`
	PagesFetched  int        `json:"pages_fetched"`
	InsertedTotal int        `json:"inserted_total"`
}
