// internal/status/snapshot.go
package status

import "time"

// Snapshot represents exactly what the status writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	LastError      string
	SecondsInError uint16
	LastSuccess    time.Time
	Model          string
}
