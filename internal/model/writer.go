package model

import "time"

// Writer defines a generic interface for persisting a sketch's heavy-hitter
// snapshot once an epoch's restore has completed.
type Writer interface {
	// Write takes a heavy-hitter payload and persists it under the given
	// task name and snapshot timestamp.
	Write(payload interface{}, timestamp, name string) error

	// GetInterval returns the configured snapshot interval for this writer.
	GetInterval() time.Duration
}
