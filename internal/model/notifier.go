package model

// Notifier defines a generic interface for publishing an epoch's restore
// completion to subscribers.
type Notifier interface {
	Send(subject, body string) error
}
