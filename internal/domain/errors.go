package domain

import "fmt"

// ConfigError marks malformed configuration. Fatal: the run aborts before any
// delivery happens.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FetchError marks a single feed's fetch or parse failure. Non-fatal: the
// feed is skipped and the run continues.
type FetchError struct {
	FeedID string
	URL    string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch feed %s (%s): %v", e.FeedID, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DeliveryError marks a failed chat-platform call for one message. Non-fatal:
// the item stays undelivered and becomes a candidate again next run.
type DeliveryError struct {
	ItemID string
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.ItemID == "" {
		return fmt.Sprintf("deliver: %v", e.Err)
	}
	return fmt.Sprintf("deliver item %s: %v", e.ItemID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// StateError marks unreadable or unwritable persisted state. Fatal: state
// cannot be trusted, so the run aborts before any delivery to avoid duplicate
// or lost sends.
type StateError struct {
	Path string
	Err  error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state %s: %v", e.Path, e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }
