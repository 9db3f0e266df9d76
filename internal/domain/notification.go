package domain

import "time"

// Severity classifies a notification for display.
type Severity string

const (
	// SeverityInfo marks neutral progress, such as a completed merge.
	SeverityInfo Severity = "info"

	// SeveritySuccess marks an operation that needed no further action.
	SeveritySuccess Severity = "success"

	// SeverityWarning marks a failure the user should know about.
	SeverityWarning Severity = "warning"
)

// Color returns the background colour a presentation layer should use.
func (s Severity) Color() string {
	switch s {
	case SeverityInfo:
		return "#bfdbfe"
	case SeveritySuccess:
		return "#d1fae5"
	case SeverityWarning:
		return "#fee2e2"
	default:
		return "#e5e7eb"
	}
}

// Notification is a transient status message that dismisses itself
// after Duration has elapsed.
type Notification struct {
	Message   string
	Severity  Severity
	Duration  time.Duration
	CreatedAt time.Time
}

// ExpiresAt returns the moment the notification should be dismissed.
func (n Notification) ExpiresAt() time.Time {
	return n.CreatedAt.Add(n.Duration)
}

// Active reports whether the notification is still visible at t.
func (n Notification) Active(t time.Time) bool {
	return t.Before(n.ExpiresAt())
}
