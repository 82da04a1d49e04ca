// Package notifications delivers engine events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Notifications are fire-and-forget: callers log delivery failures
// at warning level and never let them affect file processing.
package notifications
