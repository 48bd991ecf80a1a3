// Package notifications delivers export lifecycle events via pluggable
// notifiers.
//
// The default implementation posts to an ntfy-compatible webhook configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Per-event toggles let operators silence completion chatter while
// keeping failure alerts.
//
// Extend this package if you need alternative transports; all workflow code
// depends only on the simple Service interface.
package notifications
