// Package notifications publishes generation outcomes to ntfy.
//
// NewService returns an ntfy-backed Service when a topic is configured and a
// no-op otherwise, so pipelines can notify unconditionally. The on_success and
// on_failure switches are honored per message.
package notifications
