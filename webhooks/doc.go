// Package webhooks turns GitHub webhook deliveries into reconciliations.
//
// A delivery is verified (when a secret is configured), filtered by event type,
// handed to a Reconciler and recorded. Every delivery is acknowledged; failures
// are logged and recorded, never surfaced to GitHub as a retryable status.
package webhooks
