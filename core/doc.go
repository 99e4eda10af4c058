// Package core holds the shared contracts of the issues service: configuration,
// the go-errors taxonomy, token freshness rules and structured logging helpers.
// Packages that talk to the platform depend on core; core depends on none of them.
package core
