// Package notify coalesces bursts of configuration changes into a single
// "network changed" notification.
//
// A Coalescer collects change bits from reconciliation passes and posts
// one notification once both downstream publishers acknowledged the new
// configuration, or once a grace period since the first change elapsed,
// whichever happens first. All Coalescer methods must be called from one
// serial execution context; the grace timer re-enters through an Executor.
package notify
