// Package store provides the configuration store the reconciliation engine
// reads network service state from.
//
// MemoryStore is an in-process key/value store with pattern subscriptions.
// LoadStateFile reads a TOML description of the network services into a
// snapshot that can be applied to a MemoryStore.
package store
