// Package utils provides small helpers shared across keen-ipmon: IPv4
// address and mask arithmetic on host-order integers, path resolution
// relative to the config directory, and atomic file replacement.
package utils
