// Package log provides simple leveled logging for keen-ipmon.
//
// Levels are DEBUG (only in verbose mode), INFO, WARN and ERROR. Output is
// colored and goes to stdout, errors to stderr, unless redirected with
// SetOutput or SetForceStdErr.
//
//	log.Infof("Primary IPv4 service is %s (%s)", id, ifName)
//	log.Warnf("Failed to add route [%v]: %v", route, err)
//
// The reconciliation engine, the ack publishers and the HTTP server log from
// different goroutines, so every function serializes on a package mutex.
package log
