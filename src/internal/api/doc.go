// Package api provides the read-only HTTP status API of the keen-ipmon daemon.
//
// The API exposes what the reconciliation engine last computed:
//   - elected primaries and the full ranked candidate lists
//   - the merged IPv4 route list
//   - the finalized resolver configuration
//   - the NWI snapshot handed to reachability consumers
//   - network interfaces annotated with the services running over them
//   - health checks and Prometheus metrics
//
// Every request is served from an engine status snapshot taken on the engine's
// worker goroutine, so responses are internally consistent.
//
// # Response Format
//
// All successful responses wrap data in a "data" field:
//
//	{
//	  "data": { /* response payload */ }
//	}
//
// Error responses use the following format:
//
//	{
//	  "error": {
//	    "code": "unavailable",
//	    "message": "Human-readable error message"
//	  }
//	}
//
// Metrics are served in the Prometheus text format at /metrics.
package api
