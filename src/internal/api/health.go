package api

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// CheckHealth performs health checks on the daemon.
// GET /api/v1/health
func (h *Handler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthCheckResponse{
		Healthy: true,
		Checks:  make(map[string]CheckResult),
	}
	fail := func(name, message string) {
		response.Healthy = false
		response.Checks[name] = CheckResult{Passed: false, Message: message}
	}
	pass := func(name, message string) {
		response.Checks[name] = CheckResult{Passed: true, Message: message}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.statusTimeout)
	defer cancel()

	status, err := h.engine.Status(ctx)
	switch {
	case err != nil:
		fail("engine", "Engine is not responding: "+err.Error())
		fail("reconciliation", "Unknown while the engine is not responding")
	case status.Generation == 0:
		pass("engine", "Engine is running")
		fail("reconciliation", "No reconciliation pass has completed yet")
	default:
		pass("engine", "Engine is running")
		pass("reconciliation", fmt.Sprintf("Pass %d completed at %s", status.Generation, status.LastPass.Format(time.RFC3339)))
	}

	if h.configHasher != nil {
		if h.configHasher.IsOutdated() {
			fail("config", "Configuration file changed since start, restart to apply")
		} else {
			pass("config", "Configuration is up to date")
		}
	}

	writeJSONData(w, response)
}
