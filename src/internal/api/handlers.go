package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/maksimkurb/keen-ipmon/src/internal/config"
	"github.com/maksimkurb/keen-ipmon/src/internal/dnsconfig"
	"github.com/maksimkurb/keen-ipmon/src/internal/election"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
	"github.com/maksimkurb/keen-ipmon/src/internal/service"
	"github.com/maksimkurb/keen-ipmon/src/internal/utils"
)

const defaultStatusTimeout = 5 * time.Second

// StatusProvider returns a consistent copy of the engine state.
// This allows the API to be tested without a running engine.
type StatusProvider interface {
	Status(ctx context.Context) (*service.Status, error)
}

// InterfaceLister lists network interfaces annotated with engine state.
type InterfaceLister interface {
	GetInterfaces(status *service.Status, includeIPs bool, includeLoopback bool) ([]service.InterfaceInfo, error)
}

// Handler manages all API endpoints and dependencies.
type Handler struct {
	engine       StatusProvider
	interfaces   InterfaceLister
	configHasher *config.ConfigHasher

	statusTimeout time.Duration
}

// NewHandler creates a new API handler. interfaces and configHasher may be nil.
func NewHandler(engine StatusProvider, interfaces InterfaceLister, configHasher *config.ConfigHasher) *Handler {
	return &Handler{
		engine:        engine,
		interfaces:    interfaces,
		configHasher:  configHasher,
		statusTimeout: defaultStatusTimeout,
	}
}

// status fetches the engine status, writing a 503 response on failure.
func (h *Handler) status(w http.ResponseWriter, r *http.Request) (*service.Status, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), h.statusTimeout)
	defer cancel()

	status, err := h.engine.Status(ctx)
	if err != nil {
		WriteUnavailable(w, "Engine is not responding: "+err.Error())
		return nil, false
	}
	return status, true
}

// GetStatus returns the engine summary.
// GET /api/v1/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := h.status(w, r)
	if !ok {
		return
	}

	response := StatusResponse{
		Generation:         status.Generation,
		Services:           status.Services,
		ServiceOrder:       status.Order,
		Primary:            primaryOf(status),
		RouteCount:         len(status.Routes),
		MulticastInstalled: status.MulticastInstalled,
		Notification:       status.Notification,
		ConfigOutdated:     h.configHasher != nil && h.configHasher.IsOutdated(),
	}
	if !status.LastPass.IsZero() {
		lastPass := status.LastPass
		response.LastPass = &lastPass
	}
	if status.Resolvers != nil {
		response.ResolverCount = len(status.Resolvers.Resolvers)
	}

	writeJSONData(w, response)
}

// GetPrimary returns the primary service of each family.
// GET /api/v1/primary
func (h *Handler) GetPrimary(w http.ResponseWriter, r *http.Request) {
	status, ok := h.status(w, r)
	if !ok {
		return
	}
	writeJSONData(w, primaryOf(status))
}

// GetElection returns the ranked candidate lists.
// GET /api/v1/election
func (h *Handler) GetElection(w http.ResponseWriter, r *http.Request) {
	status, ok := h.status(w, r)
	if !ok {
		return
	}
	writeJSONData(w, ElectionResponse{
		IPv4: candidatesOf(status.IPv4),
		IPv6: candidatesOf(status.IPv6),
	})
}

// GetRoutes returns the merged route list last committed to the kernel.
// GET /api/v1/routes
func (h *Handler) GetRoutes(w http.ResponseWriter, r *http.Request) {
	status, ok := h.status(w, r)
	if !ok {
		return
	}

	routes := make([]RouteInfo, 0, len(status.Routes))
	for _, route := range status.Routes {
		routes = append(routes, routeInfo(route))
	}
	writeJSONData(w, RoutesResponse{
		Routes:             routes,
		MulticastInstalled: status.MulticastInstalled,
	})
}

// GetResolvers returns the resolver configuration.
// GET /api/v1/resolvers
func (h *Handler) GetResolvers(w http.ResponseWriter, r *http.Request) {
	status, ok := h.status(w, r)
	if !ok {
		return
	}
	if status.Resolvers == nil {
		WriteNotFound(w, "Resolver configuration")
		return
	}

	writeJSONData(w, ResolversResponse{
		Config:     status.Resolvers,
		ResolvConf: dnsconfig.NewResolvConfPublisher("").Render(status.Resolvers),
	})
}

// GetNWI returns the NWI snapshot.
// GET /api/v1/nwi
func (h *Handler) GetNWI(w http.ResponseWriter, r *http.Request) {
	status, ok := h.status(w, r)
	if !ok {
		return
	}
	if status.NWI == nil {
		WriteNotFound(w, "NWI snapshot")
		return
	}
	writeJSONData(w, status.NWI)
}

// GetInterfaces returns the network interfaces with the services using them.
// GET /api/v1/interfaces?ips=true&loopback=true
func (h *Handler) GetInterfaces(w http.ResponseWriter, r *http.Request) {
	if h.interfaces == nil {
		WriteNotFound(w, "Interface listing")
		return
	}

	includeIPs, err := boolQuery(r, "ips")
	if err != nil {
		WriteInvalidRequest(w, err.Error())
		return
	}
	includeLoopback, err := boolQuery(r, "loopback")
	if err != nil {
		WriteInvalidRequest(w, err.Error())
		return
	}

	status, ok := h.status(w, r)
	if !ok {
		return
	}

	interfaces, err := h.interfaces.GetInterfaces(status, includeIPs, includeLoopback)
	if err != nil {
		WriteInternalError(w, "Failed to get network interfaces: "+err.Error())
		return
	}

	writeJSONData(w, InterfacesResponse{Interfaces: interfaces})
}

func primaryOf(status *service.Status) PrimaryResponse {
	return PrimaryResponse{
		IPv4: status.IPv4.PrimaryRecord(),
		IPv6: status.IPv6.PrimaryRecord(),
	}
}

func candidatesOf(results *election.Results) []CandidateInfo {
	if results == nil {
		return []CandidateInfo{}
	}
	primary := results.Primary()
	out := make([]CandidateInfo, 0, len(results.Candidates))
	for i := range results.Candidates {
		c := &results.Candidates[i]
		out = append(out, CandidateInfo{
			Candidate: *c,
			Primary:   c == primary,
			RankStr:   c.Rank.String(),
		})
	}
	return out
}

func routeInfo(route models.IPv4Route) RouteInfo {
	prefix, _ := utils.MaskPrefixLen(route.Mask)
	info := RouteInfo{
		Destination:      fmt.Sprintf("%s/%d", utils.IPv4String(route.Dest), prefix),
		Interface:        route.IfName,
		InterfaceIndex:   route.IfIndex,
		InterfaceAddress: utils.IPv4String(route.IfAddr),
		Rank:             route.Rank.String(),
	}
	if route.Gateway != 0 {
		info.Gateway = utils.IPv4String(route.Gateway)
	}
	if route.Flags != 0 {
		info.Flags = route.Flags.String()
	}
	return info
}

func boolQuery(r *http.Request, name string) (bool, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid value %q for %s", value, name)
	}
	return b, nil
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(DataResponse{Data: data})
}

// writeJSONData writes a successful JSON response with data.
func writeJSONData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, data)
}
