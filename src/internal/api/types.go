package api

import (
	"time"

	"github.com/maksimkurb/keen-ipmon/src/internal/dnsconfig"
	"github.com/maksimkurb/keen-ipmon/src/internal/election"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
	"github.com/maksimkurb/keen-ipmon/src/internal/service"
)

// DataResponse wraps successful responses with a "data" field.
type DataResponse struct {
	Data any `json:"data"`
}

// StatusResponse summarizes the engine state.
type StatusResponse struct {
	Generation   uint64              `json:"generation"`
	LastPass     *time.Time          `json:"last_pass"` // null before the first pass
	Services     []models.ServiceID  `json:"services"`
	ServiceOrder models.ServiceOrder `json:"service_order"`

	Primary PrimaryResponse `json:"primary"`

	RouteCount         int  `json:"route_count"`
	ResolverCount      int  `json:"resolver_count"`
	MulticastInstalled bool `json:"multicast_installed"`

	Notification   service.NotificationStatus `json:"notification"`
	ConfigOutdated bool                       `json:"config_outdated"`
}

// PrimaryResponse names the primary service of each family.
type PrimaryResponse struct {
	IPv4 *election.PrimaryRecord `json:"ipv4"`
	IPv6 *election.PrimaryRecord `json:"ipv6"`
}

// ElectionResponse returns the ranked candidates of both families.
type ElectionResponse struct {
	IPv4 []CandidateInfo `json:"ipv4"`
	IPv6 []CandidateInfo `json:"ipv6"`
}

// CandidateInfo is one election candidate in rank order.
type CandidateInfo struct {
	election.Candidate
	Primary bool   `json:"primary"`
	RankStr string `json:"rank_str"`
}

// RoutesResponse returns the merged IPv4 route list.
type RoutesResponse struct {
	Routes             []RouteInfo `json:"routes"`
	MulticastInstalled bool        `json:"multicast_installed"`
}

// RouteInfo is one route with addresses in dotted notation.
type RouteInfo struct {
	Destination      string `json:"destination"` // CIDR
	Gateway          string `json:"gateway,omitempty"`
	Interface        string `json:"interface"`
	InterfaceIndex   int    `json:"interface_index,omitempty"`
	InterfaceAddress string `json:"interface_address"`
	Rank             string `json:"rank"`
	Flags            string `json:"flags,omitempty"`
}

// ResolversResponse returns the finalized resolver configuration and the
// resolv.conf rendering of its default resolver.
type ResolversResponse struct {
	Config     *dnsconfig.Config `json:"config"`
	ResolvConf string            `json:"resolv_conf"`
}

// InterfacesResponse represents the response for the interfaces list endpoint.
type InterfacesResponse struct {
	Interfaces []service.InterfaceInfo `json:"interfaces"`
}

// HealthCheckResponse returns health check results.
type HealthCheckResponse struct {
	Healthy bool                   `json:"healthy"`
	Checks  map[string]CheckResult `json:"checks"`
}

// CheckResult contains the result of a single health check.
type CheckResult struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}
