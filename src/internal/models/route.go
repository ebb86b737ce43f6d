package models

import (
	"fmt"
	"strings"

	"github.com/maksimkurb/keen-ipmon/src/internal/utils"
)

// RouteFlags qualify an IPv4Route.
type RouteFlags uint8

const (
	// RouteFlagDirectToInterface: the destination is reached on-link, the gateway is the interface address.
	RouteFlagDirectToInterface RouteFlags = 1 << iota
	// RouteFlagNotSubnetLocal: the router lies outside the interface subnet.
	RouteFlagNotSubnetLocal
	// RouteFlagScoped: the route applies only to traffic bound to its interface.
	RouteFlagScoped
	// RouteFlagNull: the route is a placeholder and must never carry traffic.
	RouteFlagNull
)

func (f RouteFlags) Has(flag RouteFlags) bool {
	return f&flag != 0
}

func (f RouteFlags) String() string {
	var parts []string
	if f.Has(RouteFlagDirectToInterface) {
		parts = append(parts, "direct")
	}
	if f.Has(RouteFlagNotSubnetLocal) {
		parts = append(parts, "not-subnet-local")
	}
	if f.Has(RouteFlagScoped) {
		parts = append(parts, "scoped")
	}
	if f.Has(RouteFlagNull) {
		parts = append(parts, "null")
	}
	return strings.Join(parts, ",")
}

// IPv4Route is one entry of the IPv4 routing table. Addresses and masks are
// host-order integers.
type IPv4Route struct {
	Dest    uint32     `json:"dest"`
	Mask    uint32     `json:"mask"`
	Gateway uint32     `json:"gateway"`
	IfName  string     `json:"if_name"`
	IfIndex int        `json:"if_index"`
	IfAddr  uint32     `json:"if_addr"`
	Rank    Rank       `json:"rank"`
	Flags   RouteFlags `json:"flags"`
}

// IsDefault reports whether the route is a default route.
func (r IPv4Route) IsDefault() bool {
	return r.Dest == 0 && r.Mask == 0
}

func (r IPv4Route) String() string {
	prefix, _ := utils.MaskPrefixLen(r.Mask)
	s := fmt.Sprintf("%s/%d via %s dev %s ifaddr %s rank %s",
		utils.IPv4String(r.Dest), prefix, utils.IPv4String(r.Gateway), r.IfName, utils.IPv4String(r.IfAddr), r.Rank)
	if r.IfIndex != 0 {
		s += fmt.Sprintf(" idx %d", r.IfIndex)
	}
	if r.Flags != 0 {
		s += " [" + r.Flags.String() + "]"
	}
	return s
}
