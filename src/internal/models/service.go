package models

import (
	"fmt"
	"strings"
)

// ServiceID is the opaque key of a configured network service.
type ServiceID string

// Family is an IP protocol family.
type Family uint8

const (
	IPv4 Family = 4
	IPv6 Family = 6
)

func (f Family) String() string {
	switch f {
	case IPv4:
		return "IPv4"
	case IPv6:
		return "IPv6"
	default:
		return fmt.Sprintf("Family(%d)", uint8(f))
	}
}

// Other returns the opposite protocol family.
func (f Family) Other() Family {
	if f == IPv4 {
		return IPv6
	}
	return IPv4
}

// EntityType names one entity of a service in the configuration store.
type EntityType string

const (
	EntityIPv4    EntityType = "IPv4"
	EntityIPv6    EntityType = "IPv6"
	EntityDNS     EntityType = "DNS"
	EntityProxies EntityType = "Proxies"
	EntityService EntityType = "Service"
	EntityVPN     EntityType = "VPN"
)

// AllEntityTypes lists the entities a ServiceRecord is assembled from.
var AllEntityTypes = []EntityType{EntityIPv4, EntityIPv6, EntityDNS, EntityProxies, EntityService, EntityVPN}

// IPv4Info is the IPv4 entity of a service.
type IPv4Info struct {
	InterfaceName string   `toml:"interface" json:"interface_name,omitempty" validate:"omitempty,max=15"`
	Addresses     []string `toml:"addresses" json:"addresses,omitempty" validate:"dive,ipv4"`
	SubnetMasks   []string `toml:"subnet_masks" json:"subnet_masks,omitempty" validate:"dive,ipv4"`
	Router        string   `toml:"router" json:"router,omitempty" validate:"omitempty,ipv4"`
	// OverridePrimary is the legacy boolean form of PrimaryRank=First.
	OverridePrimary bool `toml:"override_primary" json:"override_primary,omitempty"`
	// IsNull marks a placeholder configuration whose routes are never used for traffic.
	IsNull bool `toml:"is_null" json:"is_null,omitempty"`
}

// IPv6Info is the IPv6 entity of a service.
type IPv6Info struct {
	InterfaceName   string   `toml:"interface" json:"interface_name,omitempty" validate:"omitempty,max=15"`
	Addresses       []string `toml:"addresses" json:"addresses,omitempty" validate:"dive,ipv6"`
	PrefixLengths   []int    `toml:"prefix_lengths" json:"prefix_lengths,omitempty" validate:"dive,min=0,max=128"`
	Router          string   `toml:"router" json:"router,omitempty" validate:"omitempty,ipv6"`
	OverridePrimary bool     `toml:"override_primary" json:"override_primary,omitempty"`
	IsNull          bool     `toml:"is_null" json:"is_null,omitempty"`
}

// DNSInfo is the DNS entity of a service.
type DNSInfo struct {
	DomainName               string   `toml:"domain_name" json:"domain_name,omitempty"`
	SearchDomains            []string `toml:"search_domains" json:"search_domains,omitempty"`
	ServerAddresses          []string `toml:"server_addresses" json:"server_addresses,omitempty" validate:"dive,ip"`
	SortList                 []string `toml:"sort_list" json:"sort_list,omitempty"`
	Options                  string   `toml:"options" json:"options,omitempty"`
	ServerPort               int      `toml:"server_port" json:"server_port,omitempty" validate:"omitempty,min=1,max=65535"`
	ServerTimeout            int      `toml:"server_timeout" json:"server_timeout,omitempty" validate:"min=0"`
	SearchOrder              *int     `toml:"search_order" json:"search_order,omitempty" validate:"omitempty,min=0"`
	SupplementalMatchDomains []string `toml:"supplemental_match_domains" json:"supplemental_match_domains,omitempty"`
	SupplementalMatchOrders  []int    `toml:"supplemental_match_orders" json:"supplemental_match_orders,omitempty" validate:"dive,min=0"`
	InterfaceName            string   `toml:"interface" json:"interface_name,omitempty" validate:"omitempty,max=15"`
	// Scoped asks for a resolver bound to InterfaceName.
	Scoped bool `toml:"scoped" json:"scoped,omitempty"`
	// ScopedQueries binds every query of this configuration to InterfaceName.
	ScopedQueries bool `toml:"scoped_queries" json:"scoped_queries,omitempty"`
}

// Clone returns a deep copy of the DNS entity.
func (d *DNSInfo) Clone() *DNSInfo {
	if d == nil {
		return nil
	}
	c := *d
	c.SearchDomains = cloneStrings(d.SearchDomains)
	c.ServerAddresses = cloneStrings(d.ServerAddresses)
	c.SortList = cloneStrings(d.SortList)
	c.SupplementalMatchDomains = cloneStrings(d.SupplementalMatchDomains)
	if d.SupplementalMatchOrders != nil {
		c.SupplementalMatchOrders = append([]int(nil), d.SupplementalMatchOrders...)
	}
	if d.SearchOrder != nil {
		order := *d.SearchOrder
		c.SearchOrder = &order
	}
	return &c
}

// ProxyInfo is the proxy entity of a service.
type ProxyInfo struct {
	HTTPEnable         bool     `toml:"http_enable" json:"http_enable,omitempty"`
	HTTPProxy          string   `toml:"http_proxy" json:"http_proxy,omitempty" validate:"required_if=HTTPEnable true"`
	HTTPPort           int      `toml:"http_port" json:"http_port,omitempty" validate:"omitempty,min=1,max=65535"`
	HTTPSEnable        bool     `toml:"https_enable" json:"https_enable,omitempty"`
	HTTPSProxy         string   `toml:"https_proxy" json:"https_proxy,omitempty" validate:"required_if=HTTPSEnable true"`
	HTTPSPort          int      `toml:"https_port" json:"https_port,omitempty" validate:"omitempty,min=1,max=65535"`
	ProxyAutoConfigURL string   `toml:"pac_url" json:"pac_url,omitempty" validate:"omitempty,url"`
	ExceptionsList     []string `toml:"exceptions" json:"exceptions,omitempty"`
}

// ServiceOptions carries per-service election options.
type ServiceOptions struct {
	PrimaryRank string `toml:"primary_rank" json:"primary_rank,omitempty" validate:"omitempty,oneof=First Default Last Never"`
	// IPIsCoupled ties the IPv4 and IPv6 halves of the service together.
	IPIsCoupled bool `toml:"ip_is_coupled" json:"ip_is_coupled,omitempty"`
}

// VPNStatus is the transient VPN/PPP/IPSec status of a service.
type VPNStatus struct {
	Type          string `toml:"type" json:"type,omitempty" validate:"omitempty,oneof=PPP IPSec VPN"`
	ServerAddress string `toml:"server_address" json:"server_address,omitempty" validate:"omitempty,ip"`
	Status        string `toml:"status" json:"status,omitempty"`
	// PrimaryRank is the rank asserted by the VPN controller for this session.
	PrimaryRank string `toml:"primary_rank" json:"primary_rank,omitempty" validate:"omitempty,oneof=First Default Last Never"`
}

// ServiceRecord gathers every entity of one service. Absent entities are nil.
type ServiceRecord struct {
	ID      ServiceID       `json:"id"`
	IPv4    *IPv4Info       `json:"ipv4,omitempty"`
	IPv6    *IPv6Info       `json:"ipv6,omitempty"`
	DNS     *DNSInfo        `json:"dns,omitempty"`
	Proxy   *ProxyInfo      `json:"proxy,omitempty"`
	Options *ServiceOptions `json:"options,omitempty"`
	VPN     *VPNStatus      `json:"vpn,omitempty"`
}

// IsEmpty reports whether the record holds no entity at all.
func (s *ServiceRecord) IsEmpty() bool {
	return s.IPv4 == nil && s.IPv6 == nil && s.DNS == nil && s.Proxy == nil && s.Options == nil && s.VPN == nil
}

// SetEntity stores value as the entity of the given type. A nil value, or a
// value of the wrong type, clears the entity and returns false for the latter.
func (s *ServiceRecord) SetEntity(entity EntityType, value any) bool {
	switch entity {
	case EntityIPv4:
		v, ok := value.(*IPv4Info)
		s.IPv4 = v
		return ok || value == nil
	case EntityIPv6:
		v, ok := value.(*IPv6Info)
		s.IPv6 = v
		return ok || value == nil
	case EntityDNS:
		v, ok := value.(*DNSInfo)
		s.DNS = v
		return ok || value == nil
	case EntityProxies:
		v, ok := value.(*ProxyInfo)
		s.Proxy = v
		return ok || value == nil
	case EntityService:
		v, ok := value.(*ServiceOptions)
		s.Options = v
		return ok || value == nil
	case EntityVPN:
		v, ok := value.(*VPNStatus)
		s.VPN = v
		return ok || value == nil
	}
	return false
}

// InterfaceName returns the interface the given family runs over.
func (s *ServiceRecord) InterfaceName(family Family) string {
	switch family {
	case IPv4:
		if s.IPv4 != nil {
			return s.IPv4.InterfaceName
		}
	case IPv6:
		if s.IPv6 != nil {
			return s.IPv6.InterfaceName
		}
	}
	return ""
}

// IsPPP reports whether the service is a PPP session.
func (s *ServiceRecord) IsPPP(family Family) bool {
	if s.VPN != nil && s.VPN.Type == "PPP" {
		return true
	}
	return strings.HasPrefix(s.InterfaceName(family), "ppp")
}

// ServiceOrder is the administrative preference order of services.
type ServiceOrder []ServiceID

// IndexOf returns the position of id, or RankIndexUnranked if it is absent.
func (o ServiceOrder) IndexOf(id ServiceID) uint32 {
	for i, s := range o {
		if s == id {
			return uint32(i)
		}
	}
	return RankIndexUnranked
}

// Contains reports whether id is listed in the order.
func (o ServiceOrder) Contains(id ServiceID) bool {
	return o.IndexOf(id) != RankIndexUnranked
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// MetricsNamespace prefixes every exported prometheus metric.
const MetricsNamespace = "keen_ipmon"
