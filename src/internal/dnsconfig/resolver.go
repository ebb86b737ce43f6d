package dnsconfig

import (
	"fmt"
	"strings"

	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

// ResolverFlags are attributes of a resolver entry.
type ResolverFlags uint32

const (
	// ResolverFlagScoped limits the resolver to queries bound to its interface.
	ResolverFlagScoped ResolverFlags = 1 << iota
)

func (f ResolverFlags) Has(flag ResolverFlags) bool {
	return f&flag != 0
}

func (f ResolverFlags) String() string {
	if f.Has(ResolverFlagScoped) {
		return "Scoped"
	}
	return ""
}

const (
	// OptionMulticast tags resolvers of multicast DNS domains.
	OptionMulticast = "mdns"
	// OptionPrivate tags resolvers of private DNS domains.
	OptionPrivate = "pdns"
	// optionInterfacePrefix marks a resolver whose queries are bound to an interface.
	optionInterfacePrefix = "interface="
)

// Resolver is one entry of a resolver configuration.
type Resolver struct {
	// Domain limits the resolver to names under it. Empty for the default
	// and scoped resolvers.
	Domain        string        `json:"domain,omitempty"`
	SearchDomains []string      `json:"search_domains,omitempty"`
	Nameservers   []string      `json:"nameservers,omitempty"`
	SortList      []string      `json:"sort_list,omitempty"`
	Options       string        `json:"options,omitempty"`
	Port          int           `json:"port,omitempty"`
	Timeout       int           `json:"timeout,omitempty"`
	SearchOrder   *int          `json:"search_order,omitempty"`
	IfIndex       int           `json:"if_index,omitempty"`
	IfName        string        `json:"if_name,omitempty"`
	Flags         ResolverFlags `json:"flags,omitempty"`

	// ReachabilityFlags is filled in by the publisher.
	ReachabilityFlags uint32 `json:"reachability_flags,omitempty"`

	InsertionOrderTag int              `json:"insertion_order_tag"`
	ServiceID         models.ServiceID `json:"service_id,omitempty"`
}

// Scoped reports whether the resolver only serves queries bound to its interface.
func (r *Resolver) Scoped() bool {
	return r.Flags.Has(ResolverFlagScoped)
}

// order returns the effective search order.
func (r *Resolver) order(defaultOrder int) int {
	if r.SearchOrder == nil {
		return defaultOrder
	}
	return *r.SearchOrder
}

func (r *Resolver) hasOption(option string) bool {
	for _, o := range strings.Fields(r.Options) {
		if o == option {
			return true
		}
	}
	return false
}

func (r *Resolver) boundToInterface() bool {
	for _, o := range strings.Fields(r.Options) {
		if strings.HasPrefix(o, optionInterfacePrefix) {
			return true
		}
	}
	return false
}

func (r *Resolver) empty() bool {
	return r.Domain == "" && len(r.SearchDomains) == 0 && len(r.Nameservers) == 0
}

// fromDNS copies the resolver relevant part of a service DNS entity.
func fromDNS(id models.ServiceID, dns *models.DNSInfo) Resolver {
	r := Resolver{
		Domain:        dns.DomainName,
		SearchDomains: cloneStrings(dns.SearchDomains),
		Nameservers:   cloneStrings(dns.ServerAddresses),
		SortList:      cloneStrings(dns.SortList),
		Options:       dns.Options,
		Port:          dns.ServerPort,
		Timeout:       dns.ServerTimeout,
		ServiceID:     id,
	}
	if dns.SearchOrder != nil {
		order := *dns.SearchOrder
		r.SearchOrder = &order
	}
	return r
}

func cloneStrings(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return append([]string(nil), s...)
}

func intPtr(v int) *int {
	return &v
}

// Config is a finalized resolver configuration.
type Config struct {
	// Resolvers is sorted; the first entry is the default resolver.
	Resolvers []Resolver `json:"resolvers"`

	// NoConfiguration is set when there is nothing to resolve with at all.
	NoConfiguration bool `json:"no_configuration,omitempty"`

	Signature string `json:"signature"`
}

// Default returns the default resolver, or nil.
func (c *Config) Default() *Resolver {
	if c == nil || len(c.Resolvers) == 0 {
		return nil
	}
	r := &c.Resolvers[0]
	if r.Domain != "" || r.Scoped() {
		return nil
	}
	return r
}

// String renders the configuration in a human readable form.
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("DNS configuration\n")
	if c == nil || c.NoConfiguration {
		sb.WriteString("\nNo DNS configuration available\n")
		return sb.String()
	}

	for i := range c.Resolvers {
		r := &c.Resolvers[i]
		fmt.Fprintf(&sb, "\nresolver #%d\n", i+1)
		if r.Domain != "" {
			fmt.Fprintf(&sb, "  domain   : %s\n", r.Domain)
		}
		for j, d := range r.SearchDomains {
			fmt.Fprintf(&sb, "  search domain[%d] : %s\n", j, d)
		}
		for j, ns := range r.Nameservers {
			fmt.Fprintf(&sb, "  nameserver[%d] : %s\n", j, ns)
		}
		if r.Port != 0 {
			fmt.Fprintf(&sb, "  port     : %d\n", r.Port)
		}
		if r.Timeout != 0 {
			fmt.Fprintf(&sb, "  timeout  : %d\n", r.Timeout)
		}
		if r.Options != "" {
			fmt.Fprintf(&sb, "  options  : %s\n", r.Options)
		}
		if r.IfIndex != 0 {
			fmt.Fprintf(&sb, "  if_index : %d (%s)\n", r.IfIndex, r.IfName)
		}
		if r.Flags != 0 {
			fmt.Fprintf(&sb, "  flags    : %s\n", r.Flags)
		}
		if r.SearchOrder != nil {
			fmt.Fprintf(&sb, "  order    : %d\n", *r.SearchOrder)
		}
	}
	return sb.String()
}
