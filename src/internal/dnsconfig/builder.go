package dnsconfig

import (
	"sort"
	"time"

	"github.com/maksimkurb/keen-ipmon/src/internal/domain"
	ipmonerrors "github.com/maksimkurb/keen-ipmon/src/internal/errors"
	"github.com/maksimkurb/keen-ipmon/src/internal/hashing"
	"github.com/maksimkurb/keen-ipmon/src/internal/log"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

const (
	// DefaultSearchOrder is the search order of the default resolver.
	DefaultSearchOrder = 200000
	// searchOrderStep separates the synthesized orders of consecutive entries.
	searchOrderStep = 200
)

// Options tune a Builder.
type Options struct {
	// DefaultSearchOrder is the order given to the default resolver when
	// its DNS entity has none. Zero selects DefaultSearchOrder.
	DefaultSearchOrder int
	// MulticastTimeout is the server timeout of multicast resolvers. Zero
	// leaves it unset.
	MulticastTimeout time.Duration
	// ScopeAllInterfaces creates a scoped resolver for every interface with
	// DNS, not only the ones asking for it.
	ScopeAllInterfaces bool
}

// Input is everything a resolver configuration is built from.
type Input struct {
	// Default is the DNS entity of the primary service, or nil.
	Default   *models.DNSInfo
	DefaultID models.ServiceID

	Services         map[models.ServiceID]*models.ServiceRecord
	Order            models.ServiceOrder
	MulticastDomains []string
	PrivateDomains   []string
}

// Builder builds resolver configurations and remembers the signature of
// the last one to detect changes. It is not safe for concurrent use.
type Builder struct {
	opts     Options
	resolver domain.InterfaceResolver

	lastSignature string
}

func NewBuilder(resolver domain.InterfaceResolver, opts Options) *Builder {
	if opts.DefaultSearchOrder <= 0 {
		opts.DefaultSearchOrder = DefaultSearchOrder
	}
	return &Builder{opts: opts, resolver: resolver}
}

type orderedService struct {
	svc   *models.ServiceRecord
	index int
}

// orderedServices lists the services in service order. Services missing
// from the order follow, sorted by ID.
func orderedServices(services map[models.ServiceID]*models.ServiceRecord, order models.ServiceOrder) []orderedService {
	out := make([]orderedService, 0, len(services))
	for i, id := range order {
		if svc, ok := services[id]; ok && svc != nil {
			out = append(out, orderedService{svc: svc, index: i})
		}
	}

	var unlisted []models.ServiceID
	for id, svc := range services {
		if svc != nil && !order.Contains(id) {
			unlisted = append(unlisted, id)
		}
	}
	sort.Slice(unlisted, func(i, j int) bool { return unlisted[i] < unlisted[j] })
	for i, id := range unlisted {
		out = append(out, orderedService{svc: services[id], index: len(order) + i})
	}
	return out
}

// dnsInterface returns the interface a service's DNS configuration belongs to.
func dnsInterface(svc *models.ServiceRecord) string {
	if svc.DNS != nil && svc.DNS.InterfaceName != "" {
		return svc.DNS.InterfaceName
	}
	if name := svc.InterfaceName(models.IPv4); name != "" {
		return name
	}
	return svc.InterfaceName(models.IPv6)
}

// bind attaches the interface index of ifName to r.
func (b *Builder) bind(r *Resolver, ifName string) error {
	if ifName == "" {
		return ipmonerrors.NewInterfaceResolutionError("no interface for service "+string(r.ServiceID), nil)
	}
	idx := b.resolver.NameToIndex(ifName)
	if idx == 0 {
		return ipmonerrors.NewInterfaceResolutionError("unknown interface "+ifName, nil)
	}
	r.IfIndex = idx
	r.IfName = ifName
	return nil
}

// Build assembles, sorts, cleans up and signs a resolver configuration.
// Reports whether its signature differs from the previous build.
func (b *Builder) Build(in Input) (*Config, bool) {
	defaultOrder := b.opts.DefaultSearchOrder
	services := orderedServices(in.Services, in.Order)
	list := NewList()

	b.addSupplemental(list, services, len(in.Order))
	b.addPrivate(list, in.PrivateDomains)
	autoOrder := b.addDefault(list, in)
	b.addMulticast(list, in.MulticastDomains)
	b.addScoped(list, services)

	resolvers := list.Resolvers()
	sortResolvers(resolvers, defaultOrder)
	resolvers = cleanup(resolvers, autoOrder)

	cfg := &Config{Resolvers: resolvers}
	if len(resolvers) == 0 {
		cfg.Resolvers = nil
		cfg.NoConfiguration = true
	}
	resolverCount.Set(float64(len(resolvers)))
	builds.Inc()

	signature, err := hashing.Sign(signedConfig{Resolvers: cfg.Resolvers, NoConfiguration: cfg.NoConfiguration})
	if err != nil {
		log.Warnf("%v", ipmonerrors.NewSignatureError("failed to sign resolver configuration", err))
		cfg.Signature = b.lastSignature
		return cfg, false
	}
	cfg.Signature = signature

	changed := signature != b.lastSignature
	b.lastSignature = signature
	if changed {
		changes.Inc()
		log.Debugf("Resolver configuration changed [%s]:\n%s", signature, cfg)
	}
	return cfg, changed
}

type signedConfig struct {
	Resolvers       []Resolver `json:"resolvers"`
	NoConfiguration bool       `json:"no_configuration"`
}

// addSupplemental creates one resolver per supplemental match domain.
func (b *Builder) addSupplemental(list *List, services []orderedService, orderLen int) {
	base := b.opts.DefaultSearchOrder - b.opts.DefaultSearchOrder/2
	for _, s := range services {
		dns := s.svc.DNS
		if dns == nil || len(dns.SupplementalMatchDomains) == 0 {
			continue
		}
		serviceOrder := base + searchOrderStep*s.index

		for i, match := range dns.SupplementalMatchDomains {
			name := NormalizeDomain(match)
			if name == "" {
				log.Debugf("Ignoring invalid supplemental domain %q of service %s", match, s.svc.ID)
				continue
			}

			r := fromDNS(s.svc.ID, dns)
			r.Domain = name
			r.SearchDomains = nil
			r.SortList = nil

			switch {
			case i < len(dns.SupplementalMatchOrders):
				r.SearchOrder = intPtr(dns.SupplementalMatchOrders[i])
			case dns.SearchOrder != nil:
				// keeps the service order copied by fromDNS
			default:
				r.SearchOrder = intPtr(serviceOrder + i)
			}

			if dns.ScopedQueries {
				ifName := dnsInterface(s.svc)
				if err := b.bind(&r, ifName); err != nil {
					log.Debugf("Skipping supplemental resolver %s of service %s: %v", name, s.svc.ID, err)
					continue
				}
				r.Options = joinOptions(r.Options, optionInterfacePrefix+ifName)
			}
			list.AddResolver(r)
		}
	}
}

func (b *Builder) addPrivate(list *List, domains []string) {
	base := b.opts.DefaultSearchOrder - b.opts.DefaultSearchOrder/4
	for i, d := range domains {
		name := NormalizeDomain(d)
		if name == "" {
			continue
		}
		list.AddResolver(Resolver{
			Domain:      name,
			Options:     OptionPrivate,
			SearchOrder: intPtr(base + i*searchOrderStep),
		})
	}
}

// addDefault adds the resolver of the primary service. Its raw domain is
// replaced by the derived search list. Reports whether the search order
// was assigned here.
func (b *Builder) addDefault(list *List, in Input) bool {
	info := in.Default
	if info == nil {
		info = &models.DNSInfo{}
	}

	r := fromDNS(in.DefaultID, info)
	autoOrder := false
	if r.SearchOrder == nil {
		r.SearchOrder = intPtr(b.opts.DefaultSearchOrder)
		autoOrder = true
	}

	supplemental := append([]Resolver(nil), list.Resolvers()...)
	sort.SliceStable(supplemental, func(i, j int) bool {
		return supplemental[i].order(b.opts.DefaultSearchOrder) < supplemental[j].order(b.opts.DefaultSearchOrder)
	})

	r.SearchDomains = spliceSupplemental(SearchDomains(info), *r.SearchOrder, supplemental)
	r.Domain = ""
	list.AddResolver(r)
	return autoOrder
}

func (b *Builder) addMulticast(list *List, domains []string) {
	base := b.opts.DefaultSearchOrder + b.opts.DefaultSearchOrder/2
	timeout := int(b.opts.MulticastTimeout / time.Second)
	for i, d := range domains {
		name := NormalizeDomain(d)
		if name == "" {
			continue
		}
		list.AddResolver(Resolver{
			Domain:      name,
			Options:     OptionMulticast,
			Timeout:     timeout,
			SearchOrder: intPtr(base + i*searchOrderStep),
		})
	}
}

// addScoped adds one scoped resolver per interface, taken from the first
// service on that interface that asks for scoping and has servers.
func (b *Builder) addScoped(list *List, services []orderedService) {
	seen := make(map[string]bool)
	for _, s := range services {
		dns := s.svc.DNS
		if dns == nil {
			continue
		}
		ifName := dnsInterface(s.svc)
		if ifName == "" || seen[ifName] {
			continue
		}
		if !dns.Scoped && !dns.ScopedQueries && !b.opts.ScopeAllInterfaces {
			continue
		}
		if len(dns.ServerAddresses) == 0 {
			continue
		}

		r := fromDNS(s.svc.ID, dns)
		if err := b.bind(&r, ifName); err != nil {
			log.Debugf("Skipping scoped resolver of service %s: %v", s.svc.ID, err)
			continue
		}
		seen[ifName] = true
		r.SearchDomains = SearchDomains(dns)
		r.Domain = ""
		r.Flags |= ResolverFlagScoped
		list.AddResolver(r)
	}
}

// cleanup drops empty entries. When the default resolver's search order
// was assigned by the builder and another resolver follows it, the order
// is removed so it cannot outrank that resolver.
func cleanup(resolvers []Resolver, autoOrder bool) []Resolver {
	out := resolvers[:0]
	for _, r := range resolvers {
		if !r.empty() {
			out = append(out, r)
		}
	}
	if autoOrder && len(out) > 1 && out[0].Domain == "" && !out[0].Scoped() &&
		(out[1].Domain != "" || out[1].Scoped()) {
		out[0].SearchOrder = nil
	}
	return out
}

func joinOptions(options, option string) string {
	if options == "" {
		return option
	}
	return options + " " + option
}
