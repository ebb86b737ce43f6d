package service

import (
	"github.com/maksimkurb/keen-ipmon/src/internal/dnsconfig"
	"github.com/maksimkurb/keen-ipmon/src/internal/domain"
	"github.com/maksimkurb/keen-ipmon/src/internal/election"
	"github.com/maksimkurb/keen-ipmon/src/internal/store"
)

// DNSService builds the resolver configuration a state file leads to.
type DNSService struct {
	resolver domain.InterfaceResolver
	opts     Options
}

// NewDNSService creates a new DNS service.
func NewDNSService(resolver domain.InterfaceResolver, opts Options) *DNSService {
	return &DNSService{resolver: resolver, opts: opts}
}

// Build elects the primary service and builds the resolver configuration
// from it.
func (s *DNSService) Build(state *store.StateFile) *dnsconfig.Config {
	snap := snapshotFromState(state, s.opts)
	ev := evaluate(election.NewEngine(), snap)
	cfg, _ := dnsconfig.NewBuilder(s.resolver, s.opts.DNS).Build(dnsInput(snap, ev))
	return cfg
}

// FormatResolvConf renders the default resolver of cfg as resolv.conf
// content.
func (s *DNSService) FormatResolvConf(cfg *dnsconfig.Config) string {
	return dnsconfig.NewResolvConfPublisher("").Render(cfg)
}
