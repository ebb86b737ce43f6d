package core

import (
	"github.com/maksimkurb/keen-ipmon/src/internal/config"
	"github.com/maksimkurb/keen-ipmon/src/internal/dnsconfig"
	"github.com/maksimkurb/keen-ipmon/src/internal/domain"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
	"github.com/maksimkurb/keen-ipmon/src/internal/networking"
	"github.com/maksimkurb/keen-ipmon/src/internal/notify"
	"github.com/maksimkurb/keen-ipmon/src/internal/service"
	"github.com/maksimkurb/keen-ipmon/src/internal/store"
)

// AppDependencies is a dependency injection container that holds all application dependencies.
//
// This container provides a centralized place to manage dependencies and enables:
//   - Easy testing with mock implementations
//   - Configuration-driven dependency creation
//   - Explicit dependency management instead of global state
//
// Usage:
//
//	deps := core.NewAppDependencies(core.AppConfig{Config: cfg})
//	defer deps.Close()
//	engine := deps.NewEngine()
type AppDependencies struct {
	cfg *config.Config

	configStore *store.MemoryStore
	resolver    domain.InterfaceResolver
	applier     domain.KernelRouteApplier

	notifier      notify.Notifier
	asyncNotifier *notify.AsyncNotifier
	dnsPublisher  service.DNSPublisher
	nwiPublisher  service.NWIPublisher

	validator        *service.ValidationService
	interfaceService *service.InterfaceService
}

// AppConfig holds configuration for creating application dependencies.
type AppConfig struct {
	Config *config.Config

	// DryRun logs route changes instead of applying them, whatever
	// routing.enable says.
	DryRun bool
}

// NewAppDependencies creates a new dependency container with production implementations.
//
// Routes go to the kernel through netlink unless routing is disabled or
// DryRun is set. The resolv.conf publisher is created only when a path is
// configured, and the notify hook only when a command is configured.
func NewAppDependencies(cfg AppConfig) *AppDependencies {
	c := cfg.Config
	resolver := networking.NewNetlinkResolver()

	layout := networking.TableLayout{
		MainTable:       c.Routing.MainTable,
		ScopedTableBase: c.Routing.ScopedTableBase,
		Metric:          c.Routing.RouteMetric,
	}
	var applier domain.KernelRouteApplier
	if c.Routing.Enable && !cfg.DryRun {
		applier = networking.NewNetlinkApplier(layout)
	} else {
		applier = networking.NewDryRunApplier(layout)
	}

	deps := &AppDependencies{
		cfg:              c,
		configStore:      store.NewMemoryStore(),
		resolver:         resolver,
		applier:          applier,
		nwiPublisher:     service.LogNWIPublisher{},
		validator:        service.NewValidationService(resolver),
		interfaceService: service.NewInterfaceService(),
	}

	notifiers := notify.MultiNotifier{notify.LogNotifier{}}
	if len(c.Notify.Command) > 0 {
		notifiers = append(notifiers, notify.NewCommandNotifier(c.Notify.Command, 0))
	}
	deps.asyncNotifier = notify.NewAsyncNotifier(notifiers)
	deps.notifier = deps.asyncNotifier

	if path := c.GetAbsResolvConfPath(); path != "" {
		deps.dnsPublisher = dnsconfig.NewResolvConfPublisher(path)
	}

	return deps
}

// Config returns the daemon configuration.
func (d *AppDependencies) Config() *config.Config {
	return d.cfg
}

// ConfigStore returns the in-memory configuration store the engine watches.
func (d *AppDependencies) ConfigStore() *store.MemoryStore {
	return d.configStore
}

// InterfaceResolver returns the interface name/index resolver.
func (d *AppDependencies) InterfaceResolver() domain.InterfaceResolver {
	return d.resolver
}

// RouteApplier returns the kernel route applier.
func (d *AppDependencies) RouteApplier() domain.KernelRouteApplier {
	return d.applier
}

// Validator returns the state file validator.
func (d *AppDependencies) Validator() *service.ValidationService {
	return d.validator
}

// InterfaceService returns the interface listing service.
func (d *AppDependencies) InterfaceService() *service.InterfaceService {
	return d.interfaceService
}

// EngineOptions maps the configuration onto engine options.
func (d *AppDependencies) EngineOptions() service.Options {
	order := make(models.ServiceOrder, 0, len(d.cfg.Election.ServiceOrder))
	for _, id := range d.cfg.Election.ServiceOrder {
		order = append(order, models.ServiceID(id))
	}
	return service.Options{
		ServiceOrder:       order,
		PPPOverridePrimary: d.cfg.Election.PPPOverridePrimary,
		DNS: dnsconfig.Options{
			DefaultSearchOrder: d.cfg.DNS.DefaultSearchOrder,
			MulticastTimeout:   d.cfg.MulticastTimeout(),
			ScopeAllInterfaces: d.cfg.DNS.ScopeAllInterfaces,
		},
		GracePeriod: d.cfg.GracePeriod(),
	}
}

// NewEngine creates a reconciliation engine over the container's store.
func (d *AppDependencies) NewEngine() *service.Engine {
	return service.NewEngine(service.Dependencies{
		Store:        d.configStore,
		Resolver:     d.resolver,
		Applier:      d.applier,
		Notifier:     d.notifier,
		DNSPublisher: d.dnsPublisher,
		NWIPublisher: d.nwiPublisher,
	}, d.EngineOptions())
}

// RoutingService creates a one-shot routing service.
func (d *AppDependencies) RoutingService() *service.RoutingService {
	return service.NewRoutingService(d.resolver, d.applier, d.validator, d.EngineOptions())
}

// DNSService creates a one-shot DNS service.
func (d *AppDependencies) DNSService() *service.DNSService {
	return service.NewDNSService(d.resolver, d.EngineOptions())
}

// Close stops background notifier delivery.
func (d *AppDependencies) Close() {
	if d.asyncNotifier != nil {
		d.asyncNotifier.Close()
	}
}
