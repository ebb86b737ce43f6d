package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/maksimkurb/keen-ipmon/src/internal/dnsconfig"
	"github.com/maksimkurb/keen-ipmon/src/internal/domain"
	"github.com/maksimkurb/keen-ipmon/src/internal/election"
	"github.com/maksimkurb/keen-ipmon/src/internal/hashing"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
	"github.com/maksimkurb/keen-ipmon/src/internal/networking"
	"github.com/maksimkurb/keen-ipmon/src/internal/notify"
	"github.com/maksimkurb/keen-ipmon/src/internal/store"
)

const eventQueueSize = 64

// DNSPublisher hands a resolver configuration to its consumer.
type DNSPublisher interface {
	Publish(cfg *dnsconfig.Config) error
}

// Dependencies are the collaborators of an Engine. Store, Resolver and
// Applier are required.
type Dependencies struct {
	Store    domain.ConfigStore
	Resolver domain.InterfaceResolver
	Applier  domain.KernelRouteApplier

	// Notifier receives coalesced change notifications. Nil logs them.
	Notifier notify.Notifier
	// DNSPublisher and NWIPublisher acknowledge asynchronously. A nil
	// publisher acknowledges every pass at once.
	DNSPublisher DNSPublisher
	NWIPublisher NWIPublisher
	// Clock drives the coalescer's grace timer. Nil uses the real clock.
	Clock notify.Clock
}

// Options tune an Engine.
type Options struct {
	// ServiceOrder is used while the store holds no global service order.
	ServiceOrder       models.ServiceOrder
	PPPOverridePrimary bool
	DNS                dnsconfig.Options
	GracePeriod        time.Duration
}

// Engine runs reconciliation passes on a single worker goroutine. Every
// field below the event channel belongs to that goroutine.
type Engine struct {
	deps Dependencies
	opts Options

	events   chan func()
	done     chan struct{}
	doneOnce sync.Once
	cancel   func()

	election  *election.Engine
	routes    *networking.Synchronizer
	dns       *dnsconfig.Builder
	coalescer *notify.Coalescer
	dnsSlot   *publishSlot[*dnsconfig.Config]
	nwiSlot   *publishSlot[*NWISnapshot]

	services      map[models.ServiceID]*models.ServiceRecord
	dirtyServices map[models.ServiceID]bool
	globalsDirty  bool
	dirty         bool

	order              models.ServiceOrder
	pppOverridePrimary bool
	multicastDomains   []string
	privateDomains     []string

	generation     uint64
	lastPass       time.Time
	ipv4           *election.Results
	ipv6           *election.Results
	resolvers      *dnsconfig.Config
	proxy          *models.ProxyInfo
	proxySignature string
	nwi            *NWISnapshot
}

func NewEngine(deps Dependencies, opts Options) *Engine {
	if deps.Notifier == nil {
		deps.Notifier = notify.LogNotifier{}
	}
	if deps.Clock == nil {
		deps.Clock = notify.RealClock()
	}

	e := &Engine{
		deps:          deps,
		opts:          opts,
		events:        make(chan func(), eventQueueSize),
		done:          make(chan struct{}),
		election:      election.NewEngine(),
		routes:        networking.NewSynchronizer(deps.Applier, deps.Resolver),
		dns:           dnsconfig.NewBuilder(deps.Resolver, opts.DNS),
		services:      make(map[models.ServiceID]*models.ServiceRecord),
		dirtyServices: make(map[models.ServiceID]bool),
		order:         opts.ServiceOrder,
		nwi:           &NWISnapshot{},
	}
	e.pppOverridePrimary = opts.PPPOverridePrimary
	// No proxy configuration is the starting point.
	e.proxySignature, _ = hashing.Sign((*models.ProxyInfo)(nil))
	e.coalescer = notify.NewCoalescer(deps.Notifier, notify.ExecutorFunc(e.Submit), deps.Clock, opts.GracePeriod)

	if deps.DNSPublisher != nil {
		e.dnsSlot = newPublishSlot("dns", deps.DNSPublisher.Publish, e.dnsAck)
	}
	if deps.NWIPublisher != nil {
		e.nwiSlot = newPublishSlot("nwi", deps.NWIPublisher.PublishNWI, e.nwiAck)
	}
	return e
}

// Start subscribes to the store and schedules the initial load. Events
// queue up until Run is called.
func (e *Engine) Start() error {
	cancel, err := e.deps.Store.Subscribe(
		[]string{store.GlobalIPv4Key, store.MulticastDNSKey, store.PrivateDNSKey},
		[]string{store.ServiceKeyPattern},
		e.storeChanged,
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to configuration store: %w", err)
	}
	e.cancel = cancel

	e.Submit(e.loadAll)
	return nil
}

// Run processes events until ctx is canceled. A pass runs once the queue
// drains after an event that changed the configuration, so a burst of
// store notifications costs a single pass.
func (e *Engine) Run(ctx context.Context) {
	defer e.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-e.events:
			fn()
			if e.dirty && len(e.events) == 0 {
				e.runPass()
			}
		}
	}
}

// Submit queues fn for the worker goroutine. It is safe to call from any
// goroutine; after the engine stopped fn is dropped.
func (e *Engine) Submit(fn func()) {
	select {
	case <-e.done:
		return
	default:
	}
	select {
	case e.events <- fn:
	case <-e.done:
	}
}

// Reconcile forces a full refresh from the store followed by a pass.
func (e *Engine) Reconcile() {
	e.Submit(e.loadAll)
}

// Withdraw removes every route the engine installed. A later pass installs
// them again, so it is meant to be called right before the engine stops.
func (e *Engine) Withdraw(ctx context.Context) error {
	finished := make(chan struct{})
	e.Submit(func() {
		e.routes.Withdraw()
		close(finished)
	})

	select {
	case <-finished:
		return nil
	case <-e.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) shutdown() {
	e.doneOnce.Do(func() {
		close(e.done)
		if e.cancel != nil {
			e.cancel()
		}
		if e.dnsSlot != nil {
			e.dnsSlot.Close()
		}
		if e.nwiSlot != nil {
			e.nwiSlot.Close()
		}
	})
}

func (e *Engine) storeChanged(keys []string) {
	e.Submit(func() {
		for _, key := range keys {
			e.markKey(key)
		}
	})
}

func (e *Engine) markKey(key string) {
	switch key {
	case store.GlobalIPv4Key, store.MulticastDNSKey, store.PrivateDNSKey:
		e.globalsDirty = true
		e.dirty = true
		return
	}
	if id, _, ok := store.ParseServiceKey(key); ok {
		e.dirtyServices[id] = true
		e.dirty = true
	}
}

// loadAll marks every known service and the globals for refresh.
func (e *Engine) loadAll() {
	values := e.deps.Store.GetMultiple(nil, []string{store.ServiceKeyPattern})
	for key := range values {
		e.markKey(key)
	}
	for id := range e.services {
		e.dirtyServices[id] = true
	}
	e.globalsDirty = true
	e.dirty = true
}

// dnsAck and nwiAck run on publisher goroutines.
func (e *Engine) dnsAck(generation uint64, err error) {
	e.Submit(func() {
		if e.dnsSlot.Acknowledge(generation) {
			e.coalescer.DNSAck(err == nil)
		}
	})
}

func (e *Engine) nwiAck(generation uint64, err error) {
	e.Submit(func() {
		if e.nwiSlot.Acknowledge(generation) {
			e.coalescer.NWIAck(err == nil)
		}
	})
}
