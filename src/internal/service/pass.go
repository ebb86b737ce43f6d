package service

import (
	"errors"
	"sort"

	"github.com/maksimkurb/keen-ipmon/src/internal/dnsconfig"
	"github.com/maksimkurb/keen-ipmon/src/internal/election"
	ipmonerrors "github.com/maksimkurb/keen-ipmon/src/internal/errors"
	"github.com/maksimkurb/keen-ipmon/src/internal/hashing"
	"github.com/maksimkurb/keen-ipmon/src/internal/log"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
	"github.com/maksimkurb/keen-ipmon/src/internal/networking"
	"github.com/maksimkurb/keen-ipmon/src/internal/notify"
	"github.com/maksimkurb/keen-ipmon/src/internal/store"
)

// snapshot is the configuration one pass works on.
type snapshot struct {
	services           map[models.ServiceID]*models.ServiceRecord
	order              models.ServiceOrder
	pppOverridePrimary bool
	multicastDomains   []string
	privateDomains     []string
}

// evaluation is the outcome of electing over a snapshot.
type evaluation struct {
	lists map[models.ServiceID]*networking.RouteList
	ipv4  *election.Results
	ipv6  *election.Results
}

// evaluate derives every service's IPv4 routes and runs the election. A
// service whose routes cannot be derived loses its IPv4 entity.
func evaluate(engine *election.Engine, snap snapshot) evaluation {
	lists := make(map[models.ServiceID]*networking.RouteList, len(snap.services))
	assertions := make(map[models.ServiceID]models.RankAssertion, len(snap.services))
	exclude := make(map[models.ServiceID]bool)
	signatures := make(map[models.ServiceID]string, len(snap.services))

	for _, id := range sortedIDs(snap.services) {
		svc := snap.services[id]
		if svc.IPv4 != nil {
			list, assertion, err := networking.DeriveRoutes(svc.IPv4, routeHint(svc))
			if err != nil {
				log.Warnf("Dropping IPv4 configuration of service %s: %v", id, err)
				svc.IPv4 = nil
			} else {
				lists[id] = list
				assertions[id] = assertion
				if list.ExcludeFromNWI {
					exclude[id] = true
				}
			}
		}

		signature, err := hashing.Sign(svc)
		if err != nil {
			log.Debugf("%v", ipmonerrors.NewSignatureError("failed to sign service "+string(id), err))
			continue
		}
		signatures[id] = signature
	}

	ipv4, ipv6 := engine.Elect(models.IPv4, election.Input{
		Services:           snap.services,
		Order:              snap.order,
		PPPOverridePrimary: snap.pppOverridePrimary,
		ExcludeFromNWI:     exclude,
		IPv4RankAssertions: assertions,
		Signatures:         signatures,
	})
	return evaluation{lists: lists, ipv4: ipv4, ipv6: ipv6}
}

// routeHint is the assertion a service asks for before its routes are
// looked at.
func routeHint(svc *models.ServiceRecord) models.RankAssertion {
	if svc.Options != nil {
		if a, ok := models.ParseRankAssertion(svc.Options.PrimaryRank); ok {
			return a
		}
	}
	return models.RankAssertionDefault
}

// primaryService returns the IPv4 primary's record if it has the wanted
// entity, else the IPv6 primary's.
func primaryService(snap snapshot, ev evaluation, has func(*models.ServiceRecord) bool) *models.ServiceRecord {
	for _, results := range []*election.Results{ev.ipv4, ev.ipv6} {
		id := results.PrimaryServiceID()
		if id == "" {
			continue
		}
		if svc := snap.services[id]; svc != nil && has(svc) {
			return svc
		}
	}
	return nil
}

func dnsInput(snap snapshot, ev evaluation) dnsconfig.Input {
	in := dnsconfig.Input{
		Services:         snap.services,
		Order:            snap.order,
		MulticastDomains: snap.multicastDomains,
		PrivateDomains:   snap.privateDomains,
	}
	if svc := primaryService(snap, ev, func(s *models.ServiceRecord) bool { return s.DNS != nil }); svc != nil {
		in.Default = svc.DNS
		in.DefaultID = svc.ID
	}
	return in
}

func primaryProxy(snap snapshot, ev evaluation) *models.ProxyInfo {
	if svc := primaryService(snap, ev, func(s *models.ServiceRecord) bool { return s.Proxy != nil }); svc != nil {
		return svc.Proxy
	}
	return nil
}

func sortedIDs(services map[models.ServiceID]*models.ServiceRecord) []models.ServiceID {
	ids := make([]models.ServiceID, 0, len(services))
	for id := range services {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (e *Engine) snapshot() snapshot {
	return snapshot{
		services:           e.services,
		order:              e.order,
		pppOverridePrimary: e.pppOverridePrimary,
		multicastDomains:   e.multicastDomains,
		privateDomains:     e.privateDomains,
	}
}

// runPass performs one reconciliation pass.
func (e *Engine) runPass() {
	e.dirty = false
	e.generation++
	e.lastPass = e.deps.Clock.Now()
	passes.Inc()

	e.refreshGlobals()
	e.refreshServices()

	snap := e.snapshot()
	ev := evaluate(e.election, snap)

	routesChanged := e.routes.Sync(ev.ipv4, ev.lists)

	primaryChanged := false
	for _, pair := range []struct {
		prev, next *election.Results
	}{{e.ipv4, ev.ipv4}, {e.ipv6, ev.ipv6}} {
		if election.PrimaryChanged(pair.prev, pair.next) {
			primaryChanged = true
			election.RecordPrimaryChange(pair.next.Family)
			log.Infof("%s primary changed: %s -> %s", pair.next.Family,
				describePrimary(pair.prev), describePrimary(pair.next))
		}
	}
	e.ipv4, e.ipv6 = ev.ipv4, ev.ipv6

	resolvers, dnsChanged := e.dns.Build(dnsInput(snap, ev))
	e.resolvers = resolvers

	proxyChanged := false
	proxy := primaryProxy(snap, ev)
	if signature, err := hashing.Sign(proxy); err != nil {
		log.Warnf("%v", ipmonerrors.NewSignatureError("failed to sign proxy configuration", err))
	} else if signature != e.proxySignature {
		proxyChanged = true
		e.proxySignature = signature
	}
	e.proxy = proxy

	nwi := buildNWI(ev.ipv4, ev.ipv6)
	nwiChanged := false
	if signature, err := hashing.Sign(nwi); err != nil {
		log.Warnf("%v", ipmonerrors.NewSignatureError("failed to sign network state", err))
		nwi.Signature = e.nwi.Signature
	} else {
		nwi.Signature = signature
		nwiChanged = signature != e.nwi.Signature
	}
	e.nwi = nwi

	var bits notify.Change
	if routesChanged || primaryChanged || nwiChanged {
		bits |= notify.ChangeNet
	}
	if dnsChanged {
		bits |= notify.ChangeDNS
	}
	if proxyChanged {
		bits |= notify.ChangeProxy
	}
	log.Debugf("Pass %d finished with changes: %s", e.generation, bits)

	e.coalescer.Changed(bits)
	e.publishDNS(resolvers, dnsChanged)
	e.publishNWI(nwi, nwiChanged)
}

// publishDNS hands a changed configuration to the publisher. When nothing
// new has to be published and nothing is in flight, the publisher is
// caught up and the pass acknowledges at once.
func (e *Engine) publishDNS(cfg *dnsconfig.Config, changed bool) {
	switch {
	case e.dnsSlot == nil:
		e.coalescer.DNSAck(true)
	case changed:
		e.dnsSlot.Enqueue(e.generation, cfg)
	case !e.dnsSlot.Busy():
		e.coalescer.DNSAck(true)
	}
}

func (e *Engine) publishNWI(nwi *NWISnapshot, changed bool) {
	switch {
	case e.nwiSlot == nil:
		e.coalescer.NWIAck(true)
	case changed:
		e.nwiSlot.Enqueue(e.generation, nwi)
	case !e.nwiSlot.Busy():
		e.coalescer.NWIAck(true)
	}
}

func describePrimary(results *election.Results) string {
	record := results.PrimaryRecord()
	if record == nil {
		return "none"
	}
	return string(record.ServiceID) + " (" + record.InterfaceName + ")"
}

// refreshServices rebuilds every service record the store reported a
// change for. Absent entities are skipped; malformed ones are dropped.
func (e *Engine) refreshServices() {
	for id := range e.dirtyServices {
		delete(e.dirtyServices, id)

		svc := &models.ServiceRecord{ID: id}
		for _, entity := range models.AllEntityTypes {
			value, err := e.deps.Store.GetEntity(id, entity)
			if err != nil {
				if !errors.Is(err, ipmonerrors.ErrConfigNotFound) {
					log.Warnf("Failed to read %s of service %s: %v", entity, id, err)
				}
				continue
			}
			if !svc.SetEntity(entity, value) {
				log.Warnf("%v", ipmonerrors.NewMalformedEntityError(
					"unexpected value type for "+string(entity)+" of service "+string(id), nil))
			}
		}
		for entity, err := range svc.Validate() {
			malformedEntities.WithLabelValues(string(entity)).Inc()
			log.Warnf("Dropping %s of service %s: %v", entity, id, err)
		}

		if svc.IsEmpty() {
			if _, ok := e.services[id]; ok {
				log.Infof("Service %s removed", id)
			}
			delete(e.services, id)
			continue
		}
		e.services[id] = svc
	}
	servicesGauge.Set(float64(len(e.services)))
}

// refreshGlobals reloads the service order and the DNS domain lists.
func (e *Engine) refreshGlobals() {
	if !e.globalsDirty {
		return
	}
	e.globalsDirty = false

	values := e.deps.Store.GetMultiple(
		[]string{store.GlobalIPv4Key, store.MulticastDNSKey, store.PrivateDNSKey}, nil)

	e.order = e.opts.ServiceOrder
	e.pppOverridePrimary = e.opts.PPPOverridePrimary
	if global, ok := values[store.GlobalIPv4Key].(*store.GlobalIPv4); ok {
		if len(global.ServiceOrder) > 0 {
			e.order = global.ServiceOrder
		}
		e.pppOverridePrimary = e.pppOverridePrimary || global.PPPOverridePrimary
	}

	e.multicastDomains = nil
	if list, ok := values[store.MulticastDNSKey].(*store.DomainList); ok {
		e.multicastDomains = list.Domains
	}
	e.privateDomains = nil
	if list, ok := values[store.PrivateDNSKey].(*store.DomainList); ok {
		e.privateDomains = list.Domains
	}
}
