// Package service orchestrates reconciliation passes.
//
// # Engine
//
// Engine owns every piece of per-process reconciliation state: the service
// records, the last election results, the committed route list (through
// the route synchronizer), the last resolver configuration and the change
// coalescer. All of it is touched only from the engine's worker goroutine.
// Store notifications, publisher acknowledgments and the coalescer's grace
// timer are delivered to that goroutine as events.
//
// A pass refreshes changed service records, derives per-service routes,
// elects a primary service per protocol family, synchronizes the kernel
// routing table, rebuilds the resolver configuration, publishes the NWI
// snapshot and feeds the resulting change bits into the coalescer.
//
// # One-shot services
//
// DNSService and RoutingService evaluate a state file once, for the CLI
// commands that print what the daemon would do.
//
// # Example Usage
//
//	engine := service.NewEngine(service.Dependencies{
//	    Store:    memStore,
//	    Resolver: networking.NewNetlinkResolver(),
//	    Applier:  networking.NewNetlinkApplier(layout),
//	    Notifier: notify.LogNotifier{},
//	}, service.Options{})
//
//	if err := engine.Start(); err != nil {
//	    log.Fatalf("%v", err)
//	}
//	go engine.Run(ctx)
package service
