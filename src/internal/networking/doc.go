// Package networking derives IPv4 routes from service state and keeps the
// kernel routing tables in line with the elected services.
//
// # Architecture
//
// The package is organized around a few small pieces:
//
//   - DeriveRoutes: Turns the IPv4 entity of one service into its route list
//   - RouteList: Sorted route set where the best ranked route per
//     destination is unscoped and the others are scoped to their interface
//   - Reconcile: Diffs the committed list against a new one
//   - Synchronizer: Merges the lists of all candidates, applies the diff and
//     keeps the multicast route next to the default route
//   - NetlinkApplier / DryRunApplier: Kernel route appliers
//   - NetlinkResolver: Interface name and index lookups
//
// # Tables
//
// Unscoped routes go to TableLayout.MainTable. A scoped route goes to
// ScopedTableBase plus the index of its interface, so every interface keeps
// a private table with its own default route.
//
// # Example Usage
//
//	sync := networking.NewSynchronizer(
//	    networking.NewNetlinkApplier(layout),
//	    networking.NewNetlinkResolver(),
//	)
//
//	lists := map[models.ServiceID]*networking.RouteList{}
//	for id, info := range ipv4Entities {
//	    list, _, err := networking.DeriveRoutes(info, models.RankAssertionDefault)
//	    if err != nil {
//	        log.Warnf("Skipping service %s: %v", id, err)
//	        continue
//	    }
//	    lists[id] = list
//	}
//
//	if sync.Sync(results.IPv4, lists) {
//	    log.Infof("Routes changed: %s", sync.Committed())
//	}
package networking
