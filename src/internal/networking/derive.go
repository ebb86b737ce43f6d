package networking

import (
	ipmonerrors "github.com/maksimkurb/keen-ipmon/src/internal/errors"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
	"github.com/maksimkurb/keen-ipmon/src/internal/utils"
)

const (
	loopbackInterface = "lo"

	linkLocalNet  uint32 = 0xa9fe0000 // 169.254.0.0
	linkLocalMask uint32 = 0xffff0000
	hostMask      uint32 = 0xffffffff
)

// DeriveRoutes computes the default and subnet routes of one service's
// IPv4 configuration, together with the rank assertion the service's
// routes carry.
//
// A service without a router is asserted Last unless it is already Never.
// Otherwise the hint applies, lifted to First by the legacy override flag.
// Routes are returned with IfIndex unset; the synchronizer resolves it.
func DeriveRoutes(info *models.IPv4Info, hint models.RankAssertion) (*RouteList, models.RankAssertion, error) {
	list := NewRouteList()
	if info == nil || len(info.Addresses) == 0 {
		return list, hint, nil
	}

	addr, err := utils.ParseIPv4(info.Addresses[0])
	if err != nil {
		return nil, hint, ipmonerrors.NewMalformedEntityError("bad IPv4 address", err)
	}

	var mask uint32
	if len(info.SubnetMasks) > 0 {
		if mask, err = utils.ParseIPv4Mask(info.SubnetMasks[0]); err != nil {
			return nil, hint, ipmonerrors.NewMalformedEntityError("bad IPv4 subnet mask", err)
		}
	}

	var router uint32
	hasRouter := info.Router != ""
	if hasRouter {
		if router, err = utils.ParseIPv4(info.Router); err != nil {
			return nil, hint, ipmonerrors.NewMalformedEntityError("bad IPv4 router", err)
		}
	}

	assertion := hint
	switch {
	case !hasRouter:
		if hint != models.RankAssertionNever {
			assertion = models.RankAssertionLast
		}
	case info.OverridePrimary && hint != models.RankAssertionNever:
		assertion = models.RankAssertionFirst
	}
	rank := models.RankMake(models.RankIndexUnranked, assertion)

	var baseFlags models.RouteFlags
	if info.IsNull {
		baseFlags |= models.RouteFlagNull
		list.ExcludeFromNWI = true
	}

	if info.InterfaceName != loopbackInterface {
		route := models.IPv4Route{
			IfName: info.InterfaceName,
			IfAddr: addr,
			Rank:   rank,
			Flags:  baseFlags,
		}
		if hasRouter {
			route.Gateway = router
			if router == addr && mask != hostMask {
				route.Flags |= models.RouteFlagDirectToInterface
			}
			if mask != 0 && router&mask != addr&mask {
				route.Flags |= models.RouteFlagNotSubnetLocal
			}
		} else {
			route.Gateway = addr
			route.Flags |= models.RouteFlagDirectToInterface
		}
		list.Add(route)
	}

	if mask != 0 && mask != hostMask {
		subnet := addr & mask
		if subnet&linkLocalMask == linkLocalNet {
			if !hasRouter {
				list.ExcludeFromNWI = true
			}
		} else {
			list.Add(models.IPv4Route{
				Dest:    subnet,
				Mask:    mask,
				Gateway: addr,
				IfName:  info.InterfaceName,
				IfAddr:  addr,
				Rank:    rank,
				Flags:   baseFlags | models.RouteFlagDirectToInterface,
			})
		}
	}

	return list, assertion, nil
}
