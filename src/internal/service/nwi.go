package service

import (
	"github.com/maksimkurb/keen-ipmon/src/internal/election"
	"github.com/maksimkurb/keen-ipmon/src/internal/log"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

// NWIInterface is one usable interface of the NWI snapshot.
type NWIInterface struct {
	Name              string           `json:"name"`
	Family            models.Family    `json:"family"`
	ServiceID         models.ServiceID `json:"service_id"`
	Address           string           `json:"address"`
	Rank              models.Rank      `json:"rank"`
	ReachabilityFlags uint32           `json:"reachability_flags,omitempty"`
	Primary           bool             `json:"primary,omitempty"`
}

// NWISnapshot is the consumer-facing summary of network reachability: the
// primary of each family and every interface that can carry traffic, in
// rank order.
type NWISnapshot struct {
	IPv4       *election.PrimaryRecord `json:"ipv4,omitempty"`
	IPv6       *election.PrimaryRecord `json:"ipv6,omitempty"`
	Interfaces []NWIInterface          `json:"interfaces,omitempty"`
	Signature  string                  `json:"signature"`
}

// NWIPublisher hands an NWI snapshot to its consumers.
type NWIPublisher interface {
	PublishNWI(snapshot *NWISnapshot) error
}

// LogNWIPublisher logs every snapshot it is given.
type LogNWIPublisher struct{}

func (LogNWIPublisher) PublishNWI(snapshot *NWISnapshot) error {
	primary := func(r *election.PrimaryRecord) string {
		if r == nil {
			return "none"
		}
		return string(r.ServiceID) + " (" + r.InterfaceName + ")"
	}
	log.Infof("Network state [%s]: IPv4 primary %s, IPv6 primary %s, %d interface(s)",
		snapshot.Signature, primary(snapshot.IPv4), primary(snapshot.IPv6), len(snapshot.Interfaces))
	return nil
}

// buildNWI summarizes both elections. Candidates that are skipped or
// asserted Never are not usable and are left out.
func buildNWI(ipv4, ipv6 *election.Results) *NWISnapshot {
	snapshot := &NWISnapshot{
		IPv4: ipv4.PrimaryRecord(),
		IPv6: ipv6.PrimaryRecord(),
	}
	for _, results := range []*election.Results{ipv4, ipv6} {
		if results == nil {
			continue
		}
		primary := results.PrimaryServiceID()
		for _, c := range results.Candidates {
			if c.Skip || c.Rank.IsNever() {
				continue
			}
			snapshot.Interfaces = append(snapshot.Interfaces, NWIInterface{
				Name:              c.InterfaceName,
				Family:            results.Family,
				ServiceID:         c.ServiceID,
				Address:           c.Address,
				Rank:              c.Rank,
				ReachabilityFlags: c.ReachabilityFlags,
				Primary:           c.ServiceID == primary,
			})
		}
	}
	return snapshot
}
