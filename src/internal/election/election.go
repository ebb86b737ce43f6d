package election

import (
	"sort"
	"strings"

	"github.com/maksimkurb/keen-ipmon/src/internal/log"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

const (
	colorGreen = "\033[32m"
	colorReset = "\033[0m"

	loopbackInterface = "lo"
	sixToFourPrefix   = "stf"
)

// Input is everything an election looks at.
type Input struct {
	Services map[models.ServiceID]*models.ServiceRecord
	Order    models.ServiceOrder
	// PPPOverridePrimary makes services on ppp* interfaces assert First.
	PPPOverridePrimary bool
	// ExcludeFromNWI lists services whose derived IPv4 route list must not
	// carry traffic. Such a service can top the IPv4 ranking but is never
	// elected.
	ExcludeFromNWI map[models.ServiceID]bool
	// IPv4RankAssertions carries the assertion derived alongside each
	// service's IPv4 routes. It is merged into the service's IPv4 rank.
	IPv4RankAssertions map[models.ServiceID]models.RankAssertion
	// Signatures optionally tags each candidate with the signature of its
	// service configuration.
	Signatures map[models.ServiceID]string
}

// Engine ranks services and picks the primary for each protocol family.
// It holds no state between elections.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Elect ranks the services for family and for the other family, applies
// coupled demotion in both directions and selects a primary in each.
// The returned Results never share storage with each other or with any
// previous election.
func (e *Engine) Elect(family models.Family, in Input) (results, other *Results) {
	results = e.rank(family, in)
	other = e.rank(family.Other(), in)

	// Demotion compares against the other family's ranking before either
	// side was demoted.
	rawResults := results.clone()
	rawOther := other.clone()
	demoteCoupled(results, rawOther)
	demoteCoupled(other, rawResults)

	selectPrimary(results)
	selectPrimary(other)

	recordCandidateCount(results.Family, results.Len())
	recordCandidateCount(other.Family, other.Len())
	logResults(results)
	logResults(other)

	return results, other
}

func (e *Engine) rank(family models.Family, in Input) *Results {
	results := newResults(family, len(in.Services))

	ids := make([]models.ServiceID, 0, len(in.Services))
	for id := range in.Services {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		svc := in.Services[id]
		if svc == nil {
			continue
		}
		c, ok := newCandidate(family, svc, in)
		if !ok {
			continue
		}
		results.insert(c)
	}
	return results
}

// newCandidate builds a candidate or reports that the service is not
// eligible for the family. Ineligible and malformed services are skipped
// without error.
func newCandidate(family models.Family, svc *models.ServiceRecord, in Input) (Candidate, bool) {
	c := Candidate{
		ServiceID:       svc.ID,
		ConfigSignature: in.Signatures[svc.ID],
	}
	var overridePrimary bool

	switch family {
	case models.IPv4:
		info := svc.IPv4
		if info == nil || len(info.Addresses) == 0 || info.InterfaceName == "" {
			return c, false
		}
		c.InterfaceName = info.InterfaceName
		c.Address = info.Addresses[0]
		c.Router = info.Router
		c.Skip = in.ExcludeFromNWI[svc.ID]
		overridePrimary = info.OverridePrimary
	case models.IPv6:
		info := svc.IPv6
		if info == nil || len(info.Addresses) == 0 || info.InterfaceName == "" || info.Router == "" {
			return c, false
		}
		c.InterfaceName = info.InterfaceName
		c.Address = info.Addresses[0]
		c.Router = info.Router
		c.Skip = info.IsNull
		overridePrimary = info.OverridePrimary
	default:
		return c, false
	}

	if c.InterfaceName == loopbackInterface {
		return c, false
	}

	assertion := models.RankAssertionDefault
	if family == models.IPv4 {
		if a, ok := in.IPv4RankAssertions[svc.ID]; ok {
			assertion = models.MergeAssertion(assertion, a)
		}
	}
	if svc.Options != nil {
		if a, ok := models.ParseRankAssertion(svc.Options.PrimaryRank); ok {
			assertion = models.MergeAssertion(assertion, a)
		}
		c.IPIsCoupled = svc.Options.IPIsCoupled
	}
	if svc.VPN != nil {
		if a, ok := models.ParseRankAssertion(svc.VPN.PrimaryRank); ok {
			assertion = models.MergeAssertion(assertion, a)
		}
		c.VPNServerAddress = svc.VPN.ServerAddress
	}
	if assertion != models.RankAssertionNever {
		if overridePrimary || (in.PPPOverridePrimary && strings.HasPrefix(c.InterfaceName, "ppp")) {
			assertion = models.RankAssertionFirst
		}
	}

	c.Rank = models.RankMake(in.Order.IndexOf(svc.ID), assertion)
	return c, true
}

// demoteCoupled forces a coupled candidate to Never when the other family
// has an eligible candidate ranked at or above it on a different interface.
// The service order index is kept.
func demoteCoupled(results, other *Results) {
	demoted := false
	for i := range results.Candidates {
		c := &results.Candidates[i]
		if !c.IPIsCoupled || c.Rank.IsNever() {
			continue
		}
		if needsDemotion(c, other) {
			log.Debugf("Demoting coupled %s candidate %s (%s): %s is ranked higher",
				results.Family, c.ServiceID, c.InterfaceName, other.Family)
			c.Rank = c.Rank.WithAssertion(models.RankAssertionNever)
			recordDemotion(results.Family)
			demoted = true
		}
	}
	if demoted {
		results.resort()
	}
}

func needsDemotion(c *Candidate, other *Results) bool {
	for i := range other.Candidates {
		o := &other.Candidates[i]
		if c.Rank.Less(o.Rank) {
			// Sorted: nothing further can outrank c.
			return false
		}
		if o.InterfaceName == c.InterfaceName {
			continue
		}
		if strings.HasPrefix(o.InterfaceName, sixToFourPrefix) {
			continue
		}
		if o.Rank.IsNever() {
			continue
		}
		return true
	}
	return false
}

// selectPrimary elects the first candidate that is not Never. A skip
// candidate at that position blocks the election and pushes every
// candidate below it to Never.
func selectPrimary(results *Results) {
	results.primary = -1
	for i := range results.Candidates {
		c := &results.Candidates[i]
		if c.Rank.IsNever() {
			continue
		}
		if c.Skip {
			for j := i + 1; j < len(results.Candidates); j++ {
				next := &results.Candidates[j]
				next.Rank = next.Rank.WithAssertion(models.RankAssertionNever)
			}
			results.resort()
			log.Debugf("%s candidate %s (%s) is excluded, no primary elected",
				results.Family, c.ServiceID, c.InterfaceName)
			return
		}
		results.primary = i
		return
	}
}

func (r *Results) clone() *Results {
	c := newResults(r.Family, len(r.Candidates))
	c.Candidates = append(c.Candidates, r.Candidates...)
	c.primary = r.primary
	return c
}

func logResults(results *Results) {
	if !log.IsVerbose() {
		return
	}
	log.Debugf("%s election: %d candidate(s)", results.Family, results.Len())
	primary := results.Primary()
	for i := range results.Candidates {
		c := &results.Candidates[i]
		chosen := "  "
		if c == primary {
			chosen = colorGreen + "->" + colorReset
		}
		log.Debugf(" %s %s (%s) address=%s rank=%s coupled=%v skip=%v",
			chosen, c.ServiceID, c.InterfaceName, c.Address, c.Rank, c.IPIsCoupled, c.Skip)
	}
}
