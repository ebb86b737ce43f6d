package election

import (
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

// Candidate is one service competing to become primary for a family.
// Candidates are built fresh on every election.
type Candidate struct {
	ServiceID         models.ServiceID `json:"service_id"`
	InterfaceName     string           `json:"interface_name"`
	Address           string           `json:"address"`
	Router            string           `json:"router,omitempty"`
	Rank              models.Rank      `json:"rank"`
	IPIsCoupled       bool             `json:"ip_is_coupled,omitempty"`
	ReachabilityFlags uint32           `json:"reachability_flags,omitempty"`
	VPNServerAddress  string           `json:"vpn_server_address,omitempty"`
	ConfigSignature   string           `json:"config_signature,omitempty"`

	// Skip marks a candidate whose configuration must never carry traffic
	// for the family: an IPv4 route list flagged ExcludeFromNWI or an IPv6
	// service marked null.
	Skip bool `json:"skip,omitempty"`
}

// PrimaryRecord is the published summary of the primary service.
type PrimaryRecord struct {
	ServiceID     models.ServiceID `json:"service_id"`
	InterfaceName string           `json:"interface_name"`
	Router        string           `json:"router,omitempty"`
}

// Results is the ranked outcome of one election for one family.
type Results struct {
	Family     models.Family `json:"family"`
	Candidates []Candidate   `json:"candidates"`

	primary int
}

func newResults(family models.Family, capacity int) *Results {
	return &Results{
		Family:     family,
		Candidates: make([]Candidate, 0, capacity),
		primary:    -1,
	}
}

// Primary returns the elected candidate, or nil when nobody was elected.
func (r *Results) Primary() *Candidate {
	if r == nil || r.primary < 0 || r.primary >= len(r.Candidates) {
		return nil
	}
	return &r.Candidates[r.primary]
}

// PrimaryRecord returns the published summary of the primary, or nil.
func (r *Results) PrimaryRecord() *PrimaryRecord {
	c := r.Primary()
	if c == nil {
		return nil
	}
	return &PrimaryRecord{
		ServiceID:     c.ServiceID,
		InterfaceName: c.InterfaceName,
		Router:        c.Router,
	}
}

// PrimaryServiceID returns the primary's service ID or "".
func (r *Results) PrimaryServiceID() models.ServiceID {
	if c := r.Primary(); c != nil {
		return c.ServiceID
	}
	return ""
}

// Candidate returns the candidate of the given service, or nil.
func (r *Results) Candidate(id models.ServiceID) *Candidate {
	if r == nil {
		return nil
	}
	for i := range r.Candidates {
		if r.Candidates[i].ServiceID == id {
			return &r.Candidates[i]
		}
	}
	return nil
}

// Len returns the number of candidates; a nil Results has none.
func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Candidates)
}

// Equal reports whether two elections produced the same ranking and primary.
func (r *Results) Equal(o *Results) bool {
	if r.Len() != o.Len() {
		return false
	}
	if r.PrimaryServiceID() != o.PrimaryServiceID() {
		return false
	}
	for i := 0; i < r.Len(); i++ {
		if r.Candidates[i] != o.Candidates[i] {
			return false
		}
	}
	return true
}

// PrimaryChanged reports whether the published primary record differs.
func PrimaryChanged(prev, next *Results) bool {
	a, b := prev.PrimaryRecord(), next.PrimaryRecord()
	if a == nil || b == nil {
		return a != b
	}
	return *a != *b
}

// insert places c after every candidate with a lower or equal rank. Equal
// ranks are ordered by service ID so the outcome does not depend on the
// order services are visited in.
func (r *Results) insert(c Candidate) {
	i := len(r.Candidates)
	for i > 0 && candidateLess(c, r.Candidates[i-1]) {
		i--
	}
	r.Candidates = append(r.Candidates, Candidate{})
	copy(r.Candidates[i+1:], r.Candidates[i:])
	r.Candidates[i] = c
}

// resort restores rank order after ranks were rewritten in place.
func (r *Results) resort() {
	for i := 1; i < len(r.Candidates); i++ {
		c := r.Candidates[i]
		j := i
		for j > 0 && candidateLess(c, r.Candidates[j-1]) {
			r.Candidates[j] = r.Candidates[j-1]
			j--
		}
		r.Candidates[j] = c
	}
}

func candidateLess(a, b Candidate) bool {
	if a.Rank != b.Rank {
		return a.Rank.Less(b.Rank)
	}
	return a.ServiceID < b.ServiceID
}
