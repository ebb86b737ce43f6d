package dnsconfig

import (
	"strconv"
	"strings"

	"github.com/miekg/dns"

	"github.com/maksimkurb/keen-ipmon/src/internal/models"
)

const defaultNdots = 1

// NormalizeDomain lowercases a domain name and strips its trailing dot.
// Returns "" for names that are not valid domain names.
func NormalizeDomain(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || name == "." {
		return ""
	}
	if _, ok := dns.IsDomainName(name); !ok {
		return ""
	}
	return strings.TrimSuffix(dns.CanonicalName(name), ".")
}

// isReverseDomain reports whether name lives under a reverse lookup zone.
func isReverseDomain(name string) bool {
	return strings.HasSuffix(name, ".in-addr.arpa") || strings.HasSuffix(name, ".ip6.arpa") ||
		name == "in-addr.arpa" || name == "ip6.arpa"
}

// ndots parses the ndots option out of a resolver options string. Both the
// resolv.conf "ndots:N" and the "ndots=N" spellings are accepted.
func ndots(options string) int {
	for _, o := range strings.Fields(options) {
		value, found := strings.CutPrefix(o, "ndots:")
		if !found {
			value, found = strings.CutPrefix(o, "ndots=")
		}
		if !found {
			continue
		}
		if n, err := strconv.Atoi(value); err == nil && n >= 0 {
			return n
		}
	}
	return defaultNdots
}

// SearchDomains derives the search list of a DNS entity.
//
// An explicit search list is normalized and used as is. Otherwise the list
// is synthesized from the domain name: every suffix of it keeping more than
// ndots labels, longest first. A domain too short for that yields no
// search domains.
func SearchDomains(info *models.DNSInfo) []string {
	if info == nil {
		return nil
	}
	if len(info.SearchDomains) > 0 {
		var out []string
		for _, d := range info.SearchDomains {
			if n := NormalizeDomain(d); n != "" {
				out = appendUnique(out, n)
			}
		}
		return out
	}

	domain := NormalizeDomain(info.DomainName)
	if domain == "" {
		return nil
	}
	labels := dns.SplitDomainName(domain)
	var out []string
	for i := 1; i <= len(labels)-ndots(info.Options); i++ {
		out = append(out, strings.Join(labels[i-1:], "."))
	}
	return out
}

// spliceSupplemental merges supplemental domains into the default search
// list. Domains of resolvers ordered before the default go to the front in
// their search order; the others are appended when missing. Private and
// interface bound resolvers and reverse zones never enter the search list.
func spliceSupplemental(search []string, defaultOrder int, supplemental []Resolver) []string {
	front := 0
	for i := range supplemental {
		r := &supplemental[i]
		if r.Domain == "" || r.hasOption(OptionPrivate) || r.boundToInterface() || isReverseDomain(r.Domain) {
			continue
		}
		if r.order(defaultOrder) < defaultOrder {
			search = removeString(search, r.Domain)
			search = insertString(search, front, r.Domain)
			front++
			continue
		}
		search = appendUnique(search, r.Domain)
	}
	return search
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

func insertString(list []string, pos int, s string) []string {
	if pos > len(list) {
		pos = len(list)
	}
	list = append(list, "")
	copy(list[pos+1:], list[pos:])
	list[pos] = s
	return list
}
