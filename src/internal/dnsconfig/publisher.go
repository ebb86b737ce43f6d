package dnsconfig

import (
	"strings"

	"github.com/valyala/fasttemplate"

	"github.com/maksimkurb/keen-ipmon/src/internal/log"
	"github.com/maksimkurb/keen-ipmon/src/internal/utils"
)

const (
	resolvConfTemplate = `# Generated by keen-ipmon, do not edit.
# configuration {{signature}}
{{search}}{{nameservers}}{{sortlist}}{{options}}`

	resolvConfTmplSignature   = "signature"
	resolvConfTmplSearch      = "search"
	resolvConfTmplNameservers = "nameservers"
	resolvConfTmplSortList    = "sortlist"
	resolvConfTmplOptions     = "options"

	// resolv(5) reads at most three nameservers.
	maxResolvConfNameservers = 3
)

// ResolvConfPublisher writes the default resolver of a configuration into
// a resolv.conf file.
type ResolvConfPublisher struct {
	path     string
	template *fasttemplate.Template

	lastSignature string
}

func NewResolvConfPublisher(path string) *ResolvConfPublisher {
	return &ResolvConfPublisher{
		path:     path,
		template: fasttemplate.New(resolvConfTemplate, "{{", "}}"),
	}
}

// Render returns the resolv.conf content of cfg.
func (p *ResolvConfPublisher) Render(cfg *Config) string {
	values := map[string]interface{}{
		resolvConfTmplSignature:   "",
		resolvConfTmplSearch:      "",
		resolvConfTmplNameservers: "",
		resolvConfTmplSortList:    "",
		resolvConfTmplOptions:     "",
	}
	if cfg != nil {
		values[resolvConfTmplSignature] = cfg.Signature
	}

	if def := cfg.Default(); def != nil {
		if len(def.SearchDomains) > 0 {
			values[resolvConfTmplSearch] = "search " + strings.Join(def.SearchDomains, " ") + "\n"
		}
		var ns strings.Builder
		for i, server := range def.Nameservers {
			if i == maxResolvConfNameservers {
				break
			}
			ns.WriteString("nameserver " + server + "\n")
		}
		values[resolvConfTmplNameservers] = ns.String()
		if len(def.SortList) > 0 {
			values[resolvConfTmplSortList] = "sortlist " + strings.Join(def.SortList, " ") + "\n"
		}
		if def.Options != "" {
			values[resolvConfTmplOptions] = "options " + def.Options + "\n"
		}
	}

	return p.template.ExecuteString(values)
}

// Publish writes cfg unless the file already holds a configuration with the
// same signature.
func (p *ResolvConfPublisher) Publish(cfg *Config) error {
	if cfg != nil && cfg.Signature != "" && cfg.Signature == p.lastSignature {
		return nil
	}
	if err := utils.WriteFileAtomic(p.path, []byte(p.Render(cfg)), 0644); err != nil {
		publishFailures.Inc()
		return err
	}
	if cfg != nil {
		p.lastSignature = cfg.Signature
	}
	log.Infof("Published resolver configuration to %s", p.path)
	return nil
}
