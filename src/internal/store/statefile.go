package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	ipmonerrors "github.com/maksimkurb/keen-ipmon/src/internal/errors"
	"github.com/maksimkurb/keen-ipmon/src/internal/hashing"
	"github.com/maksimkurb/keen-ipmon/src/internal/log"
	"github.com/maksimkurb/keen-ipmon/src/internal/models"
	"github.com/maksimkurb/keen-ipmon/src/internal/utils"
)

// StateFile is the TOML description of the network services.
//
//	service_order = ["wan", "lte"]
//
//	[services.wan.ipv4]
//	interface = "eth3"
//	addresses = ["192.0.2.10"]
//	subnet_masks = ["255.255.255.0"]
//	router = "192.0.2.1"
type StateFile struct {
	ServiceOrder       []string                 `toml:"service_order"`
	PPPOverridePrimary bool                     `toml:"ppp_override_primary"`
	MulticastDomains   []string                 `toml:"multicast_domains"`
	PrivateDomains     []string                 `toml:"private_domains"`
	Services           map[string]*ServiceState `toml:"services"`
}

// ServiceState holds the entities of one service.
type ServiceState struct {
	IPv4    *models.IPv4Info       `toml:"ipv4"`
	IPv6    *models.IPv6Info       `toml:"ipv6"`
	DNS     *models.DNSInfo        `toml:"dns"`
	Proxy   *models.ProxyInfo      `toml:"proxy"`
	Options *models.ServiceOptions `toml:"options"`
	VPN     *models.VPNStatus      `toml:"vpn"`
}

func (s *ServiceState) entities() map[models.EntityType]any {
	out := make(map[models.EntityType]any)
	if s.IPv4 != nil {
		out[models.EntityIPv4] = s.IPv4
	}
	if s.IPv6 != nil {
		out[models.EntityIPv6] = s.IPv6
	}
	if s.DNS != nil {
		out[models.EntityDNS] = s.DNS
	}
	if s.Proxy != nil {
		out[models.EntityProxies] = s.Proxy
	}
	if s.Options != nil {
		out[models.EntityService] = s.Options
	}
	if s.VPN != nil {
		out[models.EntityVPN] = s.VPN
	}
	return out
}

// Snapshot converts the state file into store keys and values. Without a
// service order the global key is left out.
func (f *StateFile) Snapshot() map[string]any {
	snapshot := make(map[string]any)

	if len(f.ServiceOrder) > 0 || f.PPPOverridePrimary {
		global := &GlobalIPv4{PPPOverridePrimary: f.PPPOverridePrimary}
		for _, id := range f.ServiceOrder {
			global.ServiceOrder = append(global.ServiceOrder, models.ServiceID(id))
		}
		snapshot[GlobalIPv4Key] = global
	}
	if len(f.MulticastDomains) > 0 {
		snapshot[MulticastDNSKey] = &DomainList{Domains: f.MulticastDomains}
	}
	if len(f.PrivateDomains) > 0 {
		snapshot[PrivateDNSKey] = &DomainList{Domains: f.PrivateDomains}
	}

	ids := make([]string, 0, len(f.Services))
	for id := range f.Services {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		state := f.Services[id]
		if state == nil {
			continue
		}
		for entity, value := range state.entities() {
			snapshot[ServiceKey(models.ServiceID(id), entity)] = value
		}
	}
	return snapshot
}

// ParseStateFile decodes state file content.
func ParseStateFile(content []byte) (*StateFile, error) {
	var state StateFile
	if err := toml.Unmarshal(content, &state); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			log.Errorf("%s", derr.String())
			row, col := derr.Position()
			log.Errorf("Error at line %d, column %d", row, col)
		}
		return nil, ipmonerrors.NewMalformedEntityError("failed to parse state file", err)
	}
	return &state, nil
}

// LoadStateFile reads and parses the state file at path. The returned
// checksum identifies the file content.
func LoadStateFile(path string) (*StateFile, string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ipmonerrors.NewConfigNotFoundError(fmt.Sprintf("state file not found: %s", path))
		}
		return nil, "", fmt.Errorf("failed to open state file: %w", err)
	}
	defer utils.CloseOrWarn(file)

	proxy := hashing.NewMD5ReaderProxy(file)
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, proxy); err != nil {
		return nil, "", fmt.Errorf("failed to read state file: %w", err)
	}
	checksum, err := proxy.GetChecksum()
	if err != nil {
		return nil, "", err
	}

	state, err := ParseStateFile(buf.Bytes())
	if err != nil {
		return nil, "", err
	}
	log.Debugf("Loaded state file %s [%s]: %d services", path, checksum, len(state.Services))
	return state, checksum, nil
}
